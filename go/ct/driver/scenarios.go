// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"

	"github.com/Fantom-foundation/Veritas/go/ct/gen"
	"github.com/Fantom-foundation/Veritas/go/ct/st"
	"github.com/Fantom-foundation/Veritas/go/storage"
	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/urfave/cli/v2"
)

var ScenariosCmd = cli.Command{
	Action: doListScenarios,
	Name:   "scenarios",
	Usage:  "List the available scenarios, storage backends, and interpreters",
}

func doListScenarios(context *cli.Context) error {
	for _, name := range gen.Scenarios() {
		profile, err := gen.Scenario(name)
		if err != nil {
			return err
		}
		programs := []string{}
		for program := st.Program(0); program < st.NumPrograms; program++ {
			if profile.Programs[program] > 0 {
				programs = append(programs, program.String())
			}
		}
		fmt.Printf("%-10s programs %v\n", name, programs)
	}
	fmt.Printf("backends:     %v\n", storage.Backends())
	fmt.Printf("interpreters: %v\n", veritas.GetRegisteredInterpreterNames())
	return nil
}
