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
	"os"

	cliUtils "github.com/Fantom-foundation/Veritas/go/ct/driver/cli"
	"github.com/Fantom-foundation/Veritas/go/ct/harness"
	"github.com/Fantom-foundation/Veritas/go/ct/st"
	"github.com/urfave/cli/v2"
)

var ReplayCmd = cliUtils.AddCommonFlags(cli.Command{
	Action: doReplay,
	Name:   "replay",
	Usage:  "Regenerate and run a single sequence identified by its seed and index",
	Flags: append([]cli.Flag{
		cliUtils.ScenarioFlag,
		cliUtils.SeedFlag,
		cliUtils.LengthFlag,
		&cli.Uint64Flag{
			Name:  "index",
			Usage: "index of the sequence within the seeded run",
		},
		&cli.BoolFlag{
			Name:  "print",
			Usage: "print the sequence before running it",
		},
	}, harnessFlags...),
})

func doReplay(context *cli.Context) error {
	config, err := loadConfig(context)
	if err != nil {
		return err
	}
	seq, err := harness.GenerateSequence(config.Scenario, config.Seed, context.Uint64("index"), config.Length)
	if err != nil {
		return err
	}
	if context.Bool("print") {
		encoded, err := st.MarshalSequenceJSON(seq)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s\n", encoded)
	}

	executor, err := harness.NewExecutor(config)
	if err != nil {
		return err
	}
	if err := executor.Execute(seq.Actions); err != nil {
		return err
	}
	fmt.Printf("OK: sequence %d of seed %d, %d actions\n", seq.Index, seq.Seed, len(seq.Actions))
	return nil
}
