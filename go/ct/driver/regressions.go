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
	"path/filepath"
	"time"

	cliUtils "github.com/Fantom-foundation/Veritas/go/ct/driver/cli"
	"github.com/Fantom-foundation/Veritas/go/ct/harness"
	"github.com/Fantom-foundation/Veritas/go/ct/st"
	"github.com/urfave/cli/v2"
)

var RegressionsCmd = cliUtils.AddCommonFlags(cli.Command{
	Action: doRegressionTests,
	Name:   "regressions",
	Usage:  "Replay stored action sequences against the ledger and the reference model",
	Flags: append([]cli.Flag{
		&cli.StringSliceFlag{
			Name:  "input",
			Usage: "run given input file, or all files in the given directory (recursively)",
			Value: cli.NewStringSlice("./regression_inputs"),
		},
	}, harnessFlags...),
})

func enumerateInputs(inputs []string) ([]string, error) {
	var inputFiles []string

	for _, input := range inputs {
		path, err := filepath.Abs(input)
		if err != nil {
			return nil, err
		}

		stat, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !stat.IsDir() {
			inputFiles = append(inputFiles, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			filePath := filepath.Join(path, entry.Name())
			if entry.IsDir() {
				recInputs, err := enumerateInputs([]string{filePath})
				if err != nil {
					return nil, err
				}
				inputFiles = append(inputFiles, recInputs...)
			} else if filepath.Ext(filePath) == ".json" {
				inputFiles = append(inputFiles, filePath)
			}
		}
	}

	return inputFiles, nil
}

func doRegressionTests(context *cli.Context) error {
	config, err := loadConfig(context)
	if err != nil {
		return err
	}
	executor, err := harness.NewExecutor(config)
	if err != nil {
		return err
	}

	inputs, err := enumerateInputs(context.StringSlice("input"))
	if err != nil {
		return err
	}

	failed := 0
	for _, input := range inputs {
		seq, err := st.ImportSequenceJSON(input)
		if err != nil {
			fmt.Printf("Failed to import sequence from %v: %v\n", input, err)
			failed++
			continue
		}

		tstart := time.Now()
		if err := executor.Execute(seq.Actions); err != nil {
			fmt.Printf("FAILED: %v: %v\n", input, err)
			failed++
			continue
		}
		fmt.Printf("OK: %v, %d actions (%v)\n", input, len(seq.Actions), time.Since(tstart).Round(10*time.Millisecond))
	}

	if failed > 0 {
		return fmt.Errorf("failed to pass %d of %d regression inputs", failed, len(inputs))
	}
	return nil
}
