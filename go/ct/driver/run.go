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
	"time"

	cliUtils "github.com/Fantom-foundation/Veritas/go/ct/driver/cli"
	"github.com/Fantom-foundation/Veritas/go/ct/harness"
	"github.com/dsnet/golib/unitconv"
	"github.com/urfave/cli/v2"
)

var harnessFlags = []cli.Flag{
	cliUtils.ConfigFlag,
	cliUtils.BackendFlag,
	cliUtils.FallbackFlag,
	cliUtils.TimeoutFlag,
	cliUtils.VerboseFlag,
}

var RunCmd = cliUtils.AddCommonFlags(cli.Command{
	Action: doRun,
	Name:   "run",
	Usage:  "Run seeded state-machine tests comparing the ledger with the reference model",
	Flags: append([]cli.Flag{
		cliUtils.ScenarioFlag,
		cliUtils.SeedFlag,
		cliUtils.RunsFlag,
		cliUtils.LengthFlag,
		cliUtils.JobsFlag,
		cliUtils.OutputFlag,
	}, harnessFlags...),
})

func doRun(context *cli.Context) error {
	config, err := loadConfig(context)
	if err != nil {
		return err
	}

	printProgress := func(relativeTime time.Duration, rate float64, current int64) {
		fmt.Printf(
			"[t=%4d:%02d] - Processing ~%s sequences per second, total %d\n",
			int(relativeTime.Seconds())/60, int(relativeTime.Seconds())%60,
			unitconv.FormatPrefix(rate, unitconv.SI, 0), current,
		)
	}

	fmt.Printf("Starting %s sequences with seed %d ...\n", config.Scenario, config.Seed)
	report, err := harness.Run(config, printProgress)
	if err != nil {
		return fmt.Errorf("failed to run sequences: %w", err)
	}

	if report.Failure == nil {
		fmt.Printf("All %d sequences with %d actions passed successfully!\n", report.Runs, report.Actions)
		return nil
	}

	if _, err := cliUtils.ExportFailure(os.Stdout, report.Failure, cliUtils.OutputFlag.Fetch(context)); err != nil {
		fmt.Printf("failed to export sequence: %v\n", err)
	}
	return fmt.Errorf("found divergence in sequence %d of seed %d", report.Failure.Sequence.Index, config.Seed)
}
