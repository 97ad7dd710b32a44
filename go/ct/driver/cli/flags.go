// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cliUtils

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/Fantom-foundation/Veritas/go/ct/gen"
	"github.com/Fantom-foundation/Veritas/go/ct/harness"
	"github.com/Fantom-foundation/Veritas/go/ledger"
	"github.com/Fantom-foundation/Veritas/go/storage"
	"github.com/urfave/cli/v2"
)

// Flags read only through the viper configuration of a command are plain
// flags; their values are resolved by name.

var ScenarioFlag = &cli.StringFlag{
	Name:  "scenario",
	Usage: fmt.Sprintf("the generator profile, one of %v", gen.Scenarios()),
	Value: gen.DefaultScenario,
}

var SeedFlag = &cli.Uint64Flag{
	Name:    "seed",
	Aliases: []string{"s"},
	Usage:   "seed for the random number generator",
}

var RunsFlag = &cli.IntFlag{
	Name:  "runs",
	Usage: "number of generated sequences",
	Value: harness.DefaultRuns,
}

var LengthFlag = &cli.IntFlag{
	Name:  "length",
	Usage: "number of actions per generated sequence",
	Value: harness.DefaultLength,
}

var JobsFlag = &cli.IntFlag{
	Name:    "jobs",
	Aliases: []string{"j"},
	Usage:   "number of jobs run simultaneously",
	Value:   runtime.NumCPU(),
}

var TimeoutFlag = &cli.DurationFlag{
	Name:  "timeout",
	Usage: "time limit of a single module invocation, 0 disables the limit",
	Value: 10 * time.Second,
}

var BackendFlag = &cli.StringFlag{
	Name:  "backend",
	Usage: fmt.Sprintf("storage backend, one of %v", storage.Backends()),
	Value: storage.DefaultBackend,
}

var FallbackFlag = &cli.StringFlag{
	Name:  "fallback",
	Usage: "handling of addresses without predicate, default-predicate or reject",
	Value: ledger.FallbackDefaultPredicate.String(),
}

var VerboseFlag = &cli.BoolFlag{
	Name:    "verbose",
	Aliases: []string{"v"},
	Usage:   "trace all transactions and executed instructions",
}

type configFlagType struct {
	cli.StringFlag
}

var ConfigFlag = &configFlagType{
	cli.StringFlag{
		Name:      "config",
		Usage:     "configuration file providing defaults for all other flags",
		TakesFile: true,
	},
}

func (f *configFlagType) Fetch(context *cli.Context) string {
	return context.String(f.Name)
}

type outputFlagType struct {
	cli.StringFlag
}

var OutputFlag = &outputFlagType{
	cli.StringFlag{
		Name:      "output",
		Aliases:   []string{"o"},
		Usage:     "directory receiving diverging sequences, a temporary directory if empty",
		TakesFile: true,
	},
}

func (f *outputFlagType) Fetch(context *cli.Context) string {
	return context.String(f.Name)
}

var commonFlags = []cli.Flag{
	cpuProfileFlag,
}

var cpuProfileFlag = &cli.StringFlag{
	Name:  "cpuprofile",
	Usage: "store CPU profile in the provided filename",
}

func AddCommonFlags(command cli.Command) cli.Command {
	command.Flags = append(command.Flags, commonFlags...)

	action := command.Action
	command.Action = func(ctx *cli.Context) (err error) {

		if cpuprofileFilename := ctx.String(cpuProfileFlag.Name); cpuprofileFilename != "" {
			f, err := os.Create(cpuprofileFilename)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		return action(ctx)
	}
	return command
}
