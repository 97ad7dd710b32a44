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
	"strings"

	cliUtils "github.com/Fantom-foundation/Veritas/go/ct/driver/cli"
	"github.com/Fantom-foundation/Veritas/go/ct/harness"
	"github.com/Fantom-foundation/Veritas/go/ledger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

// Configuration values are resolved in the following order: flags set on
// the command line, VERITAS_* environment variables, the configuration
// file, and the defaults of the flags.
func getViper(context *cli.Context) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("veritas")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := cliUtils.ConfigFlag.Fetch(context); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	for _, flag := range context.Command.Flags {
		name := flag.Names()[0]
		if name == cliUtils.ConfigFlag.Name {
			continue
		}
		if context.IsSet(name) {
			v.Set(name, context.Value(name))
		} else {
			v.SetDefault(name, context.Value(name))
		}
	}
	return v, nil
}

// loadConfig assembles the harness configuration of the current command.
func loadConfig(context *cli.Context) (harness.Config, error) {
	v, err := getViper(context)
	if err != nil {
		return harness.Config{}, err
	}
	fallback, err := ledger.ParseFallbackPolicy(v.GetString(cliUtils.FallbackFlag.Name))
	if err != nil {
		return harness.Config{}, err
	}

	log := logrus.StandardLogger()
	interpreter := ledger.DefaultInterpreter
	if v.GetBool(cliUtils.VerboseFlag.Name) {
		log.SetLevel(logrus.TraceLevel)
		interpreter = "svm-logging"
	}

	return harness.Config{
		Scenario:    v.GetString(cliUtils.ScenarioFlag.Name),
		Seed:        v.GetUint64(cliUtils.SeedFlag.Name),
		Runs:        v.GetInt(cliUtils.RunsFlag.Name),
		Length:      v.GetInt(cliUtils.LengthFlag.Name),
		Jobs:        v.GetInt(cliUtils.JobsFlag.Name),
		Timeout:     v.GetDuration(cliUtils.TimeoutFlag.Name),
		Backend:     v.GetString(cliUtils.BackendFlag.Name),
		Interpreter: interpreter,
		Fallback:    fallback,
		Logger:      log,
	}, nil
}
