// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package svm

import (
	"fmt"

	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/sirupsen/logrus"
)

// Registers the sandbox VM as a possible interpreter implementation.
func init() {
	configs := map[string]Config{
		// The default configuration to be used for production purposes.
		"svm": {},
		// Traces every instruction through logrus at trace level.
		"svm-logging": {runner: newLoggingRunner(nil)},
		// Decodes modules on every invocation.
		"svm-no-cache": {CacheConfig: CacheConfig{CacheSize: -1}},
	}
	for name, config := range configs {
		config := config
		veritas.MustRegisterInterpreterFactory(name, func(any) (veritas.Interpreter, error) {
			return NewVm(config)
		})
	}
}

type Config struct {
	CacheConfig
	runner runner
}

// NewLoggingConfig returns a configuration tracing all instructions to the
// given logger.
func NewLoggingConfig(log *logrus.Logger) Config {
	return Config{runner: newLoggingRunner(log)}
}

type svm struct {
	config Config
	cache  *moduleCache
}

func NewVm(config Config) (*svm, error) {
	cache, err := newModuleCache(config.CacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create module cache: %v", err)
	}
	return &svm{config: config, cache: cache}, nil
}

func (v *svm) Run(params veritas.Parameters) (veritas.Result, error) {
	if params.Meter == nil {
		return veritas.Result{}, fmt.Errorf("no gas meter provided")
	}
	module, err := v.cache.get(params.Code, params.CodeHash)
	if err != nil {
		if veritas.IsExecutionFailure(err) {
			return failed(err)
		}
		return veritas.Result{}, err
	}
	return run(v.config, params, module)
}
