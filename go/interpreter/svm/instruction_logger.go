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
	"github.com/sirupsen/logrus"
)

// loggingRunner is a runner that traces the execution of every instruction
// through the given logger at trace level. If no logger is provided, the
// standard logger of logrus is used.
type loggingRunner struct {
	log *logrus.Logger
}

func newLoggingRunner(log *logrus.Logger) loggingRunner {
	return loggingRunner{log: log}
}

func (l loggingRunner) run(c *context) (status, error) {
	log := l.log
	if log == nil {
		log = logrus.StandardLogger()
	}
	entry := log.WithFields(logrus.Fields{
		"kind": c.params.Kind,
		"self": c.params.Self,
	})
	status := statusRunning
	var err error
	for status == statusRunning {
		if c.pc < len(c.code) && log.IsLevelEnabled(logrus.TraceLevel) {
			top := "-empty-"
			if c.stack.len() > 0 {
				top = c.stack.peek().Hex()
			}
			entry.WithFields(logrus.Fields{
				"pc":  c.pc,
				"op":  OpCode(c.code[c.pc]),
				"gas": c.meter.Remaining(),
				"top": top,
			}).Trace("step")
		}
		status, err = steps(c, true)
		if err != nil {
			entry.WithError(err).Trace("failed")
			return status, err
		}
	}
	return status, nil
}
