// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package harness runs seeded state-machine tests of the ledger against the
// reference model and shrinks failing sequences.
package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Fantom-foundation/Veritas/go/ct/gen"
	"github.com/Fantom-foundation/Veritas/go/ct/st"
	"github.com/Fantom-foundation/Veritas/go/ledger"
	"github.com/Fantom-foundation/Veritas/go/storage"
	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"pgregory.net/rand"
)

type Config struct {
	Scenario string
	Seed     uint64
	Runs     int
	Length   int
	Jobs     int
	// Timeout limits every single module invocation; zero disables it.
	Timeout     time.Duration
	Backend     string
	Interpreter string
	Fallback    ledger.FallbackPolicy
	Logger      *logrus.Logger
	// ProgressInterval is the period of progress reports; zero selects a
	// default of 5 seconds.
	ProgressInterval time.Duration
	// Decorate, if set, wraps the interpreter used by the ledger. It allows
	// the injection of faults into the system under test.
	Decorate func(veritas.Interpreter) veritas.Interpreter
}

const (
	DefaultRuns   = 100
	DefaultLength = 50
)

func (c Config) withDefaults() Config {
	if c.Scenario == "" {
		c.Scenario = gen.DefaultScenario
	}
	if c.Runs <= 0 {
		c.Runs = DefaultRuns
	}
	if c.Length <= 0 {
		c.Length = DefaultLength
	}
	if c.Jobs <= 0 {
		c.Jobs = runtime.NumCPU()
	}
	if c.Backend == "" {
		c.Backend = storage.DefaultBackend
	}
	if c.Interpreter == "" {
		c.Interpreter = ledger.DefaultInterpreter
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = 5 * time.Second
	}
	return c
}

// Failure describes a diverging sequence.
type Failure struct {
	// Sequence is the shrunk sequence still exhibiting the divergence.
	Sequence *st.Sequence
	// Original is the generated sequence before shrinking.
	Original []st.Action
	// Err is the divergence observed for the shrunk sequence.
	Err error
}

// Report summarizes a harness run.
type Report struct {
	Runs    int64
	Actions int64
	// Failure is the divergence of the sequence with the lowest index, or
	// nil if all sequences passed.
	Failure *Failure
}

// GenerateSequence produces the sequence with the given index of a seeded
// run. The result depends on the scenario, the seed, the index, and the
// length only.
func GenerateSequence(scenario string, seed uint64, index uint64, length int) (*st.Sequence, error) {
	profile, err := gen.Scenario(scenario)
	if err != nil {
		return nil, err
	}
	return &st.Sequence{
		Scenario: scenario,
		Seed:     seed,
		Index:    index,
		Actions:  gen.New(profile, rand.New(seed, index)).Generate(length),
	}, nil
}

// Run generates and executes the configured number of sequences in
// parallel. The progress function, if not nil, is called periodically with
// the elapsed time, the recent rate of sequences per second, and the number
// of processed sequences. Divergences are reported through the result;
// the error is set for infrastructure failures only.
func Run(config Config, progress func(time.Duration, float64, int64)) (Report, error) {
	config = config.withDefaults()
	if _, err := gen.Scenario(config.Scenario); err != nil {
		return Report{}, err
	}
	executor, err := NewExecutor(config)
	if err != nil {
		return Report{}, err
	}
	log := config.Logger.WithFields(logrus.Fields{"scenario": config.Scenario, "seed": config.Seed})
	log.WithFields(logrus.Fields{"runs": config.Runs, "length": config.Length, "jobs": config.Jobs}).Info("starting runs")

	var runs, actions atomic.Int64
	stopProgress := startProgress(&runs, config.ProgressInterval, progress)

	var (
		mutex   sync.Mutex
		lowest  = config.Runs
		failure *Failure
	)
	skip := func(index int) bool {
		mutex.Lock()
		defer mutex.Unlock()
		return index > lowest
	}

	group, ctx := errgroup.WithContext(context.Background())
	group.SetLimit(config.Jobs)
	for i := 0; i < config.Runs; i++ {
		i := i
		if ctx.Err() != nil || skip(i) {
			break
		}
		group.Go(func() error {
			if ctx.Err() != nil || skip(i) {
				return nil
			}
			seq, err := GenerateSequence(config.Scenario, config.Seed, uint64(i), config.Length)
			if err != nil {
				return err
			}
			err = executor.Execute(seq.Actions)
			runs.Add(1)
			actions.Add(int64(len(seq.Actions)))
			if err == nil {
				return nil
			}
			if !isDivergence(err) {
				return fmt.Errorf("sequence %d: %w", i, err)
			}
			log.WithField("index", i).Warnf("found divergence: %v", err)

			mutex.Lock()
			superseded := i > lowest
			mutex.Unlock()
			if superseded {
				return nil
			}
			found := executor.shrink(seq, err)
			mutex.Lock()
			defer mutex.Unlock()
			if i < lowest {
				lowest, failure = i, found
			}
			return nil
		})
	}
	err = group.Wait()
	stopProgress()

	report := Report{Runs: runs.Load(), Actions: actions.Load(), Failure: failure}
	if err != nil {
		return report, err
	}
	log.WithFields(logrus.Fields{"runs": report.Runs, "failed": failure != nil}).Info("finished runs")
	return report, nil
}

// shrink minimizes the given diverging sequence.
func (e *Executor) shrink(seq *st.Sequence, err error) *Failure {
	var divergence *DivergenceError
	actions := seq.Actions
	if errors.As(err, &divergence) {
		actions = actions[:divergence.Step+1]
	}
	shrunk := Shrink(actions, func(candidate []st.Action) bool {
		return isDivergence(e.Execute(candidate))
	})
	res := seq.Clone()
	res.Actions = shrunk
	err = e.Execute(shrunk)
	if errors.As(err, &divergence) {
		res.Step = divergence.Step
	}
	return &Failure{
		Sequence: res,
		Original: st.CloneActions(seq.Actions),
		Err:      err,
	}
}

// startProgress periodically reports the progress of the given counter
// until the returned stop function is called.
func startProgress(counter *atomic.Int64, interval time.Duration, report func(time.Duration, float64, int64)) func() {
	if report == nil {
		return func() {}
	}
	done := make(chan bool)
	printerDone := make(chan bool)
	go func() {
		defer close(printerDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		startTime := time.Now()
		lastTime := startTime
		lastCounter := int64(0)

		checkTimingAndPrint := func(now time.Time) {
			cur := counter.Load()
			diffCounter := cur - lastCounter
			diffTime := now.Sub(lastTime)
			lastTime = now
			lastCounter = cur
			rate := 0.0
			if diffTime > 0 {
				rate = float64(diffCounter) / diffTime.Seconds()
			}
			report(now.Sub(startTime), rate, cur)
		}

		for {
			select {
			case <-done:
				checkTimingAndPrint(time.Now())
				return
			case now := <-ticker.C:
				checkTimingAndPrint(now)
			}
		}
	}()
	return func() {
		close(done)   // < signals progress printer to stop
		<-printerDone // < blocks until channel is closed by progress printer
	}
}
