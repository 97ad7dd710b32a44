// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package gen generates random, precondition-respecting action sequences.
package gen

import (
	"fmt"
	"sort"

	"github.com/Fantom-foundation/Veritas/go/ct/model"
	"github.com/Fantom-foundation/Veritas/go/ct/st"
	"github.com/Fantom-foundation/Veritas/go/veritas"
	"golang.org/x/exp/maps"
	"pgregory.net/rand"
)

// Profile weights the choices of the generator. Weights are relative; a
// weight of zero disables the respective choice.
type Profile struct {
	InitAccount  int
	Fund         int
	Submit       int
	AdvanceEpoch int

	Programs map[st.Program]int

	// Probabilities, in percent, of tweaking generated transactions.
	UnsignedPercent int
	ForgedPercent   int
	StrangerPercent int // a signer other than the sender
	LowGasPercent   int // a gas limit below model.AmpleGas

	MaxFunding uint64
}

var scenarios = map[string]Profile{
	"mixed": {
		InitAccount: 2, Fund: 3, Submit: 8, AdvanceEpoch: 1,
		Programs: map[st.Program]int{
			st.Transfer: 8, st.Sweep: 3, st.Revert: 1, st.Burn: 1, st.ProtocolWrite: 1,
		},
		UnsignedPercent: 15, ForgedPercent: 10, StrangerPercent: 10, LowGasPercent: 15,
		MaxFunding: 1000,
	},
	"transfers": {
		InitAccount: 2, Fund: 3, Submit: 10,
		Programs: map[st.Program]int{
			st.Transfer: 4, st.Sweep: 1,
		},
		UnsignedPercent: 10, ForgedPercent: 5, StrangerPercent: 5,
		MaxFunding: 1000,
	},
	"gas": {
		InitAccount: 1, Fund: 2, Submit: 10,
		Programs: map[st.Program]int{
			st.Transfer: 4, st.Sweep: 2, st.Burn: 2, st.Revert: 1,
		},
		UnsignedPercent: 5, LowGasPercent: 70,
		MaxFunding: 1000,
	},
	"faults": {
		InitAccount: 1, Fund: 1, Submit: 10, AdvanceEpoch: 1,
		Programs: map[st.Program]int{
			st.Transfer: 2, st.Revert: 3, st.Burn: 2, st.ProtocolWrite: 3,
		},
		UnsignedPercent: 30, ForgedPercent: 30, StrangerPercent: 20, LowGasPercent: 20,
		MaxFunding: 100,
	},
}

// DefaultScenario is the scenario used if none is selected.
const DefaultScenario = "mixed"

// Scenario returns the generator profile of the named scenario.
func Scenario(name string) (Profile, error) {
	profile, found := scenarios[name]
	if !found {
		return Profile{}, fmt.Errorf("unknown scenario %q, use one of %v", name, Scenarios())
	}
	return profile, nil
}

// Scenarios lists the names of all scenarios.
func Scenarios() []string {
	res := maps.Keys(scenarios)
	sort.Strings(res)
	return res
}

// Generator produces action sequences. Its output is fully determined by
// the profile and the state of the random source.
type Generator struct {
	profile Profile
	rnd     *rand.Rand
}

func New(profile Profile, rnd *rand.Rand) *Generator {
	return &Generator{profile: profile, rnd: rnd}
}

// Generate creates a sequence of the given length in which every action
// satisfies its preconditions.
func (g *Generator) Generate(length int) []st.Action {
	initialized := map[veritas.Address]bool{}
	res := make([]st.Action, 0, length)
	for len(res) < length {
		var uninitialized, known []veritas.Address
		for _, addr := range st.Accounts {
			if initialized[addr] {
				known = append(known, addr)
			} else {
				uninitialized = append(uninitialized, addr)
			}
		}

		weights := map[st.ActionKind]int{
			st.Submit:       g.profile.Submit,
			st.AdvanceEpoch: g.profile.AdvanceEpoch,
		}
		if len(uninitialized) > 0 {
			weights[st.InitAccount] = g.profile.InitAccount
		}
		if len(known) > 0 {
			weights[st.Fund] = g.profile.Fund
		}

		switch pick(g.rnd, weights) {
		case st.InitAccount:
			addr := choose(g.rnd, uninitialized)
			initialized[addr] = true
			res = append(res, st.Action{Kind: st.InitAccount, Account: addr})
		case st.Fund:
			res = append(res, st.Action{
				Kind:    st.Fund,
				Account: choose(g.rnd, known),
				Amount:  1 + g.rnd.Uint64n(g.profile.MaxFunding),
			})
		case st.Submit:
			tx := g.transaction(known)
			res = append(res, st.Action{Kind: st.Submit, Tx: &tx})
		case st.AdvanceEpoch:
			res = append(res, st.Action{Kind: st.AdvanceEpoch})
		}
	}
	return res
}

func (g *Generator) transaction(known []veritas.Address) st.TxSpec {
	res := st.TxSpec{
		Program:  pick(g.rnd, g.profile.Programs),
		GasLimit: 2 * model.AmpleGas,
	}

	// Senders are mostly initialized accounts.
	if len(known) > 0 && g.rnd.Intn(10) > 0 {
		res.From = choose(g.rnd, known)
	} else {
		res.From = choose(g.rnd, st.Accounts)
	}
	res.To = choose(g.rnd, st.Accounts)
	if res.To == res.From && g.rnd.Intn(10) > 0 {
		res.To = st.Accounts[(indexOf(res.From)+1)%len(st.Accounts)]
	}
	if g.profile.MaxFunding > 0 {
		res.Amount = g.rnd.Uint64n(g.profile.MaxFunding / 2)
	}

	if !g.percent(g.profile.UnsignedPercent) {
		res.Signers = append(res.Signers, res.From)
	}
	if g.percent(g.profile.StrangerPercent) {
		res.Signers = append(res.Signers, choose(g.rnd, st.Accounts))
	}
	res.Forged = len(res.Signers) > 0 && g.percent(g.profile.ForgedPercent)

	if g.percent(g.profile.LowGasPercent) {
		res.GasLimit = veritas.Gas(g.rnd.Uint64n(uint64(model.AmpleGas / 5)))
	}
	return res
}

func (g *Generator) percent(p int) bool {
	return p > 0 && g.rnd.Intn(100) < p
}

func indexOf(addr veritas.Address) int {
	for i, cur := range st.Accounts {
		if cur == addr {
			return i
		}
	}
	return 0
}

func choose[T any](rnd *rand.Rand, options []T) T {
	return options[rnd.Intn(len(options))]
}

// pick selects a key with a probability proportional to its weight. Keys
// are visited in sorted order to keep the choice deterministic.
func pick[K ~byte](rnd *rand.Rand, weights map[K]int) K {
	keys := maps.Keys(weights)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	total := 0
	for _, key := range keys {
		total += weights[key]
	}
	if total <= 0 {
		return keys[0]
	}
	r := rnd.Intn(total)
	for _, key := range keys {
		r -= weights[key]
		if r < 0 {
			return key
		}
	}
	return keys[len(keys)-1]
}
