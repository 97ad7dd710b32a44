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
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/holiman/uint256"
	"go.uber.org/mock/gomock"
)

var testKey = veritas.BalanceKey(veritas.Address{1})

// storeKey appends instructions placing the test key at memory offset 0.
func storeKey(a *Assembler) *Assembler {
	return a.StoreBytes(0, []byte(testKey))
}

func returnWord(a *Assembler) *Assembler {
	return a.Push(0x100).Op(MSTORE).Push(32).Push(0x100).Op(RETURN)
}

func TestHostInstructions_ReadCopiesValueAndPushesFlags(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := veritas.NewMockHost(ctrl)
	host.EXPECT().Read(veritas.PreView, testKey).Return(veritas.Value{0xab, 0xcd}, true, nil)

	a := NewAssembler().Entry("tx")
	storeKey(a).
		Push(0x40).Push(uint64(len(testKey))).Push(0).Push(uint64(veritas.PreView)).Op(READ).
		// stack: [size, found]
		Push(0x200).Op(MSTORE). // found -> 0x200
		Push(0x220).Op(MSTORE). // size -> 0x220
		Push(0x240).Push(0).Op(RETURN)
	res, _ := runModule(t, a.MustBuild(), 10_000, host)
	if !res.Success {
		t.Fatalf("execution failed: %v", res.Failure)
	}
	// The value was copied to 0x40, which is not part of the output; check flags.
	found := new(uint256.Int).SetBytes(res.Output[0x200:0x220])
	size := new(uint256.Int).SetBytes(res.Output[0x220:0x240])
	if !found.Eq(uint256.NewInt(1)) || !size.Eq(uint256.NewInt(2)) {
		t.Errorf("unexpected flags, found=%v, size=%v", found, size)
	}
	if !bytes.Equal(res.Output[0x40:0x42], []byte{0xab, 0xcd}) {
		t.Errorf("value not copied to memory, got %x", res.Output[0x40:0x42])
	}
}

func TestHostInstructions_ReadChargesKeyAndValueBytes(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := veritas.NewMockHost(ctrl)
	value := make(veritas.Value, 64)
	host.EXPECT().Read(veritas.CurrentView, testKey).Return(value, true, nil)

	a := NewAssembler().Entry("tx")
	storeKey(a)
	code := a.Push(0x40).Push(uint64(len(testKey))).Push(0).Push(0).Op(READ, STOP).MustBuild()

	res, meter := runModule(t, code, 100_000, host)
	if !res.Success {
		t.Fatalf("execution failed: %v", res.Failure)
	}
	withValue := meter.Consumed()

	// The same run with an absent value isolates the value dependent costs.
	host.EXPECT().Read(veritas.CurrentView, testKey).Return(nil, false, nil)
	_, meter = runModule(t, code, 100_000, host)
	withoutValue := meter.Consumed()

	// 64 bytes charged per byte plus memory expansion from one to four words.
	if want, got := 64*HostByteGas+9, withValue-withoutValue; want != got {
		t.Errorf("unexpected value cost, want %d, got %d", want, got)
	}
}

func TestHostInstructions_InvalidKeysTrap(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := veritas.NewMockHost(ctrl)
	code := NewAssembler().Entry("tx").
		Push(3).Push(0).Op(DELETE).
		MustBuild()
	res, _ := runModule(t, code, 10_000, host)
	if !veritas.IsTrap(res.Failure) {
		t.Errorf("expected trap, got %v", res.Failure)
	}
}

func TestHostInstructions_InvalidViewTraps(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := veritas.NewMockHost(ctrl)
	a := NewAssembler().Entry("tx")
	storeKey(a)
	code := a.Push(uint64(len(testKey))).Push(0).Push(7).Op(HAS).MustBuild()
	res, _ := runModule(t, code, 10_000, host)
	if !errors.Is(res.Failure, errInvalidView) {
		t.Errorf("unexpected failure, want %v, got %v", errInvalidView, res.Failure)
	}
}

func TestHostInstructions_WriteForwardsKeyAndValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := veritas.NewMockHost(ctrl)
	host.EXPECT().Write(testKey, veritas.Value{7, 8})

	a := NewAssembler().Entry("tx")
	storeKey(a).StoreBytes(0x40, []byte{7, 8})
	code := a.Push(2).Push(0x40).Push(uint64(len(testKey))).Push(0).Op(WRITE, STOP).MustBuild()
	res, _ := runModule(t, code, 10_000, host)
	if !res.Success {
		t.Fatalf("execution failed: %v", res.Failure)
	}
}

func TestHostInstructions_WriteTrapsAreReportedAsFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := veritas.NewMockHost(ctrl)
	readOnly := veritas.Trap("read-only")
	host.EXPECT().Write(testKey, gomock.Any()).Return(readOnly)

	a := NewAssembler().Entry("tx")
	storeKey(a)
	code := a.Push(0).Push(0x40).Push(uint64(len(testKey))).Push(0).Op(WRITE).MustBuild()
	res, _ := runModule(t, code, 10_000, host)
	if !errors.Is(res.Failure, readOnly) {
		t.Errorf("unexpected failure, want %v, got %v", readOnly, res.Failure)
	}
}

func TestHostInstructions_IterateEncodesEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := veritas.NewMockHost(ctrl)
	prefix := veritas.AddressPrefix(veritas.Address{1})
	k1 := veritas.NewKey(veritas.Address{1}, "a")
	k2 := veritas.NewKey(veritas.Address{1}, "b")
	host.EXPECT().IteratePrefix(veritas.CurrentView, prefix, gomock.Any()).DoAndReturn(
		func(_ veritas.View, _ veritas.Key, visit func(veritas.Key, veritas.Value) bool) error {
			if visit(k1, veritas.Value{1}) {
				visit(k2, veritas.Value{2, 2})
			}
			return nil
		})

	a := NewAssembler().Entry("tx").StoreBytes(0, []byte(prefix))
	code := a.Push(0x100).Push(uint64(len(prefix))).Push(0).Push(0).Op(ITERATE).
		// stack: [size, count]
		Push(0x20).Op(MSTORE). // count -> 0x20
		Op(POP).
		Push(0x200).Push(0).Op(RETURN).
		MustBuild()
	res, _ := runModule(t, code, 100_000, host)
	if !res.Success {
		t.Fatalf("execution failed: %v", res.Failure)
	}
	if got := new(uint256.Int).SetBytes(res.Output[0x20:0x40]); !got.Eq(uint256.NewInt(2)) {
		t.Errorf("unexpected entry count, want 2, got %v", got)
	}
	var want []byte
	want = binary.BigEndian.AppendUint32(want, uint32(len(k1)))
	want = append(want, k1...)
	want = binary.BigEndian.AppendUint32(want, 1)
	want = append(want, 1)
	want = binary.BigEndian.AppendUint32(want, uint32(len(k2)))
	want = append(want, k2...)
	want = binary.BigEndian.AppendUint32(want, 2)
	want = append(want, 2, 2)
	if got := res.Output[0x100 : 0x100+len(want)]; !bytes.Equal(want, got) {
		t.Errorf("unexpected entries, want %x, got %x", want, got)
	}
}

func TestHostInstructions_AuthorizedAndChanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := veritas.NewMockHost(ctrl)
	host.EXPECT().IsAuthorized(veritas.Address{0xaa}).Return(true, nil)
	host.EXPECT().Changed(testKey).Return(3, nil)

	a := NewAssembler().Entry("tx")
	storeKey(a).
		Push(uint64(len(testKey))).Push(0).Op(CHANGED).
		Push(0x100).Op(SELF).
		Push(0x100).Op(AUTHORIZED, ADD)
	res, _ := runModule(t, returnWord(a).MustBuild(), 10_000, host)
	if !res.Success {
		t.Fatalf("execution failed: %v", res.Failure)
	}
	if got := new(uint256.Int).SetBytes(res.Output); !got.Eq(uint256.NewInt(4)) {
		t.Errorf("unexpected result, want 4, got %v", got)
	}
}

func TestHostInstructions_EmitForwardsPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := veritas.NewMockHost(ctrl)
	host.EXPECT().EmitEvent(veritas.Data("hello"))

	code := NewAssembler().Entry("tx").
		StoreBytes(0, []byte("hello")).
		Push(5).Push(0).Op(EMIT, STOP).
		MustBuild()
	res, meter := runModule(t, code, 10_000, host)
	if !res.Success {
		t.Fatalf("execution failed: %v", res.Failure)
	}
	if meter.Consumed() < 5*EventByteGas+staticGasPrices[EMIT] {
		t.Errorf("emitted bytes were not charged, consumed %d", meter.Consumed())
	}
}
