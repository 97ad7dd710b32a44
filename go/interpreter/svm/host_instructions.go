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
	"encoding/binary"

	"github.com/Fantom-foundation/Veritas/go/veritas"
	"github.com/holiman/uint256"
)

// Host instructions take their operands in the order listed in the comment
// of each instruction, starting with the top of the stack. Keys, values,
// and prefixes are passed as memory ranges.

var errNoHost = veritas.Trap("no host available")

func toView(v *uint256.Int) (veritas.View, error) {
	if !v.IsUint64() || v.Uint64() > uint64(veritas.PreView) {
		return 0, errInvalidView
	}
	return veritas.View(v.Uint64()), nil
}

// loadBytes charges the given price per byte of the memory range and
// returns a copy of its content.
func loadBytes(c *context, offset, size *uint256.Int, pricePerByte veritas.Gas) ([]byte, error) {
	off, length, err := toMemoryRange(offset, size)
	if err != nil {
		return nil, err
	}
	if err := c.useGas(pricePerByte * veritas.Gas(length)); err != nil {
		return nil, err
	}
	return c.memory.getCopy(off, length, c)
}

func loadKey(c *context, offset, size *uint256.Int, pricePerByte veritas.Gas) (veritas.Key, error) {
	data, err := loadBytes(c, offset, size, pricePerByte)
	if err != nil {
		return "", err
	}
	key := veritas.Key(data)
	if err := key.Validate(); err != nil {
		return "", veritas.Trap("invalid key: " + err.Error())
	}
	return key, nil
}

func getHost(c *context) (veritas.Host, error) {
	if c.params.Host == nil {
		return nil, errNoHost
	}
	return c.params.Host, nil
}

// opRead: view, key offset, key size, destination offset.
// Copies the value into memory and pushes its size and a found flag; the
// found flag ends up on top.
func opRead(c *context) error {
	host, err := getHost(c)
	if err != nil {
		return err
	}
	view, err := toView(c.stack.pop())
	if err != nil {
		return err
	}
	key, err := loadKey(c, c.stack.pop(), c.stack.pop(), HostByteGas)
	if err != nil {
		return err
	}
	destination, err := toMemoryOffset(c.stack.pop())
	if err != nil {
		return err
	}
	value, found, err := host.Read(view, key)
	if err != nil {
		return err
	}
	if err := c.useGas(HostByteGas * veritas.Gas(len(value))); err != nil {
		return err
	}
	if err := c.memory.set(destination, value, c); err != nil {
		return err
	}
	c.stack.pushUndefined().SetUint64(uint64(len(value)))
	setBool(c.stack.pushUndefined(), found)
	return nil
}

// opHas: view, key offset, key size.
func opHas(c *context) error {
	host, err := getHost(c)
	if err != nil {
		return err
	}
	view, err := toView(c.stack.pop())
	if err != nil {
		return err
	}
	key, err := loadKey(c, c.stack.pop(), c.stack.pop(), HostByteGas)
	if err != nil {
		return err
	}
	found, err := host.Has(view, key)
	if err != nil {
		return err
	}
	setBool(c.stack.pushUndefined(), found)
	return nil
}

// opWrite: key offset, key size, value offset, value size.
func opWrite(c *context) error {
	host, err := getHost(c)
	if err != nil {
		return err
	}
	key, err := loadKey(c, c.stack.pop(), c.stack.pop(), WriteByteGas)
	if err != nil {
		return err
	}
	value, err := loadBytes(c, c.stack.pop(), c.stack.pop(), WriteByteGas)
	if err != nil {
		return err
	}
	return host.Write(key, value)
}

// opDelete: key offset, key size.
func opDelete(c *context) error {
	host, err := getHost(c)
	if err != nil {
		return err
	}
	key, err := loadKey(c, c.stack.pop(), c.stack.pop(), HostByteGas)
	if err != nil {
		return err
	}
	return host.Delete(key)
}

// opIterate: view, prefix offset, prefix size, destination offset.
// Writes all entries with the given prefix to memory, each encoded as a
// 4-byte key length, the key, a 4-byte value length, and the value. Pushes
// the number of bytes written and the number of entries; the number of
// entries ends up on top.
func opIterate(c *context) error {
	host, err := getHost(c)
	if err != nil {
		return err
	}
	view, err := toView(c.stack.pop())
	if err != nil {
		return err
	}
	prefix, err := loadBytes(c, c.stack.pop(), c.stack.pop(), HostByteGas)
	if err != nil {
		return err
	}
	destination, err := toMemoryOffset(c.stack.pop())
	if err != nil {
		return err
	}

	var visitErr error
	written := uint64(0)
	count := uint64(0)
	err = host.IteratePrefix(view, veritas.Key(prefix), func(key veritas.Key, value veritas.Value) bool {
		entrySize := 8 + len(key) + len(value)
		if visitErr = c.useGas(IterateEntryGas + HostByteGas*veritas.Gas(len(key)+len(value))); visitErr != nil {
			return false
		}
		entry := make([]byte, 0, entrySize)
		entry = binary.BigEndian.AppendUint32(entry, uint32(len(key)))
		entry = append(entry, key...)
		entry = binary.BigEndian.AppendUint32(entry, uint32(len(value)))
		entry = append(entry, value...)
		if visitErr = c.memory.set(destination+written, entry, c); visitErr != nil {
			return false
		}
		written += uint64(entrySize)
		count++
		return true
	})
	if visitErr != nil {
		return visitErr
	}
	if err != nil {
		return err
	}
	c.stack.pushUndefined().SetUint64(written)
	c.stack.pushUndefined().SetUint64(count)
	return nil
}

// opEmit: payload offset, payload size.
func opEmit(c *context) error {
	host, err := getHost(c)
	if err != nil {
		return err
	}
	payload, err := loadBytes(c, c.stack.pop(), c.stack.pop(), EventByteGas)
	if err != nil {
		return err
	}
	return host.EmitEvent(payload)
}

// opAuthorized: address offset.
// Pushes whether the transaction carries a valid authorization of the
// 20-byte address stored at the given offset.
func opAuthorized(c *context) error {
	host, err := getHost(c)
	if err != nil {
		return err
	}
	top := c.stack.peek()
	offset, err := toMemoryOffset(top)
	if err != nil {
		return err
	}
	data, err := c.memory.getSlice(offset, uint64(len(veritas.Address{})), c)
	if err != nil {
		return err
	}
	var addr veritas.Address
	copy(addr[:], data)
	authorized, err := host.IsAuthorized(addr)
	if err != nil {
		return err
	}
	setBool(top, authorized)
	return nil
}

// opChanged: prefix offset, prefix size.
// Pushes the number of keys with the given prefix written by the current
// transaction.
func opChanged(c *context) error {
	host, err := getHost(c)
	if err != nil {
		return err
	}
	prefix, err := loadBytes(c, c.stack.pop(), c.stack.pop(), HostByteGas)
	if err != nil {
		return err
	}
	changed, err := host.Changed(veritas.Key(prefix))
	if err != nil {
		return err
	}
	c.stack.pushUndefined().SetUint64(uint64(changed))
	return nil
}
