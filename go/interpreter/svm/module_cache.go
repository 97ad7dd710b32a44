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
	"github.com/Fantom-foundation/Veritas/go/veritas"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheConfig contains the configuration options of the module cache.
type CacheConfig struct {
	// CacheSize is the maximum number of decoded modules retained. If set to 0,
	// a default size is used. If negative, no cache is used.
	CacheSize int
}

const defaultCacheSize = 1 << 12

// moduleCache decodes modules and retains the results by content id, since
// the same predicates are evaluated for almost every transaction.
type moduleCache struct {
	cache *lru.Cache[veritas.ContentID, *Module]
}

func newModuleCache(config CacheConfig) (*moduleCache, error) {
	if config.CacheSize == 0 {
		config.CacheSize = defaultCacheSize
	}
	if config.CacheSize < 0 {
		return &moduleCache{}, nil
	}
	cache, err := lru.New[veritas.ContentID, *Module](config.CacheSize)
	if err != nil {
		return nil, err
	}
	return &moduleCache{cache: cache}, nil
}

// get decodes the given module. If the provided content id is not nil, it is
// assumed to be the valid id of the code and is used to cache the result.
// Decoding failures are not cached.
func (c *moduleCache) get(code veritas.Code, id *veritas.ContentID) (*Module, error) {
	if c.cache == nil || id == nil {
		return DecodeModule(code)
	}
	if res, found := c.cache.Get(*id); found {
		return res, nil
	}
	res, err := DecodeModule(code)
	if err != nil {
		return nil, err
	}
	c.cache.Add(*id, res)
	return res, nil
}
