// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package selector

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Cache memoizes classifier selections per request digest for the lifetime
// of the process. The lock guards only the map access, never a model call, so
// two concurrent requests with the same digest may both invoke the classifier.
// That is acceptable: classification is idempotent and a duplicate call is a
// cost concern, not a correctness one.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Selection
}

// NewCache creates an empty selection cache. One cache is created per process
// and owned by the hybrid selector; there is no package-level singleton.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Selection)}
}

// Digest returns the cache key for a request text: the hex sha256 of the
// exact text. Case and whitespace variants are distinct entries.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached selection for a digest, if present.
func (c *Cache) Get(digest string) (Selection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel, ok := c.entries[digest]
	return sel, ok
}

// Put stores a selection under a digest, replacing any previous entry.
func (c *Cache) Put(digest string, sel Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[digest] = sel
}

// Len returns the number of cached selections.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
