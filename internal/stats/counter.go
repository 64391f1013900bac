// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package stats

import "sort"

// counter counts keys and remembers the order in which they were first seen,
// so rankings break ties deterministically.
type counter struct {
	index  map[string]int
	keys   []string
	counts []int
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

func (c *counter) add(key string) {
	if i, ok := c.index[key]; ok {
		c.counts[i]++
		return
	}
	c.index[key] = len(c.keys)
	c.keys = append(c.keys, key)
	c.counts = append(c.counts, 1)
}

func (c *counter) len() int {
	return len(c.keys)
}

type ranked struct {
	key   string
	count int
}

// top returns at most n entries by descending count; equal counts keep
// first-seen order. n <= 0 returns every entry.
func (c *counter) top(n int) []ranked {
	out := make([]ranked, len(c.keys))
	for i, k := range c.keys {
		out[i] = ranked{key: k, count: c.counts[i]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].count > out[j].count
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// each visits entries in first-seen order.
func (c *counter) each(fn func(key string, count int)) {
	for i, k := range c.keys {
		fn(k, c.counts[i])
	}
}
