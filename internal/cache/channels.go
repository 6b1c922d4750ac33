// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2025 epicsgo authors
//
// SPDX-License-Identifier: Apache-2.0

// Package cache keeps resolved channel handles so repeated operations on
// the same process variable skip name resolution.
package cache

import (
	"sync"

	"github.com/epicsgo/caclient/pkg/models"
)

var (
	initOnce sync.Once
	cc       *ChannelCache
)

// ChannelCache maps PV names to their resolved channel handles.
type ChannelCache struct {
	mu       sync.RWMutex
	channels map[string]models.Channel
}

// InitCache sets up the singleton channel cache.
func InitCache() {
	initOnce.Do(func() {
		cc = &ChannelCache{channels: make(map[string]models.Channel)}
	})
}

// Channels returns the singleton channel cache. InitCache must have been
// called first.
func Channels() *ChannelCache {
	if cc == nil {
		InitCache()
	}
	return cc
}

// ForName looks up a cached channel by PV name.
func (c *ChannelCache) ForName(name string) (models.Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.channels[name]
	return ch, ok
}

// Add stores a resolved channel, replacing any previous handle for the
// same name.
func (c *ChannelCache) Add(ch models.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[ch.Name()] = ch
}

// Remove drops a channel by PV name.
func (c *ChannelCache) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.channels, name)
}

// All snapshots the cached channels.
func (c *ChannelCache) All() []models.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	chs := make([]models.Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		chs = append(chs, ch)
	}
	return chs
}

// Len reports the number of cached channels.
func (c *ChannelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.channels)
}
