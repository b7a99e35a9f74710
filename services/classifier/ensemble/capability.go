// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ensemble

import "sync"

var (
	defaultMu         sync.RWMutex
	defaultCapability Capability = NewBooster(DefaultParams())
)

// Default returns the process-wide boosting capability. Nil means no
// capability is available and training must abort.
func Default() Capability {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultCapability
}

// SetDefault replaces the process-wide boosting capability. Passing
// nil marks the capability unavailable; intended for deployments that
// swap in an accelerated implementation, and for tests.
func SetDefault(capability Capability) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultCapability = capability
}
