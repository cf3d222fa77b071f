// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"fmt"
	"log"
	"sync"
)

// CompletionSignal delivers the host's completion notification at most once.
// Failures of the host call are logged and swallowed.
type CompletionSignal struct {
	mu     sync.Mutex
	signal func() error
	fired  bool
	err    error
}

// NewCompletionSignal wraps the host callback.
func NewCompletionSignal(signal func() error) *CompletionSignal {
	return &CompletionSignal{signal: signal}
}

// Fire invokes the host callback unless it already ran. It reports whether
// this call was the one that delivered the signal.
func (c *CompletionSignal) Fire() bool {
	c.mu.Lock()
	if c.fired {
		c.mu.Unlock()

		return false
	}

	c.fired = true
	c.mu.Unlock()

	err := c.invoke()
	if err != nil {
		log.Printf("Completion signal failed: %s", err)
	}

	c.mu.Lock()
	c.err = err
	c.mu.Unlock()

	return true
}

func (c *CompletionSignal) invoke() (err error) {
	if c.signal == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("completion signal panicked: %v", r)
		}
	}()

	return c.signal()
}

// Fired reports whether the signal was delivered.
func (c *CompletionSignal) Fired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fired
}

// Err returns the error the host returned, if any.
func (c *CompletionSignal) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.err
}
