// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log"
	"sync"
)

// recordingHost keeps what a component reported so API clients can read it.
type recordingHost struct {
	mu          sync.Mutex
	id          string
	alerts      []string
	completions int
	ready       bool
}

func (h *recordingHost) SetCompletionStatus() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.completions++
	log.Printf("Component %s completed", h.id)

	return nil
}

func (h *recordingHost) SetReadyStatus() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ready = true
}

func (h *recordingHost) Alert(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log.Printf("Alert: %s", message)
	h.alerts = append(h.alerts, message)
}

func (h *recordingHost) Alerts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string{}, h.alerts...)
}

func (h *recordingHost) Completions() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.completions
}
