// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

// Package loader fetches the scripts a map needs before it can be drawn.
package loader

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/jcodagnone/mapplaces/geocode"
	"github.com/jcodagnone/mapplaces/utils/httputils"
	"golang.org/x/sync/errgroup"
)

// MapsScriptURL builds the Google Maps JavaScript API URL for a language.
func MapsScriptURL(language, apiKey string) string {
	params := url.Values{}
	params.Set("key", apiKey)
	params.Set("libraries", "places")

	if language != "" {
		params.Set("language", language)
	}

	return "https://" + geocode.Domain(language) + "/maps/api/js?" + params.Encode()
}

type load struct {
	done chan struct{}
	err  error
}

// Loader loads every URL at most once. Callers asking for a URL that is
// still loading wait for that load instead of starting another one.
// A failed load is forgotten so a later call may try again.
type Loader struct {
	fetch func(ctx context.Context, url string) error

	mu     sync.Mutex
	loads  map[string]*load
	counts map[string]int
}

// New creates a Loader fetching with client, a default client when nil.
func New(client *http.Client) *Loader {
	if client == nil {
		client = httputils.NewClient(httputils.ClientOptions{})
	}

	return newLoader(func(ctx context.Context, u string) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		_, err = io.Copy(io.Discard, resp.Body)

		return err
	})
}

// Preloaded returns a Loader that treats every URL as already available.
func Preloaded() *Loader {
	return newLoader(func(context.Context, string) error { return nil })
}

func newLoader(fetch func(ctx context.Context, url string) error) *Loader {
	return &Loader{
		fetch:  fetch,
		loads:  make(map[string]*load),
		counts: make(map[string]int),
	}
}

// Load makes every URL available, then invokes callback once. The URLs load
// concurrently. If any of them fails callback is not invoked.
func (l *Loader) Load(ctx context.Context, urls []string, callback func()) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, u := range urls {
		g.Go(func() error {
			if err := l.loadOne(ctx, u); err != nil {
				return fmt.Errorf("loading %s: %w", httputils.RedactSecrets(u), err)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if callback != nil {
		callback()
	}

	return nil
}

func (l *Loader) loadOne(ctx context.Context, u string) error {
	l.mu.Lock()

	current, ok := l.loads[u]
	if !ok {
		current = &load{done: make(chan struct{})}
		l.loads[u] = current
		l.counts[u]++
		l.mu.Unlock()

		current.err = l.fetch(ctx, u)
		if current.err != nil {
			log.Printf("Failed to load %s: %v", httputils.RedactSecrets(u), current.err)

			l.mu.Lock()
			delete(l.loads, u)
			l.mu.Unlock()
		}

		close(current.done)

		return current.err
	}

	l.mu.Unlock()

	select {
	case <-current.done:
		return current.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Loaded reports whether u finished loading successfully.
func (l *Loader) Loaded(u string) bool {
	l.mu.Lock()
	current, ok := l.loads[u]
	l.mu.Unlock()

	if !ok {
		return false
	}

	select {
	case <-current.done:
		return current.err == nil
	default:
		return false
	}
}

// Fetches returns how many times u was fetched.
func (l *Loader) Fetches(u string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.counts[u]
}
