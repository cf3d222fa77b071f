// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/mapplaces/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (*sql.DB, CacheRepository) {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	repo := NewCacheRepository(db)
	if err := repo.CreateSchema(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db, repo
}

var montevideo = []Result{
	{
		Location:         spatial.Point{Lat: -34.9011, Lng: -56.1645},
		FormattedAddress: "Montevideo, Uruguay",
		LocationType:     "APPROXIMATE",
		PlaceID:          "p-mvd",
	},
	{
		Location:         spatial.Point{Lat: 44.9453, Lng: -95.7231},
		FormattedAddress: "Montevideo, MN, USA",
		LocationType:     "APPROXIMATE",
		PlaceID:          "p-mn",
	},
}

func TestCacheStoreAndLookup(t *testing.T) {
	db, repo := setupTestCache(t)

	_, found, err := repo.Lookup("montevideo", "en")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Store("montevideo", "en", "Montevideo", montevideo))

	got, found, err := repo.Lookup("montevideo", "en")
	require.NoError(t, err)
	assert.True(t, found)

	if diff := cmp.Diff(montevideo, got); diff != "" {
		t.Errorf("Lookup() mismatch (-want +got):\n%s", diff)
	}

	_, found, err = repo.Lookup("montevideo", "es")
	require.NoError(t, err)
	assert.False(t, found, "entries are scoped by language")

	// Storing again replaces the previous rows.
	require.NoError(t, repo.Store("montevideo", "en", "Montevideo", montevideo[:1]))

	got, _, err = repo.Lookup("montevideo", "en")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	var missingCells int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM geocode_cache WHERE h3_res5 IS NULL OR h3_res9 IS NULL`).Scan(&missingCells))
	assert.Zero(t, missingCells)

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, CacheStats{Rows: 1, Addresses: 1, Regions: 1}, stats)
}

func TestCachedGeocoder(t *testing.T) {
	_, repo := setupTestCache(t)

	calls := 0
	inner := GeocoderFunc(func(_ context.Context, address string) ([]Result, error) {
		calls++

		if address == "Atlantis" {
			return nil, ClassifyStatus(StatusZeroResults, "")
		}

		return montevideo, nil
	})

	g := NewCachedGeocoder(inner, repo, "en")
	ctx := context.Background()

	first, err := g.Geocode(ctx, "Montevideo")
	require.NoError(t, err)

	second, err := g.Geocode(ctx, "  MONTEVIDEO ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(1), g.Hits())
	assert.Equal(t, int64(1), g.Misses())

	for range 2 {
		_, err = g.Geocode(ctx, "Atlantis")
		assert.True(t, IsNotFoundError(err))
	}

	assert.Equal(t, 3, calls, "failures are not cached")
}
