// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/jcodagnone/mapplaces/spatial"
	"github.com/jcodagnone/mapplaces/utils/textutils"
	"github.com/uber/h3-go/v4"
)

// H3 resolutions stored next to every cached result.
var cacheResolutions = [...]int{5, 7, 9}

// CacheStats summarizes the content of the geocode cache.
type CacheStats struct {
	Rows      int `json:"rows"`
	Addresses int `json:"addresses"`
	// Regions counts distinct H3 cells at resolution 5
	Regions int `json:"regions"`
}

// CacheRepository persists successful lookups.
type CacheRepository interface {
	// CreateSchema creates the database schema.
	CreateSchema() error
	// Lookup returns the results stored for key in the given language.
	Lookup(key, language string) ([]Result, bool, error)
	// Store replaces the results stored for key in the given language.
	Store(key, language, address string, results []Result) error
	// Stats summarizes the cache.
	Stats() (CacheStats, error)
}

type sqlCacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a CacheRepository backed by db.
func NewCacheRepository(db *sql.DB) CacheRepository {
	return &sqlCacheRepository{db: db}
}

func (r *sqlCacheRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS geocode_cache_seq START 1;

		CREATE TABLE IF NOT EXISTS geocode_cache (
			id INTEGER PRIMARY KEY DEFAULT nextval('geocode_cache_seq'),
			cache_key VARCHAR NOT NULL,
			language VARCHAR NOT NULL,
			address VARCHAR NOT NULL,
			ordinal INTEGER NOT NULL,
			formatted_address VARCHAR NOT NULL,
			lat DOUBLE NOT NULL,
			lng DOUBLE NOT NULL,
			location_type VARCHAR NOT NULL,
			place_id VARCHAR NOT NULL,
			h3_res5 UBIGINT,
			h3_res7 UBIGINT,
			h3_res9 UBIGINT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(cache_key, language, ordinal)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating geocode_cache: %w", err)
	}

	return nil
}

func (r *sqlCacheRepository) Lookup(key, language string) ([]Result, bool, error) {
	rows, err := r.db.Query(`
		SELECT formatted_address, lat, lng, location_type, place_id
		FROM geocode_cache
		WHERE cache_key = ? AND language = ?
		ORDER BY ordinal
	`, key, language)
	if err != nil {
		return nil, false, fmt.Errorf("querying geocode_cache: %w", err)
	}
	defer rows.Close()

	var results []Result

	for rows.Next() {
		var res Result
		if err := rows.Scan(&res.FormattedAddress, &res.Location.Lat, &res.Location.Lng, &res.LocationType, &res.PlaceID); err != nil {
			return nil, false, fmt.Errorf("scanning geocode_cache: %w", err)
		}

		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	return results, len(results) > 0, nil
}

func cells(p spatial.Point) ([len(cacheResolutions)]int64, error) {
	var out [len(cacheResolutions)]int64

	latLng := h3.NewLatLng(p.Lat, p.Lng)
	for i, res := range cacheResolutions {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return out, fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
		}

		out[i] = int64(cell)
	}

	return out, nil
}

func (r *sqlCacheRepository) Store(key, language, address string, results []Result) (err error) {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				log.Printf("Rollback failed: %v", rErr)
			}
		}
	}()

	if _, err = tx.Exec(`DELETE FROM geocode_cache WHERE cache_key = ? AND language = ?`, key, language); err != nil {
		return fmt.Errorf("clearing geocode_cache: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO geocode_cache(
			cache_key,
			language,
			address,
			ordinal,
			formatted_address,
			lat,
			lng,
			location_type,
			place_id,
			h3_res5,
			h3_res7,
			h3_res9
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, res := range results {
		var h3Cells [len(cacheResolutions)]int64

		h3Cells, err = cells(res.Location)
		if err != nil {
			return err
		}

		if _, err = stmt.Exec(
			key,
			language,
			address,
			i,
			res.FormattedAddress,
			res.Location.Lat,
			res.Location.Lng,
			res.LocationType,
			res.PlaceID,
			h3Cells[0],
			h3Cells[1],
			h3Cells[2],
		); err != nil {
			return fmt.Errorf("inserting %q: %w", address, err)
		}
	}

	return tx.Commit()
}

func (r *sqlCacheRepository) Stats() (CacheStats, error) {
	var stats CacheStats

	err := r.db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT cache_key || '|' || language), COUNT(DISTINCT h3_res5)
		FROM geocode_cache
	`).Scan(&stats.Rows, &stats.Addresses, &stats.Regions)
	if err != nil {
		return stats, fmt.Errorf("reading cache stats: %w", err)
	}

	return stats, nil
}

// CachedGeocoder answers from the cache when it can and stores the
// successful lookups of the wrapped Geocoder. Failures are never cached.
type CachedGeocoder struct {
	inner    Geocoder
	repo     CacheRepository
	language string

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedGeocoder wraps inner; language scopes the cache entries.
func NewCachedGeocoder(inner Geocoder, repo CacheRepository, language string) *CachedGeocoder {
	return &CachedGeocoder{inner: inner, repo: repo, language: language}
}

// Geocode implements Geocoder.
func (g *CachedGeocoder) Geocode(ctx context.Context, address string) ([]Result, error) {
	key := textutils.NormalizeAddress(address)

	results, found, err := g.repo.Lookup(key, g.language)
	if err != nil {
		log.Printf("Reading geocode cache for %q: %v", address, err)
	} else if found {
		g.hits.Add(1)

		return results, nil
	}

	g.misses.Add(1)

	results, err = g.inner.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if err := g.repo.Store(key, g.language, address, results); err != nil {
		log.Printf("Writing geocode cache for %q: %v", address, err)
	}

	return results, nil
}

// Hits returns how many lookups the cache answered.
func (g *CachedGeocoder) Hits() int64 {
	return g.hits.Load()
}

// Misses returns how many lookups reached the wrapped Geocoder.
func (g *CachedGeocoder) Misses() int64 {
	return g.misses.Load()
}
