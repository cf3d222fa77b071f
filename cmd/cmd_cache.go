// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/jcodagnone/mapplaces/utils/textutils"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the geocoding cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the geocoding cache",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if globals.CacheDB == "" {
			return errors.New("--cache-db is required")
		}

		db, cache, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := cache.Stats()
		if err != nil {
			return err
		}

		fmt.Printf("💾 %s\n", globals.CacheDB)
		fmt.Printf("  Addresses: %s\n", textutils.FormatInt(int64(stats.Addresses)))
		fmt.Printf("  Results:   %s\n", textutils.FormatInt(int64(stats.Rows)))
		fmt.Printf("  Regions:   %s (H3 res 5)\n", textutils.FormatInt(int64(stats.Regions)))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}
