// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/jcodagnone/mapplaces/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the component API server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, cache, err := openCache()
		if err != nil {
			return err
		}

		if db != nil {
			defer db.Close()
			fmt.Println("💾 Geocoding cache:", globals.CacheDB)
		}

		apiKey := resolveAPIKey(cmd.Context())
		if apiKey == "" {
			log.Print("No server API key, /api/geocode is disabled")
		}

		s := server.NewServer(server.Options{
			APIKey:     apiKey,
			Cache:      cache,
			HTTPClient: httpClient(),
		})

		fmt.Printf("🗺️  Listening on http://%s\n", serveAddr)

		return s.Run(serveAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:8080", "Address to listen on")
}
