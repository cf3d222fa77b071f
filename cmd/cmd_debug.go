// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jcodagnone/mapplaces/geocode"
	"github.com/jcodagnone/mapplaces/places"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var debugLanguage string

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugGeocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Geocode addresses read from stdin",
	Long: `Reads one address per line, and prints the address followed by the outcome.

$ echo "Sydney Opera House" | mapplaces debug geocode
Sydney Opera House	found	[{"query":…,"location":{"lat":-33.856784,"lng":151.215297},…}]
	`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		apiKey := resolveAPIKey(cmd.Context())
		if apiKey == "" {
			return errors.New("a Google Maps API key is required, use --api-key or $" + APIKeyEnv)
		}

		db, cache, err := openCache()
		if err != nil {
			return err
		}

		if db != nil {
			defer db.Close()
		}

		var g geocode.Geocoder = geocode.NewGoogleMapsGeocoder(geocode.GoogleMapsOptions{
			APIKey:     apiKey,
			Language:   debugLanguage,
			HTTPClient: httpClient(),
		})
		if cache != nil {
			g = geocode.NewCachedGeocoder(g, cache, debugLanguage)
		}

		input := os.Stdin
		if isatty.IsTerminal(input.Fd()) {
			fmt.Fprintln(os.Stderr, "Enter addresses to geocode, one per line…")
		}

		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			q := places.PlaceQuery{Address: scanner.Text()}
			results, err := g.Geocode(cmd.Context(), q.Address)
			outcome := geocode.Classify(q, results, err)

			switch outcome.Kind {
			case places.Found:
				s, err := json.Marshal(outcome.Results)
				if err != nil {
					return err
				}

				fmt.Printf("%s\t%s\t%s\n", q.Address, outcome.Kind, s)
			case places.Failed:
				fmt.Printf("%s\t%s\t%s %q\n", q.Address, outcome.Kind, outcome.Reason, outcome.Err)
			default:
				fmt.Printf("%s\t%s\n", q.Address, outcome.Kind)
			}
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugGeocodeCmd)
	debugGeocodeCmd.Flags().StringVar(&debugLanguage, "language", "en", "Language of the results")
}
