// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/jcodagnone/mapplaces/component"
	"github.com/jcodagnone/mapplaces/geocode"
	"github.com/jcodagnone/mapplaces/places"
	"github.com/jcodagnone/mapplaces/utils/textutils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// cliHost prints what the component reports.
type cliHost struct {
	mu     sync.Mutex
	alerts []string
}

func (h *cliHost) SetCompletionStatus() error {
	fmt.Println("🎉 Component completed")

	return nil
}

func (h *cliHost) SetReadyStatus() {
	log.Print("Component ready")
}

func (h *cliHost) Alert(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log.Printf("⚠️ %s", message)
	h.alerts = append(h.alerts, message)
}

var clickAll bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <config>",
	Short: "Resolve the places of a component configuration",
	Long: `Runs a component headless: loads the configuration (JSON, YAML or TOML),
geocodes every place, fits the map and prints the markers.

The API key of the configuration may be overridden with --api-key or $GOOGLE_MAPS_API_KEY.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := component.LoadConfig(args[0])
		if err != nil {
			return err
		}

		if key := resolveAPIKey(cmd.Context()); key != "" {
			cfg.APIKey = key
		}

		db, cache, err := openCache()
		if err != nil {
			return err
		}

		if db != nil {
			defer db.Close()
		}

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(cfg.Items),
				progressbar.OptionSetDescription("Geocoding"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		client := httpClient()
		host := &cliHost{}
		c := component.New(cfg, host, component.Options{
			HTTPClient: client,
			NewGeocoder: func(cfg component.Config) geocode.Geocoder {
				var g geocode.Geocoder = geocode.NewGoogleMapsGeocoder(geocode.GoogleMapsOptions{
					APIKey:     cfg.APIKey,
					Language:   cfg.Language,
					HTTPClient: client,
				})
				if cache != nil {
					g = geocode.NewCachedGeocoder(g, cache, cfg.Language)
				}

				return g
			},
			Progress: func(done, total int) {
				if bar == nil {
					log.Printf("Geocoded %d/%d", done, total)

					return
				}

				if err := bar.Add(1); err != nil {
					log.Printf("Updating progress bar: %v", err)
				}
			},
		})

		if err := c.Prepare(); err != nil {
			return err
		}

		if err := c.Render(cmd.Context()); err != nil {
			return err
		}

		if clickAll {
			for _, m := range c.Snapshot().Markers {
				if _, err := c.Click(m.ID); err != nil {
					return err
				}
			}
		}

		printSnapshot(c.Snapshot())

		m := c.Metrics()
		log.Printf(
			"Geocoding metrics - %d queries, %d found (%d ambiguous), %d not found, %d failed",
			m.Queries, m.Found, m.Ambiguous, m.NotFound, m.Failed,
		)

		return nil
	},
}

func printSnapshot(s component.Snapshot) {
	a, b, c, d := strings.Repeat("─", 8), strings.Repeat("─", 40), strings.Repeat("─", 30), strings.Repeat("─", 7)

	fmt.Printf("Markers of %s:\n", s.MapID)
	fmt.Printf("╭─%-8s─┬─%-40s─┬─%-30s─┬─%-7s─╮\n", a, b, c, d)
	fmt.Printf("│ %-8s │ %-40s │ %-30s │ %-7s │\n", "Id", "Address", "Location", "Clicked")
	fmt.Printf("├─%-8s─┼─%-40s─┼─%-30s─┼─%-7s─┤\n", a, b, c, d)

	for _, m := range s.Markers {
		fmt.Printf("│ %-8s │ %-40s │ %-30s │ %-7t │\n",
			textutils.Truncate(m.ID, 8),
			textutils.Truncate(markerLabel(m), 40),
			m.Result.Location.String(),
			m.Clicked,
		)
	}

	fmt.Printf("╰─%-8s─┴─%-40s─┴─%-30s─┴─%-7s─╯\n", a, b, c, d)

	if s.ShowUnresolved {
		fmt.Println("Places not found on Google Maps:")

		for _, address := range s.Unresolved {
			fmt.Printf("  • %s\n", address)
		}
	}

	if s.Viewport != nil {
		fmt.Printf("📍 Map centered on %s at zoom %d\n", s.Viewport.Center, s.Viewport.Zoom)
	}

	fmt.Printf("State: %s - %d/%d places found, %d/%d markers clicked, completed: %t\n",
		s.State, s.FoundCount, s.RequestedCount, s.ClickedCount, s.ExpectedClicks, s.Completed)
}

func markerLabel(m places.Marker) string {
	if m.Result.FormattedAddress != "" {
		return m.Result.FormattedAddress
	}

	return m.Result.Query.Address
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().BoolVar(&clickAll, "click-all", false, "Click every marker after resolving")
}
