// Copyright 2025 The MapPlaces Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/mapplaces/geocode"
	"github.com/jcodagnone/mapplaces/utils/httputils"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

// APIKeyEnv names the environment variable holding the Maps API key.
const APIKeyEnv = "GOOGLE_MAPS_API_KEY"

type globalOptions struct {
	EnvFile         string
	APIKey          string
	APIKeyFromADC   bool
	Project         string
	CacheDB         string
	EnableHTTPTrace bool
	EnableBodyTrace bool
}

var globals = &globalOptions{}

var rootCmd = &cobra.Command{
	Use:   "mapplaces",
	Short: "interactive map places",
	Long: `
mapplaces resolves the places of an interactive map component, fits the map
to them and tracks the learner's clicks until the component is complete.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := godotenv.Load(globals.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", globals.EnvFile, err)
		}

		return nil
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func httpClient() *http.Client {
	options := httputils.ClientOptions{
		UserAgent: fmt.Sprintf("mapplaces/%s (+https://github.com/jcodagnone/mapplaces)", Version),
		TraceBody: globals.EnableBodyTrace,
	}

	if globals.EnableHTTPTrace || globals.EnableBodyTrace {
		options.Trace = os.Stderr
	}

	return httputils.NewClient(options)
}

// resolveAPIKey picks the key from the flag, the environment or, when
// asked to, the API Keys service.
func resolveAPIKey(ctx context.Context) string {
	if globals.APIKey != "" {
		return globals.APIKey
	}

	if key := os.Getenv(APIKeyEnv); key != "" {
		return key
	}

	if !globals.APIKeyFromADC {
		return ""
	}

	log.Printf("%s is not set. Attempting to retrieve via ADC...", APIKeyEnv)

	key, err := geocode.APIKeyFromADC(ctx, globals.Project, geocode.DefaultKeyDisplayName)
	if err != nil {
		log.Printf("Failed to retrieve API key via ADC: %v", err)

		return ""
	}

	log.Println("✅ Successfully retrieved Google Maps API Key via ADC")

	return key
}

// openCache opens the geocode cache, nil when no path was given.
func openCache() (*sql.DB, geocode.CacheRepository, error) {
	if globals.CacheDB == "" {
		return nil, nil, nil
	}

	db, err := sql.Open("duckdb", globals.CacheDB)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := geocode.NewCacheRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return db, repo, nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globals.EnvFile, "env-file", ".env", "Environment file loaded before running")
	flags.StringVar(&globals.APIKey, "api-key", "", "Google Maps API key, defaults to $"+APIKeyEnv)
	flags.BoolVar(&globals.APIKeyFromADC, "api-key-from-adc", false, "Look the API key up with Application Default Credentials")
	flags.StringVar(&globals.Project, "project", "", "Google Cloud project holding the API key")
	flags.StringVar(&globals.CacheDB, "cache-db", "", "DuckDB file caching geocoding results")
	flags.BoolVar(&globals.EnableHTTPTrace, "trace-http", false, "Display HTTP requests-responses")
	flags.BoolVar(&globals.EnableBodyTrace, "trace-http-body", false, "Display HTTP requests-responses bodies")
}
