package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/trustedapps/internal/config"
	"github.com/hyperengineering/trustedapps/internal/listclient"
)

var (
	appsDBOverride string
	appsJSONOutput bool
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Manage trusted applications",
	Long:  "List, add, and remove trusted applications without running the server.",
}

func init() {
	appsCmd.PersistentFlags().StringVar(&appsDBOverride, "db", "",
		"Database path (overrides config and TRUSTEDAPPS_DB_PATH)")
	appsCmd.PersistentFlags().BoolVar(&appsJSONOutput, "json", false,
		"Output in JSON format")

	appsCmd.AddCommand(appsListCmd)
	appsCmd.AddCommand(appsAddCmd)
	appsCmd.AddCommand(appsRemoveCmd)
}

// resolveListClient opens the SQLite list client from config with optional
// --db override. Admin commands tolerate a missing API key.
func resolveListClient() (*listclient.SQLiteClient, error) {
	dbPath := appsDBOverride
	if dbPath == "" {
		cfg, err := loadConfigLenient()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		dbPath = cfg.Database.Path
	}

	return listclient.NewSQLiteClient(dbPath, listclient.WithUsername("cli"))
}

// loadConfigLenient loads config without requiring the server API key,
// since admin commands never serve HTTP.
func loadConfigLenient() (*config.Config, error) {
	cfg, err := config.Load()
	if err == nil {
		return cfg, nil
	}
	// Retry in dev mode to skip the API key requirement
	restore := setEnv("TRUSTEDAPPS_DEV_MODE", "true")
	defer restore()
	return config.Load()
}

// setEnv sets an environment variable and returns a restore func.
func setEnv(key, value string) func() {
	prev, had := os.LookupEnv(key)
	os.Setenv(key, value)
	return func() {
		if had {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	}
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
