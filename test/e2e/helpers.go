package e2e

import (
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperengineering/trustedapps/internal/api"
	"github.com/hyperengineering/trustedapps/internal/listclient"
	trustedapps "github.com/hyperengineering/trustedapps/pkg/trustedapps"
)

const testAPIKey = "e2e-api-key"

// startServer boots the full router over a fresh SQLite database in a
// temp directory and returns an SDK client pointed at it, plus the
// server's base URL for tests that build their own clients.
func startServer(t *testing.T) (*trustedapps.Client, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "trustedapps.db")
	listClient, err := listclient.NewSQLiteClient(dbPath)
	if err != nil {
		t.Fatalf("create list client: %v", err)
	}
	t.Cleanup(func() { listClient.Close() })

	handler := api.NewHandler(testAPIKey, "e2e")
	srv := httptest.NewServer(api.NewRouter(handler, listClient))
	t.Cleanup(srv.Close)

	sdk, err := trustedapps.New(trustedapps.Config{
		BaseURL: srv.URL,
		APIKey:  testAPIKey,
		Timeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("create sdk client: %v", err)
	}
	return sdk, srv.URL
}

func sampleApp(name string) trustedapps.NewTrustedApp {
	return trustedapps.NewTrustedApp{
		Name:        name,
		Description: "this one is ok",
		OS:          "windows",
		Entries: []trustedapps.MatchEntry{{
			Field:    "process.path",
			Type:     "match",
			Operator: "included",
			Value:    "c:/programs files/" + name,
		}},
	}
}
