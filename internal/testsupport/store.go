package testsupport

import (
	"testing"

	"zoomrender/internal/config"
	"zoomrender/internal/history"
)

// MustOpenHistory opens the history store named by cfg and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
