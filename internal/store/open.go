package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"solendir/internal/model"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Open returns the token store selected by backend. The SQLite store is
// initialised (schema created) before it is returned.
func Open(ctx context.Context, backend, sqlitePath string) (model.TokenStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendMemory:
		return NewMemoryTokenStore(), nil
	case BackendSQLite:
		if dir := filepath.Dir(sqlitePath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create token store directory: %w", err)
			}
		}
		st := NewSQLiteTokenStore(sqlitePath)
		if err := st.Init(ctx); err != nil {
			return nil, fmt.Errorf("init sqlite token store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown token store backend %q", backend)
	}
}
