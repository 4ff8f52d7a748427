package memory

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/petasbytes/streamchat/internal/transcript"
)

// Store loads and saves the full transcript.
type Store interface {
	Load(ctx context.Context) ([]transcript.Turn, error)
	Save(ctx context.Context, turns []transcript.Turn) error
	Close() error
}

// Open picks a backend by file extension.
func Open(path string) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return NewJSONFile(path), nil
	}
}
