package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/petasbytes/streamchat/internal/transcript"
)

// JSONFile stores the transcript as one indented JSON array.
type JSONFile struct {
	path string
}

func NewJSONFile(path string) *JSONFile { return &JSONFile{path: path} }

// Load returns nil, nil when the file does not exist.
func (f *JSONFile) Load(ctx context.Context) ([]transcript.Turn, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var turns []transcript.Turn
	if err := json.Unmarshal(b, &turns); err != nil {
		return nil, fmt.Errorf("memory: %s: %w", f.path, err)
	}
	return turns, nil
}

// Save replaces the file atomically via a temp file and rename.
func (f *JSONFile) Save(ctx context.Context, turns []transcript.Turn) error {
	if turns == nil {
		turns = []transcript.Turn{}
	}
	b, err := json.MarshalIndent(turns, "", " ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *JSONFile) Close() error { return nil }
