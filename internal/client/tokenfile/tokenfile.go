// Package tokenfile keeps the last token pair on disk between authctl runs.
package tokenfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
)

// ErrNoSession means no token pair has been saved.
var ErrNoSession = errors.New("not logged in")

// Save writes pair to path, readable by the owner only. The parent
// directory is created when missing.
func Save(path string, pair *client.TokenPair) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(pair, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func Load(path string) (*client.TokenPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	var pair client.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return nil, fmt.Errorf("token file %s: %w", path, err)
	}
	if pair.RefreshToken == "" && pair.AccessToken == "" {
		return nil, ErrNoSession
	}
	return &pair, nil
}

// Clear removes the file; a missing file is not an error.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
