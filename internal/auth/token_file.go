// This file implements the client-side session token file.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/taskboard/internal/fsutil"
)

// SessionFile holds the client's current token inside the config directory.
const SessionFile = "session.json"

// TokenStore keeps the bearer token of the signed-in client between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokens is a TokenStore backed by configDir/session.json.
type FileTokens struct {
	path string
}

// NewFileTokens returns a TokenStore that writes into configDir.
func NewFileTokens(configDir string) *FileTokens {
	return &FileTokens{path: filepath.Join(configDir, SessionFile)}
}

type tokenDoc struct {
	Token string `json:"token"`
}

// Load returns "" when no token has been saved.
func (f *FileTokens) Load() (string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var doc tokenDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return "", fmt.Errorf("decoding %s: %w", f.path, err)
	}
	return doc.Token, nil
}

func (f *FileTokens) Save(token string) error {
	b, err := json.Marshal(tokenDoc{Token: token})
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(f.path, b, 0o600)
}

func (f *FileTokens) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
