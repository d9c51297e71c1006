// Package tts implements the speech synthesis chain: an ordered set of
// HTTP providers tried in priority order, a filesystem artifact store for
// produced audio, and read-back verification of every claimed success.
package tts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
)

// ArtifactStore persists synthesized audio and reads it back for
// verification. The locator it returns is what clients receive as the
// audio reference.
type ArtifactStore interface {
	Put(ctx domain.Context, data []byte, ext string) (string, error)
	ReadBack(ctx domain.Context, locator string) ([]byte, error)
}

// FSArtifactStore writes artifacts as uuid-named files under a single
// directory. Locators are relative file names, not absolute paths, so the
// serving layer can remap the directory.
type FSArtifactStore struct {
	dir string
}

// NewFSArtifactStore creates the artifact directory if needed.
func NewFSArtifactStore(dir string) (*FSArtifactStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact store: empty directory: %w", domain.ErrInvalidArgument)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("artifact store: mkdir %s: %w", dir, err)
	}
	return &FSArtifactStore{dir: dir}, nil
}

func (s *FSArtifactStore) Put(ctx domain.Context, data []byte, ext string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("artifact store: empty payload: %w", domain.ErrInvalidArgument)
	}
	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o640); err != nil {
		return "", fmt.Errorf("artifact store: write %s: %w", name, err)
	}
	return name, nil
}

func (s *FSArtifactStore) ReadBack(ctx domain.Context, locator string) ([]byte, error) {
	if locator == "" || locator != filepath.Base(locator) {
		return nil, fmt.Errorf("artifact store: bad locator %q: %w", locator, domain.ErrInvalidArgument)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, locator))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact store: %s: %w", locator, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("artifact store: read %s: %w", locator, err)
	}
	return data, nil
}
