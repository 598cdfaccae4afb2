package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/scorm/pkg/domain"
)

// ErrInvalidRegistrationID is returned for IDs that cannot be used as a file name.
var ErrInvalidRegistrationID = errors.New("invalid registration id")

// Store implements ports.AttemptStore using the local filesystem.
// Each attempt is a JSON file named after its registration ID.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".scorm/attempts".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".scorm", "attempts")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(registrationID string) (string, error) {
	if registrationID == "" || registrationID != filepath.Base(registrationID) ||
		strings.HasPrefix(registrationID, ".") || strings.ContainsAny(registrationID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRegistrationID, registrationID)
	}
	return filepath.Join(s.BasePath, registrationID+".json"), nil
}

// Save writes the attempt atomically: temp file, fsync, rename.
func (s *Store) Save(ctx context.Context, registrationID string, attempt *domain.Attempt) error {
	destPath, err := s.path(registrationID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure attempt directory: %w", err)
	}

	data, err := json.MarshalIndent(attempt, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal attempt: %w", err)
	}

	// Same directory as the destination, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, ".tmp-"+registrationID+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing attempt file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads the attempt file.
func (s *Store) Load(ctx context.Context, registrationID string) (*domain.Attempt, error) {
	filePath, err := s.path(registrationID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to read attempt file: %w", err)
	}

	var attempt domain.Attempt
	if err := json.Unmarshal(data, &attempt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attempt: %w", err)
	}
	return &attempt, nil
}

// Delete removes the attempt file.
func (s *Store) Delete(ctx context.Context, registrationID string) error {
	filePath, err := s.path(registrationID)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete attempt file: %w", err)
	}
	return nil
}

// List returns the registration IDs found in the base directory.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}
