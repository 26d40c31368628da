// Package workspace manages per-run session directories under a shared
// processing root, so concurrent runs never see each other's files.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bol-processing-service/pkg/errors"

	"github.com/google/uuid"
)

const (
	// DefaultRoot is the directory session folders are created under when no
	// root is configured.
	DefaultRoot = "processing_sessions"

	sessionPrefix = "session_"
	timeFormat    = "20060102_150405"
)

// Session is one isolated working directory for a processing run.
type Session struct {
	ID   string
	Root string
	Path string
}

// NewSession creates a fresh session directory under root and verifies it is
// writable. The directory name embeds a timestamp and a short random suffix.
func NewSession(root string) (*Session, error) {
	if root == "" {
		root = DefaultRoot
	}

	id := fmt.Sprintf("%s%s_%s", sessionPrefix, time.Now().Format(timeFormat), uuid.NewString()[:8])
	path := filepath.Join(root, id)

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errors.FileError(errors.CodeDirectoryError, path, err)
	}

	session := &Session{ID: id, Root: root, Path: path}
	if err := session.verifyWritable(); err != nil {
		return nil, err
	}
	return session, nil
}

// OpenSession attaches to an existing session directory by ID, for commands
// that continue a previous run.
func OpenSession(root, id string) (*Session, error) {
	if root == "" {
		root = DefaultRoot
	}
	path := filepath.Join(root, id)

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileNotFound, path, err)
	}
	if !info.IsDir() {
		return nil, errors.FileError(errors.CodeDirectoryError, path, fmt.Errorf("not a directory"))
	}

	return &Session{ID: id, Root: root, Path: path}, nil
}

// verifyWritable round-trips a probe file so permission problems surface at
// session creation instead of mid-pipeline.
func (s *Session) verifyWritable() error {
	probe := filepath.Join(s.Path, ".write_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return errors.FileError(errors.CodeFilePermission, s.Path, err)
	}
	return os.Remove(probe)
}

// FilePath returns the absolute location of name inside the session.
func (s *Session) FilePath(name string) string {
	return filepath.Join(s.Path, name)
}

// ListFiles returns the session's files carrying the given extension, sorted
// by name. The extension comparison is case-insensitive and includes the dot.
func (s *Session) ListFiles(ext string) ([]string, error) {
	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return nil, errors.FileError(errors.CodeDirectoryError, s.Path, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			files = append(files, filepath.Join(s.Path, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Remove deletes the session directory and everything in it.
func (s *Session) Remove() error {
	return os.RemoveAll(s.Path)
}

// CleanupSessions removes session directories under root older than maxAge.
// It returns how many were removed; individual failures stop the sweep.
func CleanupSessions(root string, maxAge time.Duration) (int, error) {
	if root == "" {
		root = DefaultRoot
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.FileError(errors.CodeDirectoryError, root, err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), sessionPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, entry.Name())); err != nil {
			return removed, errors.FileError(errors.CodeDirectoryError, entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}
