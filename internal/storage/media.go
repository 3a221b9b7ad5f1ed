package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// MediaStore keeps generated audio files on the local filesystem under a
// media root. Audio lives in a fixed subdirectory (default "voice") and all
// returned paths are relative to the root, which is what gets persisted.
type MediaStore struct {
	root     string
	voiceDir string
}

func NewMediaStore(root, voiceDir string) *MediaStore {
	if root == "" {
		root = "media"
	}
	if voiceDir == "" {
		voiceDir = "voice"
	}
	return &MediaStore{root: root, voiceDir: voiceDir}
}

// VoicePath returns the root-relative path an audio file with the given stem
// and extension is stored under.
func (m *MediaStore) VoicePath(stem, ext string) string {
	return path.Join(m.voiceDir, fmt.Sprintf("%s.%s", stem, ext))
}

// SaveVoice writes audio bytes to <root>/<voiceDir>/<stem>.<ext> and returns
// the path relative to the media root.
func (m *MediaStore) SaveVoice(stem, ext string, data []byte) (string, error) {
	dir := filepath.Join(m.root, m.voiceDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create voice dir: %w", err)
	}

	rel := m.VoicePath(stem, ext)
	if err := os.WriteFile(filepath.Join(m.root, filepath.FromSlash(rel)), data, 0o644); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}
	return rel, nil
}

// Rename moves a stored file to a new relative path, creating parent
// directories as needed.
func (m *MediaStore) Rename(oldRel, newRel string) error {
	oldAbs, err := m.abs(oldRel)
	if err != nil {
		return err
	}
	newAbs, err := m.abs(newRel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(newAbs), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.Rename(oldAbs, newAbs); err != nil {
		return fmt.Errorf("rename audio file: %w", err)
	}
	return nil
}

// Remove deletes a stored file.
func (m *MediaStore) Remove(rel string) error {
	abs, err := m.abs(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("remove audio file: %w", err)
	}
	return nil
}

// Open opens a stored file for reading along with its size.
func (m *MediaStore) Open(rel string) (io.ReadCloser, int64, error) {
	abs, err := m.abs(rel)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, 0, fmt.Errorf("open audio file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat audio file: %w", err)
	}
	return f, info.Size(), nil
}

// abs resolves a stored relative path against the media root, rejecting
// anything that would escape it.
func (m *MediaStore) abs(rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if clean == "/" || strings.Contains(rel, "..") {
		return "", fmt.Errorf("invalid media path %q", rel)
	}
	return filepath.Join(m.root, filepath.FromSlash(clean)), nil
}
