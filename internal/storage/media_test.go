package storage_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/speechadmin/internal/storage"
)

func TestSaveVoice(t *testing.T) {
	root := t.TempDir()
	store := storage.NewMediaStore(root, "voice")

	rel, err := store.SaveVoice("abc123", "mp3", []byte("audio bytes"))
	require.NoError(t, err)
	assert.Equal(t, "voice/abc123.mp3", rel)

	data, err := os.ReadFile(filepath.Join(root, "voice", "abc123.mp3"))
	require.NoError(t, err)
	assert.Equal(t, []byte("audio bytes"), data)
}

func TestVoicePath(t *testing.T) {
	store := storage.NewMediaStore("media", "voice")
	assert.Equal(t, "voice/stem.wav", store.VoicePath("stem", "wav"))
}

func TestOpen(t *testing.T) {
	store := storage.NewMediaStore(t.TempDir(), "voice")

	rel, err := store.SaveVoice("abc123", "mp3", []byte("audio bytes"))
	require.NoError(t, err)

	rc, size, err := store.Open(rel)
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, int64(len("audio bytes")), size)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio bytes"), data)
}

func TestOpenMissingFile(t *testing.T) {
	store := storage.NewMediaStore(t.TempDir(), "voice")

	_, _, err := store.Open("voice/nope.mp3")
	assert.Error(t, err)
}

func TestRename(t *testing.T) {
	root := t.TempDir()
	store := storage.NewMediaStore(root, "voice")

	rel, err := store.SaveVoice("old", "mp3", []byte("audio"))
	require.NoError(t, err)

	newRel := store.VoicePath("new", "mp3")
	require.NoError(t, store.Rename(rel, newRel))

	_, err = os.Stat(filepath.Join(root, "voice", "old.mp3"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "voice", "new.mp3"))
	assert.NoError(t, err)
}

func TestRemove(t *testing.T) {
	root := t.TempDir()
	store := storage.NewMediaStore(root, "voice")

	rel, err := store.SaveVoice("gone", "mp3", []byte("audio"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(rel))
	_, err = os.Stat(filepath.Join(root, "voice", "gone.mp3"))
	assert.True(t, os.IsNotExist(err))
}

func TestRejectsPathTraversal(t *testing.T) {
	store := storage.NewMediaStore(t.TempDir(), "voice")

	for _, rel := range []string{"../outside.mp3", "voice/../../etc/passwd", ""} {
		_, _, err := store.Open(rel)
		assert.Error(t, err, "path %q must be rejected", rel)
	}
}
