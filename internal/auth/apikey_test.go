package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voicedesk/speechadmin/internal/auth"
)

func TestGenerateAPIKey(t *testing.T) {
	first := auth.GenerateAPIKey()
	second := auth.GenerateAPIKey()

	assert.True(t, strings.HasPrefix(first, "sa_"))
	assert.NotEqual(t, first, second)
}

func TestHashAPIKey(t *testing.T) {
	key := auth.GenerateAPIKey()

	hash := auth.HashAPIKey(key)
	assert.Len(t, hash, 64, "sha256 hex digest")
	assert.Equal(t, hash, auth.HashAPIKey(key), "hashing is deterministic")
	assert.NotEqual(t, hash, auth.HashAPIKey(key+"x"))
}
