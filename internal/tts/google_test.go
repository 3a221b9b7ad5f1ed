package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleSynthesize(t *testing.T) {
	var gotQueries []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/translate_tts", r.URL.Path)
		q := r.URL.Query()
		gotQueries = append(gotQueries, map[string]string{
			"q":      q.Get("q"),
			"tl":     q.Get("tl"),
			"client": q.Get("client"),
		})
		w.Write([]byte("MP3:" + q.Get("q")))
	}))
	defer srv.Close()

	g := NewGoogleTTS(GoogleTTSConfig{BaseURL: srv.URL})

	res, err := g.Synthesize(context.Background(), Request{Input: "Hello world", Language: "en"})
	require.NoError(t, err)

	assert.Equal(t, "audio/mpeg", res.ContentType)
	assert.Equal(t, "mp3", res.Ext)
	assert.Equal(t, []byte("MP3:Hello world"), res.Audio)

	require.Len(t, gotQueries, 1)
	assert.Equal(t, "en", gotQueries[0]["tl"])
	assert.Equal(t, "tw-ob", gotQueries[0]["client"])
}

func TestGoogleSynthesizeDefaultsLanguage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en", r.URL.Query().Get("tl"))
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	g := NewGoogleTTS(GoogleTTSConfig{BaseURL: srv.URL})
	_, err := g.Synthesize(context.Background(), Request{Input: "hi"})
	require.NoError(t, err)
}

func TestGoogleSynthesizeChunksLongInput(t *testing.T) {
	var chunks []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunks = append(chunks, r.URL.Query().Get("q"))
		w.Write([]byte("|part|"))
	}))
	defer srv.Close()

	g := NewGoogleTTS(GoogleTTSConfig{BaseURL: srv.URL})

	input := strings.TrimSpace(strings.Repeat("word ", 100)) // 499 runes
	res, err := g.Synthesize(context.Background(), Request{Input: input, Language: "en"})
	require.NoError(t, err)

	require.Greater(t, len(chunks), 1)
	assert.Equal(t, strings.Repeat("|part|", len(chunks)), string(res.Audio))
	assert.Equal(t, input, strings.Join(chunks, " "), "chunking must not drop words")
}

func TestGoogleSynthesizeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGoogleTTS(GoogleTTSConfig{BaseURL: srv.URL})
	_, err := g.Synthesize(context.Background(), Request{Input: "hi", Language: "en"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGoogleSynthesizeEmptyInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty input")
	}))
	defer srv.Close()

	g := NewGoogleTTS(GoogleTTSConfig{BaseURL: srv.URL})
	_, err := g.Synthesize(context.Background(), Request{Input: "   ", Language: "en"})
	assert.Error(t, err)
}

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		expected []string
	}{
		{"short input stays whole", "hello world", 20, []string{"hello world"}},
		{"splits at whitespace", "aaa bbb ccc", 7, []string{"aaa bbb", "ccc"}},
		{"oversized word split hard", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"empty input", "   ", 10, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := splitChunks(tc.input, tc.maxRunes)
			assert.Equal(t, tc.expected, got)

			for _, chunk := range got {
				assert.LessOrEqual(t, utf8.RuneCountInString(chunk), tc.maxRunes)
			}
		})
	}
}
