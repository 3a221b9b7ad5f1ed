package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// googleChunkLen is the longest input the translate endpoint accepts per
// request, in runes. Longer texts are split at whitespace and the MP3
// responses concatenated.
const googleChunkLen = 200

// GoogleTTSConfig holds configuration for the Google Translate TTS backend.
type GoogleTTSConfig struct {
	BaseURL string // default: "https://translate.google.com"
}

// GoogleTTS synthesizes speech through the unofficial Google Translate
// text-to-speech endpoint.
type GoogleTTS struct {
	cfg        GoogleTTSConfig
	httpClient *http.Client
}

// NewGoogleTTS creates a GoogleTTS with sensible defaults applied.
func NewGoogleTTS(cfg GoogleTTSConfig) *GoogleTTS {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://translate.google.com"
	}
	return &GoogleTTS{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (g *GoogleTTS) Name() string { return "google-translate" }

// Synthesize converts text to audio and returns the audio bytes as MP3.
func (g *GoogleTTS) Synthesize(ctx context.Context, req Request) (*Result, error) {
	lang := req.Language
	if lang == "" {
		lang = "en"
	}

	var audio []byte
	for _, chunk := range splitChunks(req.Input, googleChunkLen) {
		data, err := g.fetchChunk(ctx, chunk, lang)
		if err != nil {
			return nil, err
		}
		audio = append(audio, data...)
	}

	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio response")
	}

	return &Result{
		Audio:       audio,
		ContentType: "audio/mpeg",
		Ext:         "mp3",
	}, nil
}

func (g *GoogleTTS) fetchChunk(ctx context.Context, text, lang string) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("q", text)
	q.Set("tl", lang)

	httpReq, err := http.NewRequestWithContext(ctx, "GET", g.cfg.BaseURL+"/translate_tts?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tts failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return data, nil
}

// splitChunks breaks text into pieces of at most maxRunes runes, preferring
// whitespace boundaries. A single word longer than maxRunes is split hard.
func splitChunks(text string, maxRunes int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxRunes {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
		curLen = 0
	}

	for _, word := range strings.Fields(text) {
		wordLen := utf8.RuneCountInString(word)

		if wordLen > maxRunes {
			flush()
			runes := []rune(word)
			for len(runes) > maxRunes {
				chunks = append(chunks, string(runes[:maxRunes]))
				runes = runes[maxRunes:]
			}
			cur.WriteString(string(runes))
			curLen = len(runes)
			continue
		}

		if curLen > 0 && curLen+1+wordLen > maxRunes {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += wordLen
	}
	flush()

	return chunks
}
