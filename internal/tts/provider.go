package tts

import "context"

// Request holds the parameters for one synthesis call.
type Request struct {
	Input    string
	Language string // BCP-47-ish code, e.g. "en", "ru"
}

// Result holds the generated audio, its content type and file extension.
type Result struct {
	Audio       []byte
	ContentType string // "audio/mpeg" or "audio/wav"
	Ext         string // "mp3" or "wav", no leading dot
}

// Provider is the interface for text-to-speech backends.
type Provider interface {
	Synthesize(ctx context.Context, req Request) (*Result, error)
	Name() string
}
