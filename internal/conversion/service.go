package conversion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voicedesk/speechadmin/internal/cache"
	"github.com/voicedesk/speechadmin/internal/models"
	"github.com/voicedesk/speechadmin/internal/storage"
	"github.com/voicedesk/speechadmin/internal/tts"
	"github.com/voicedesk/speechadmin/pkg/textnorm"
)

const (
	defaultMaxTextLength = 700
	cacheKeyPrefix       = "conversion:"
	cacheTTL             = 5 * time.Minute
)

// Service orchestrates the record store, the speech backend and the media
// store. A creation is all-or-nothing: a row is only persisted once its audio
// file exists on disk.
type Service struct {
	repo  Repository
	synth tts.Provider
	media *storage.MediaStore
	cache *cache.Cache // optional, nil disables caching

	maxTextLength   int
	defaultLanguage string // empty means detect from the text
}

func NewService(repo Repository, synth tts.Provider, media *storage.MediaStore, c *cache.Cache) *Service {
	return &Service{
		repo:          repo,
		synth:         synth,
		media:         media,
		cache:         c,
		maxTextLength: defaultMaxTextLength,
	}
}

// SetMaxTextLength overrides the input length limit. Zero or negative keeps
// the default.
func (s *Service) SetMaxTextLength(n int) {
	if n > 0 {
		s.maxTextLength = n
	}
}

// SetDefaultLanguage fixes the language used when a request carries none,
// instead of detecting it from the text.
func (s *Service) SetDefaultLanguage(lang string) {
	s.defaultLanguage = lang
}

type CreateRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

type UpdateRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// Create validates the text, synthesizes the audio, stores the file and then
// persists the record. A filename collision on insert is retried once with a
// fresh name; any other insert failure removes the file again.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Conversion, error) {
	text := textnorm.Normalize(req.Text)
	if err := s.validateText(text); err != nil {
		return nil, err
	}
	lang := s.resolveLanguage(req.Language, text)

	result, err := s.synth.Synthesize(ctx, tts.Request{Input: text, Language: lang})
	if err != nil {
		return nil, &SynthesisError{Backend: s.synth.Name(), Err: err}
	}

	stem := newFilename()
	rel, err := s.media.SaveVoice(stem, result.Ext, result.Audio)
	if err != nil {
		return nil, fmt.Errorf("store audio: %w", err)
	}

	conv := &models.Conversion{
		Text:      text,
		Language:  lang,
		Filename:  stem,
		AudioPath: rel,
	}

	err = s.repo.Insert(ctx, conv)
	if errors.Is(err, ErrDuplicateFilename) {
		stem = newFilename()
		newRel := s.media.VoicePath(stem, result.Ext)
		if renameErr := s.media.Rename(rel, newRel); renameErr != nil {
			s.removeArtifact(rel)
			return nil, fmt.Errorf("retry filename: %w", renameErr)
		}
		rel = newRel
		conv.Filename = stem
		conv.AudioPath = rel
		err = s.repo.Insert(ctx, conv)
	}
	if err != nil {
		s.removeArtifact(rel)
		return nil, err
	}

	return conv, nil
}

// Get returns a single record, read through the cache when one is configured.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Conversion, error) {
	if s.cache != nil {
		var cached models.Conversion
		if err := s.cache.Get(ctx, cacheKeyPrefix+id.String(), &cached); err == nil {
			return &cached, nil
		}
	}

	conv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyPrefix+id.String(), conv, cacheTTL); err != nil {
			slog.Warn("cache conversion", "id", id, "error", err)
		}
	}
	return conv, nil
}

// List returns records ordered by creation time, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Conversion, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// Update edits text and/or language and re-synthesizes the audio under the
// record's existing filename. The previous audio file stays on disk if the
// backend produced a different format.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*models.Conversion, error) {
	conv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	text := textnorm.Normalize(req.Text)
	if err := s.validateText(text); err != nil {
		return nil, err
	}
	lang := s.resolveLanguage(req.Language, text)

	result, err := s.synth.Synthesize(ctx, tts.Request{Input: text, Language: lang})
	if err != nil {
		return nil, &SynthesisError{Backend: s.synth.Name(), Err: err}
	}

	rel, err := s.media.SaveVoice(conv.Filename, result.Ext, result.Audio)
	if err != nil {
		return nil, fmt.Errorf("store audio: %w", err)
	}

	conv.Text = text
	conv.Language = lang
	conv.AudioPath = rel
	if err := s.repo.Update(ctx, conv); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return conv, nil
}

// Delete removes the record only. The audio file stays on disk; file
// lifecycle is independent of the record's.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// OpenAudio resolves a record and opens its stored audio file for streaming.
func (s *Service) OpenAudio(ctx context.Context, id uuid.UUID) (*models.Conversion, io.ReadCloser, int64, error) {
	conv, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, 0, err
	}
	if conv.AudioPath == "" {
		return nil, nil, 0, ErrNotFound
	}
	rc, size, err := s.media.Open(conv.AudioPath)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("open audio: %w", err)
	}
	return conv, rc, size, nil
}

func (s *Service) validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if len([]rune(text)) > s.maxTextLength {
		return &ValidationError{Field: "text", Reason: fmt.Sprintf("must not exceed %d characters", s.maxTextLength)}
	}
	return nil
}

func (s *Service) resolveLanguage(requested, text string) string {
	if requested != "" {
		return requested
	}
	if s.defaultLanguage != "" {
		return s.defaultLanguage
	}
	return DetectLanguage(text)
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKeyPrefix+id.String()); err != nil {
		slog.Warn("invalidate conversion cache", "id", id, "error", err)
	}
}

func (s *Service) removeArtifact(rel string) {
	if err := s.media.Remove(rel); err != nil {
		slog.Warn("remove orphaned audio file", "path", rel, "error", err)
	}
}

// newFilename generates the unique file stem for a record. The uniqueness
// constraint on the conversions table backstops the vanishing chance of a
// collision.
func newFilename() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
