package conversion_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/speechadmin/internal/conversion"
	"github.com/voicedesk/speechadmin/internal/models"
	"github.com/voicedesk/speechadmin/internal/storage"
	"github.com/voicedesk/speechadmin/internal/tts"
)

// memRepo is an in-memory Repository enforcing filename uniqueness, with an
// optional forced duplicate to exercise the regenerate-and-retry path.
type memRepo struct {
	mu              sync.Mutex
	records         map[uuid.UUID]models.Conversion
	seq             int
	failDuplicates  int // next N inserts report ErrDuplicateFilename
	failInsertsWith error
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[uuid.UUID]models.Conversion{}}
}

func (r *memRepo) Insert(_ context.Context, c *models.Conversion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failDuplicates > 0 {
		r.failDuplicates--
		return conversion.ErrDuplicateFilename
	}
	if r.failInsertsWith != nil {
		return r.failInsertsWith
	}
	for _, existing := range r.records {
		if existing.Filename == c.Filename {
			return conversion.ErrDuplicateFilename
		}
	}

	r.seq++
	c.ID = uuid.New()
	c.CreatedAt = time.Unix(int64(r.seq), 0)
	c.UpdatedAt = c.CreatedAt
	r.records[c.ID] = *c
	return nil
}

func (r *memRepo) Get(_ context.Context, id uuid.UUID) (*models.Conversion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.records[id]
	if !ok {
		return nil, conversion.ErrNotFound
	}
	return &c, nil
}

func (r *memRepo) List(_ context.Context, limit, offset int) ([]models.Conversion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]models.Conversion, 0, len(r.records))
	for _, c := range r.records {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memRepo) Update(_ context.Context, c *models.Conversion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[c.ID]; !ok {
		return conversion.ErrNotFound
	}
	c.UpdatedAt = time.Now()
	r.records[c.ID] = *c
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return conversion.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// fakeProvider returns canned audio and records the requests it saw.
type fakeProvider struct {
	mu       sync.Mutex
	requests []tts.Request
	audio    []byte
	err      error
}

func (p *fakeProvider) Synthesize(_ context.Context, req tts.Request) (*tts.Result, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	audio := p.audio
	if audio == nil {
		audio = []byte("ID3 fake mp3 payload")
	}
	return &tts.Result{Audio: audio, ContentType: "audio/mpeg", Ext: "mp3"}, nil
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) lastRequest() tts.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

type fixture struct {
	svc   *conversion.Service
	repo  *memRepo
	synth *fakeProvider
	root  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newMemRepo()
	synth := &fakeProvider{}
	root := t.TempDir()
	media := storage.NewMediaStore(root, "voice")

	return &fixture{
		svc:   conversion.NewService(repo, synth, media, nil),
		repo:  repo,
		synth: synth,
		root:  root,
	}
}

func (f *fixture) voiceFiles(t *testing.T) []string {
	t.Helper()

	entries, err := os.ReadDir(filepath.Join(f.root, "voice"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	conv, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: "Hello world", Language: "en"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, conv.ID)
	assert.Equal(t, "Hello world", conv.Text)
	assert.Equal(t, "en", conv.Language)
	assert.NotEmpty(t, conv.Filename)
	assert.Equal(t, "voice/"+conv.Filename+".mp3", conv.AudioPath)

	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(conv.AudioPath)))
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestCreateEmptyText(t *testing.T) {
	f := newFixture(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: text})

		var ve *conversion.ValidationError
		require.ErrorAs(t, err, &ve, "text %q", text)
		assert.Equal(t, "text", ve.Field)
	}

	assert.Zero(t, f.repo.count())
	assert.Empty(t, f.voiceFiles(t))
	assert.Empty(t, f.synth.requests, "synthesis must not run for invalid input")
}

func TestCreateTextTooLong(t *testing.T) {
	f := newFixture(t)

	long := make([]byte, 0, 800)
	for i := 0; i < 800; i++ {
		long = append(long, 'a')
	}

	_, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: string(long)})

	var ve *conversion.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, f.repo.count())
}

func TestCreateSynthesisFailure(t *testing.T) {
	f := newFixture(t)
	f.synth.err = errors.New("backend unreachable")

	_, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: "Hello world", Language: "en"})

	var se *conversion.SynthesisError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "fake", se.Backend)
	assert.ErrorContains(t, err, "backend unreachable")

	assert.Zero(t, f.repo.count(), "no record may remain after a failed synthesis")
	assert.Empty(t, f.voiceFiles(t), "no file may remain after a failed synthesis")
}

func TestCreateDistinctFilenames(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: "same text", Language: "en"})
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: "same text", Language: "en"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Filename, second.Filename)
	assert.NotEqual(t, first.AudioPath, second.AudioPath)
	assert.Len(t, f.voiceFiles(t), 2)
}

func TestCreateRetriesDuplicateFilenameOnce(t *testing.T) {
	f := newFixture(t)
	f.repo.failDuplicates = 1

	conv, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: "Hello world", Language: "en"})
	require.NoError(t, err)

	files := f.voiceFiles(t)
	require.Len(t, files, 1, "the artifact must be renamed, not duplicated")
	assert.Equal(t, conv.Filename+".mp3", files[0])
}

func TestCreateGivesUpAfterSecondCollision(t *testing.T) {
	f := newFixture(t)
	f.repo.failDuplicates = 2

	_, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: "Hello world", Language: "en"})
	require.ErrorIs(t, err, conversion.ErrDuplicateFilename)

	assert.Zero(t, f.repo.count())
	assert.Empty(t, f.voiceFiles(t), "artifact must be cleaned up when the retry fails")
}

func TestCreateCleansUpOnInsertFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.failInsertsWith = errors.New("connection reset")

	_, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: "Hello world", Language: "en"})
	require.Error(t, err)
	assert.Empty(t, f.voiceFiles(t))
}

func TestCreateLanguageResolution(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: "Привет мир"})
	require.NoError(t, err)
	assert.Equal(t, "ru", f.synth.lastRequest().Language)

	_, err = f.svc.Create(context.Background(), conversion.CreateRequest{Text: "Hello world"})
	require.NoError(t, err)
	assert.Equal(t, "en", f.synth.lastRequest().Language)

	_, err = f.svc.Create(context.Background(), conversion.CreateRequest{Text: "Hello world", Language: "de"})
	require.NoError(t, err)
	assert.Equal(t, "de", f.synth.lastRequest().Language, "explicit language wins over detection")
}

func TestCreateDefaultLanguageOverride(t *testing.T) {
	f := newFixture(t)
	f.svc.SetDefaultLanguage("fr")

	_, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: "Hello world"})
	require.NoError(t, err)
	assert.Equal(t, "fr", f.synth.lastRequest().Language)
}

func TestCreateNormalizesText(t *testing.T) {
	f := newFixture(t)

	conv, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: "  Hello\n\nworld \t again ", Language: "en"})
	require.NoError(t, err)

	assert.Equal(t, "Hello world again", conv.Text)
	assert.Equal(t, "Hello world again", f.synth.lastRequest().Input)
}

func TestGet(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: "Hello world", Language: "en"})
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.AudioPath, got.AudioPath)

	_, err = f.svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, conversion.ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		conv, err := f.svc.Create(context.Background(), conversion.CreateRequest{
			Text:     fmt.Sprintf("text number %d", i),
			Language: "en",
		})
		require.NoError(t, err)
		ids = append(ids, conv.ID)
	}

	listed, err := f.svc.List(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, ids[2], listed[0].ID)
	assert.Equal(t, ids[0], listed[2].ID)
}

func TestUpdateResynthesizes(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: "Hello world", Language: "en"})
	require.NoError(t, err)

	f.synth.audio = []byte("ID3 regenerated payload")
	updated, err := f.svc.Update(context.Background(), created.ID, conversion.UpdateRequest{Text: "Goodbye world", Language: "en"})
	require.NoError(t, err)

	assert.Equal(t, created.Filename, updated.Filename, "stem is stable across edits")
	assert.Equal(t, "Goodbye world", updated.Text)

	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(updated.AudioPath)))
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3 regenerated payload"), data)
}

func TestUpdateNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Update(context.Background(), uuid.New(), conversion.UpdateRequest{Text: "whatever"})
	assert.ErrorIs(t, err, conversion.ErrNotFound)
}

func TestUpdateSynthesisFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: "Hello world", Language: "en"})
	require.NoError(t, err)

	f.synth.err = errors.New("backend down")
	_, err = f.svc.Update(context.Background(), created.ID, conversion.UpdateRequest{Text: "new text", Language: "en"})

	var se *conversion.SynthesisError
	require.ErrorAs(t, err, &se)

	got, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", got.Text, "failed edit must not change the record")
}

func TestDeleteKeepsAudioFile(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: "Hello world", Language: "en"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), created.ID))

	listed, err := f.svc.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = os.Stat(filepath.Join(f.root, filepath.FromSlash(created.AudioPath)))
	assert.NoError(t, err, "audio file lifecycle is independent of the record")

	assert.ErrorIs(t, f.svc.Delete(context.Background(), created.ID), conversion.ErrNotFound)
}

func TestOpenAudio(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), conversion.CreateRequest{Text: "Hello world", Language: "en"})
	require.NoError(t, err)

	conv, rc, size, err := f.svc.OpenAudio(context.Background(), created.ID)
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, created.ID, conv.ID)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)
	assert.NotEmpty(t, data)

	_, _, _, err = f.svc.OpenAudio(context.Background(), uuid.New())
	assert.ErrorIs(t, err, conversion.ErrNotFound)
}
