package ner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/docingest/internal/database"
	"github.com/nao1215/docingest/internal/model"
)

func TestMapLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label string
		want  model.EntityType
	}{
		{label: "PERSON", want: model.EntityPerson},
		{label: "ORG", want: model.EntityOrg},
		{label: "GPE", want: model.EntityPlace},
		{label: "LOC", want: model.EntityPlace},
		{label: "FAC", want: model.EntityPlace},
		{label: "person", want: model.EntityPerson},
		{label: "DATE", want: model.EntityOther},
		{label: "", want: model.EntityOther},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			t.Parallel()

			if got := MapLabel(tt.label); got != tt.want {
				t.Errorf("MapLabel(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text is unchanged", in: "Alice Smith", want: "Alice Smith"},
		{name: "whitespace runs collapse", in: "  New \n\tYork  ", want: "New York"},
		{name: "compatibility characters are folded", in: "ＡＣＭＥ", want: "ACME"},
		{name: "ligature is expanded", in: "ﬁnance", want: "finance"},
		{name: "blank becomes empty", in: " \t ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Canonicalize(tt.in); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMentions(t *testing.T) {
	t.Parallel()

	t.Run("locates entities with code point offsets", func(t *testing.T) {
		t.Parallel()

		text := "Café owner Alice met Bob in Paris."
		got := Mentions(text, []Entity{
			{Text: "Alice", Label: "PERSON"},
			{Text: "Paris", Label: "GPE"},
		})
		if len(got) != 2 {
			t.Fatalf("expected 2 mentions, got %d", len(got))
		}
		if got[0].Start != 11 || got[0].End != 16 || got[0].Type != model.EntityPerson {
			t.Errorf("unexpected first mention: %+v", got[0])
		}
		runes := []rune(text)
		if string(runes[got[1].Start:got[1].End]) != "Paris" {
			t.Errorf("offsets %d-%d do not cover Paris", got[1].Start, got[1].End)
		}
	})

	t.Run("repeated entity advances past the previous match", func(t *testing.T) {
		t.Parallel()

		got := Mentions("Bob and Bob", []Entity{
			{Text: "Bob", Label: "PERSON"},
			{Text: "Bob", Label: "PERSON"},
		})
		if len(got) != 2 {
			t.Fatalf("expected 2 mentions, got %d", len(got))
		}
		if got[0].Start != 0 || got[1].Start != 8 {
			t.Errorf("starts = %d, %d, want 0, 8", got[0].Start, got[1].Start)
		}
	})

	t.Run("token-joined entity matches across line breaks", func(t *testing.T) {
		t.Parallel()

		got := Mentions("Offices in New\nYork.", []Entity{{Text: "New York", Label: "GPE"}})
		if len(got) != 1 {
			t.Fatalf("expected 1 mention, got %d", len(got))
		}
		if got[0].Text != "New\nYork" || got[0].Canonical != "New York" {
			t.Errorf("unexpected mention: %+v", got[0])
		}
	})

	t.Run("entity missing from the text is dropped", func(t *testing.T) {
		t.Parallel()

		got := Mentions("Nothing here.", []Entity{{Text: "Alice", Label: "PERSON"}})
		if len(got) != 0 {
			t.Errorf("expected no mentions, got %+v", got)
		}
	})
}

type fakeRecognizer struct {
	mu    sync.Mutex
	calls int
	fail  string
}

func (f *fakeRecognizer) Recognize(_ context.Context, text string) ([]Entity, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.fail != "" && strings.Contains(text, f.fail) {
		return nil, errors.New("model failure")
	}
	var out []Entity
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,")
		if word != "" && word[0] >= 'A' && word[0] <= 'Z' {
			out = append(out, Entity{Text: word, Label: "PERSON"})
		}
	}
	return out, nil
}

type fakeStore struct {
	chunks []database.StoredChunk
	saved  map[int64][]model.Mention
}

func (f *fakeStore) ListChunks(_ context.Context, limit, offset int) ([]database.StoredChunk, error) {
	if offset >= len(f.chunks) {
		return nil, nil
	}
	end := min(offset+limit, len(f.chunks))
	return f.chunks[offset:end], nil
}

func (f *fakeStore) SaveMentions(_ context.Context, chunkID int64, mentions []model.Mention) error {
	if f.saved == nil {
		f.saved = make(map[int64][]model.Mention)
	}
	f.saved[chunkID] = append(f.saved[chunkID], mentions...)
	return nil
}

type rejectContaining string

func (r rejectContaining) Accept(text string) bool {
	return !strings.Contains(text, string(r))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunner(t *testing.T) {
	t.Parallel()

	newStore := func() *fakeStore {
		return &fakeStore{chunks: []database.StoredChunk{
			{ID: 1, Text: "Alice met Bob."},
			{ID: 2, Text: ""},
			{ID: 3, Text: "der hund sah Carol."},
			{ID: 4, Text: "then Dave left."},
		}}
	}

	t.Run("recognizes and saves mentions", func(t *testing.T) {
		t.Parallel()

		store := newStore()
		runner := NewRunner(store, &fakeRecognizer{},
			WithLanguageFilter(nil), WithWorkers(3), WithLogger(quietLogger()))

		summary, err := runner.Run(context.Background(), 10, 0)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if summary.Chunks != 3 || summary.Mentions != 4 {
			t.Errorf("unexpected summary: %+v", summary)
		}
		if got := store.saved[1]; len(got) != 2 || got[1].Canonical != "Bob" {
			t.Errorf("unexpected mentions for chunk 1: %+v", got)
		}
		if _, ok := store.saved[2]; ok {
			t.Error("empty chunk should not be recognized")
		}
	})

	t.Run("language filter skips rejected chunks", func(t *testing.T) {
		t.Parallel()

		store := newStore()
		rec := &fakeRecognizer{}
		runner := NewRunner(store, rec,
			WithLanguageFilter(rejectContaining("hund")), WithLogger(quietLogger()))

		summary, err := runner.Run(context.Background(), 10, 0)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if summary.Skipped != 1 || rec.calls != 2 {
			t.Errorf("unexpected summary %+v with %d recognizer calls", summary, rec.calls)
		}
		if _, ok := store.saved[3]; ok {
			t.Error("skipped chunk should have no mentions")
		}
	})

	t.Run("recognizer failure is counted and the run continues", func(t *testing.T) {
		t.Parallel()

		store := newStore()
		runner := NewRunner(store, &fakeRecognizer{fail: "Alice"},
			WithLanguageFilter(nil), WithLogger(quietLogger()))

		summary, err := runner.Run(context.Background(), 10, 0)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if summary.Failed != 1 {
			t.Errorf("Failed = %d, want 1", summary.Failed)
		}
		if len(store.saved[4]) != 1 {
			t.Errorf("later chunk should still be saved, got %+v", store.saved[4])
		}
	})

	t.Run("limit and offset select the window", func(t *testing.T) {
		t.Parallel()

		store := newStore()
		runner := NewRunner(store, &fakeRecognizer{},
			WithLanguageFilter(nil), WithLogger(quietLogger()))

		summary, err := runner.Run(context.Background(), 2, 2)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if summary.Chunks != 2 {
			t.Errorf("Chunks = %d, want 2", summary.Chunks)
		}
		if _, ok := store.saved[1]; ok {
			t.Error("chunk before the offset should not be processed")
		}
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		runner := NewRunner(newStore(), &fakeRecognizer{},
			WithLanguageFilter(nil), WithLogger(quietLogger()))
		if _, err := runner.Run(ctx, 10, 0); !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	})
}

func TestRunnerWithCorpusDB(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir()+"/corpus.db", database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.LoadDocument(ctx, database.Document{SourceURL: "https://example.com/a.pdf", FileSHA256: "abc"},
		[]model.Chunk{{PageNo: 1, ChunkNo: 1, Text: "Alice met Bob."}}); err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}

	runner := NewRunner(db, &fakeRecognizer{}, WithLanguageFilter(nil), WithLogger(quietLogger()))
	for range 2 {
		if _, err := runner.Run(ctx, 10, 0); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	}

	counts, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if counts.Entities != 2 || counts.Mentions != 2 {
		t.Errorf("rerun should be idempotent, got %+v", counts)
	}
}

func TestProseRecognizer(t *testing.T) {
	t.Parallel()

	r := NewProseRecognizer()
	ctx := context.Background()

	if _, err := r.Recognize(ctx, "The court met in Washington."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := r.model
	if first == nil {
		t.Fatal("model should be loaded after the first call")
	}

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Recognize(ctx, "Another sentence about New York."); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if r.model != first {
		t.Error("model should be decoded once and reused")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := r.Recognize(cancelled, "text"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
