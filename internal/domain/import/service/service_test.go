package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/question-bank/internal/domain/import/parser"
	"github.com/FACorreiaa/question-bank/internal/domain/import/repository"
	"github.com/FACorreiaa/question-bank/internal/domain/import/repository/repotest"
	"github.com/FACorreiaa/question-bank/internal/domain/import/sniffer"
	"github.com/FACorreiaa/question-bank/internal/domain/question"
	"github.com/FACorreiaa/question-bank/internal/domain/search"
	"github.com/FACorreiaa/question-bank/pkg/metrics"
	"github.com/FACorreiaa/question-bank/pkg/storage"
)

const mcqDocument = `[Subject: Physics] [Chapter: Motion]
1. What is dye?
a) A colouring substance
b) A metal
Correct: a
Explanation: Dyes add colour.
2. What is ink?
a) Liquid
b) Solid`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	svc     *ImportService
	repo    *repotest.Questions
	lessons *repotest.Lessons
	index   *search.Index
	dupes   *search.DuplicateDetector
	store   *storage.LocalStorage
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	idx, err := search.NewIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		repo:    repotest.NewQuestions(),
		lessons: repotest.NewLessons(),
		index:   idx,
		dupes:   search.NewDuplicateDetector(nil),
		store:   store,
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	f.svc = NewImportService(f.repo, f.lessons, discardLogger()).
		WithSearchIndex(idx).
		WithDuplicateDetector(f.dupes, 0).
		WithStorage(store).
		WithMetrics(f.metrics).
		WithWorkers(2)
	return f
}

func TestImport_StoresValidRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Import(ctx, ParseRequest{Text: mcqDocument, Kind: question.KindMCQ}, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Invalid)
	require.Len(t, res.IDs, 1)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, 1, res.Issues[0].Index)
	assert.Equal(t, "no correct answer set", res.Issues[0].Message)

	stored, err := f.svc.GetQuestion(ctx, res.IDs[0])
	require.NoError(t, err)
	mcq := stored.(question.MCQ)
	assert.Equal(t, "What is dye?", mcq.QuestionText)
	assert.Equal(t, "Physics", mcq.Subject)

	t.Run("source recorded and archived", func(t *testing.T) {
		require.Len(t, f.repo.Sources, 1)
		src := f.repo.Sources[0]
		assert.Equal(t, sniffer.Fingerprint(mcqDocument), src.Fingerprint)
		assert.Equal(t, "mcq", src.Format)
		assert.Equal(t, 1, src.Records)
		assert.Equal(t, res.SourceID, src.ID)

		assert.Equal(t, storage.SourceKey("mcq", src.Fingerprint), res.StorageKey)
		info, err := f.store.Stat(ctx, res.StorageKey)
		require.NoError(t, err)
		assert.Equal(t, int64(len(mcqDocument)), info.Size)
	})

	t.Run("indexed for search", func(t *testing.T) {
		hits, err := f.svc.Search(ctx, SearchRequest{Query: "dye"})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, res.IDs[0], hits[0].ID)
	})

	t.Run("metrics", func(t *testing.T) {
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ImportRecords.WithLabelValues("mcq", "imported")))
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ImportRecords.WithLabelValues("mcq", "invalid")))
		assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.ParsedRecords.WithLabelValues("mcq")))
	})

	t.Run("analyze sees the earlier import", func(t *testing.T) {
		a, err := f.svc.Analyze(ctx, mcqDocument)
		require.NoError(t, err)
		assert.Equal(t, sniffer.FormatMCQ, a.Detection.Format)
		require.NotNil(t, a.PreviousImport)
		assert.Equal(t, res.SourceID, a.PreviousImport.ID)
	})
}

func TestImport_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  ParseRequest
		want error
	}{
		{"blank text", ParseRequest{Text: "  \n"}, ErrInvalidInput},
		{"unknown kind", ParseRequest{Text: "1. Q?", Kind: "essay"}, ErrUnknownKind},
		{"no records", ParseRequest{Text: "[Subject: Physics]\n---", Kind: question.KindMCQ}, ErrNoQuestions},
		{"lesson document", ParseRequest{Text: "### Topic: Velocity\n#### Subtopic 1: Speed\nDefinition: d/t"}, ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Import(context.Background(), tt.req, ImportOptions{})
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, f.repo.Len())
		})
	}
}

func TestImport_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.BulkErr = errors.New("connection reset")

	_, err := f.svc.Import(context.Background(), ParseRequest{Text: mcqDocument, Kind: question.KindMCQ}, ImportOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store questions")
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ImportRecords.WithLabelValues("mcq", "failed")))
}

func TestImport_SniffsKind(t *testing.T) {
	f := newFixture(t)
	doc := "1. What is H2O?\nAnswer: Water\n2. What is NaCl?\nAnswer: Salt"

	res, err := f.svc.Import(context.Background(), ParseRequest{Text: doc}, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, "sq", f.repo.Sources[0].Format)
}

func TestImport_AppliesDefaults(t *testing.T) {
	f := newFixture(t)
	req := ParseRequest{
		Text:     mcqDocument,
		Kind:     question.KindMCQ,
		Defaults: question.Metadata{Subject: "Chemistry", Board: "Dhaka"},
	}

	pv, err := f.svc.Preview(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, pv.Questions, 2)
	meta := pv.Questions[0].Meta()
	assert.Equal(t, "Physics", meta.Subject, "document metadata wins over defaults")
	assert.Equal(t, "Dhaka", meta.Board)
	assert.Equal(t, "Motion", meta.Chapter)
}

func TestPreview_FlagsDuplicates(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.dupes.Build([]question.Question{
		question.MCQ{Key: &id, QuestionText: "What is dye?"},
		question.SQ{Question: "What is ink?"},
	})

	pv, err := f.svc.Preview(context.Background(), ParseRequest{Text: mcqDocument, Kind: question.KindMCQ})
	require.NoError(t, err)

	require.Len(t, pv.Duplicates, 1, "only same-kind records match")
	assert.Equal(t, 0, pv.Duplicates[0].Index)
	assert.Equal(t, &id, pv.Duplicates[0].ID)
	assert.Equal(t, 100, pv.Duplicates[0].Score)
	assert.Zero(t, f.repo.Len(), "preview stores nothing")
	assert.Equal(t, 1, pv.Validation.Valid)

	t.Run("skip duplicates on import", func(t *testing.T) {
		res, err := f.svc.Import(context.Background(), ParseRequest{Text: mcqDocument, Kind: question.KindMCQ}, ImportOptions{SkipDuplicates: true})
		assert.ErrorIs(t, err, ErrNoQuestions)
		require.NotNil(t, res)
		assert.Equal(t, 1, res.Duplicates)
		assert.Equal(t, 1, res.Invalid)
		assert.Equal(t, 0, res.Imported)
	})
}

func TestPreviewBatch_KeepsInputOrder(t *testing.T) {
	f := newFixture(t)
	reqs := []ParseRequest{
		{Text: mcqDocument, Kind: question.KindMCQ},
		{Text: "1. What is H2O? Answer: Water", Kind: question.KindSQ},
		{Text: "Stem: A dye colours cloth.\na. What is dye? (1)\nb. Name one dye. (2)", Kind: question.KindCQ},
	}

	got, err := f.svc.PreviewBatch(context.Background(), reqs)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, question.KindMCQ, got[0].Kind)
	assert.Len(t, got[0].Questions, 2)
	assert.Equal(t, question.KindSQ, got[1].Kind)
	assert.Len(t, got[1].Questions, 1)
	assert.Equal(t, question.KindCQ, got[2].Kind)
	assert.Equal(t, sniffer.Fingerprint(reqs[1].Text), got[1].Fingerprint)

	_, err = f.svc.PreviewBatch(context.Background(), []ParseRequest{{Text: ""}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPreviewBatch_ObservesEachDocument(t *testing.T) {
	f := newFixture(t)
	f.svc.WithWorkers(1)

	reqs := make([]ParseRequest, 20)
	for i := range reqs {
		reqs[i] = ParseRequest{Text: mcqDocument, Kind: question.KindMCQ}
	}

	start := time.Now()
	_, err := f.svc.PreviewBatch(context.Background(), reqs)
	wall := time.Since(start)
	require.NoError(t, err)

	var m dto.Metric
	hist, ok := f.metrics.ParseDuration.WithLabelValues("mcq").(prometheus.Histogram)
	require.True(t, ok)
	require.NoError(t, hist.Write(&m))

	assert.Equal(t, uint64(len(reqs)), m.GetHistogram().GetSampleCount())
	// one worker parses sequentially, so per-document times add up to less than the call
	assert.LessOrEqual(t, m.GetHistogram().GetSampleSum(), wall.Seconds())
}

func TestUpdateQuestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.Import(ctx, ParseRequest{Text: mcqDocument, Kind: question.KindMCQ}, ImportOptions{})
	require.NoError(t, err)
	id := res.IDs[0]

	t.Run("invalid record rejected", func(t *testing.T) {
		err := f.svc.UpdateQuestion(ctx, id, question.MCQ{QuestionText: "Only a stem"})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Len(t, vErr.Issues, 2)
		assert.Contains(t, err.Error(), "fewer than 2 options")
	})

	t.Run("unknown id", func(t *testing.T) {
		err := f.svc.UpdateQuestion(ctx, uuid.New(), question.SQ{Question: "Q", Answer: "A"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("stored and reindexed", func(t *testing.T) {
		updated := question.MCQ{
			QuestionText:  "What is pigment?",
			Options:       []question.Option{{Label: "a", Text: "Colour"}, {Label: "b", Text: "Sound"}},
			CorrectAnswer: "a",
		}
		require.NoError(t, f.svc.UpdateQuestion(ctx, id, updated))

		got, err := f.svc.GetQuestion(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "What is pigment?", got.(question.MCQ).QuestionText)

		hits, err := f.svc.Search(ctx, SearchRequest{Query: "pigment"})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, id, hits[0].ID)
	})
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Import(ctx, ParseRequest{Text: mcqDocument, Kind: question.KindMCQ}, ImportOptions{})
	require.NoError(t, err)

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := f.svc.Export(ctx, ExportText, repository.Filter{}, &buf)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Contains(t, buf.String(), "1. What is dye?")
		assert.Contains(t, buf.String(), "Correct: a")
	})

	t.Run("csv round trip through ImportFile", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := f.svc.Export(ctx, ExportCSV, repository.Filter{Kind: question.KindMCQ}, &buf)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(buf.String(), "type,"))

		other := newFixture(t)
		res, err := other.svc.ImportFile(ctx, ExportCSV, &buf)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Imported)

		qs, err := other.svc.ListQuestions(ctx, repository.Filter{})
		require.NoError(t, err)
		require.Len(t, qs, 1)
		assert.Equal(t, "What is dye?", qs[0].(question.MCQ).QuestionText)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := f.svc.Export(ctx, "pdf", repository.Filter{}, &bytes.Buffer{})
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})

	t.Run("unknown kind filter", func(t *testing.T) {
		_, err := f.svc.Export(ctx, ExportCSV, repository.Filter{Kind: "essay"}, &bytes.Buffer{})
		assert.ErrorIs(t, err, ErrUnknownKind)
	})
}

func TestSearch_Unavailable(t *testing.T) {
	svc := NewImportService(repotest.NewQuestions(), repotest.NewLessons(), discardLogger())

	_, err := svc.Search(context.Background(), SearchRequest{Query: "dye"})
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}

func TestReindex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gen := question.NewTestDataGeneratorWithSeed(7)
	meta := gen.Metadata()

	var qs []question.Question
	for _, q := range gen.MCQs(meta, 3) {
		qs = append(qs, q)
	}
	qs = append(qs, gen.SQ(meta))
	_, err := f.repo.BulkAddQuestions(ctx, qs, nil)
	require.NoError(t, err)

	n, err := f.svc.Reindex(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, n)
	assert.Equal(t, 4, f.dupes.Size())
	count, err := f.index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)
}

func TestImportLesson(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := `Subject: Physics
Chapter: Motion
### Topic: Velocity
#### Subtopic 1: Speed
Definition: Distance per unit time.
### Review Questions
Q1: Unit of speed?
a) m/s
b) m
Correct: a`

	ch, err := f.svc.ImportLesson(ctx, LessonRequest{Text: doc, Subject: "Physics 1st Paper"})
	require.NoError(t, err)

	require.NotNil(t, ch.ID)
	assert.Equal(t, "Physics 1st Paper", ch.Subject)
	assert.Equal(t, "Motion", ch.Chapter)
	require.Len(t, ch.Topics, 1)
	require.NotNil(t, ch.Topics[0].ID)
	assert.Len(t, ch.Topics[0].Questions, 1)

	chapters, err := f.svc.FetchLessons(ctx, "Physics 1st Paper")
	require.NoError(t, err)
	assert.Len(t, chapters, 1)

	_, err = f.svc.ImportLesson(ctx, LessonRequest{Text: " "})
	assert.ErrorIs(t, err, parser.ErrEmptyInput)
}

func TestAddReviewQuestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	topicID := uuid.New()

	qs, err := f.svc.AddReviewQuestions(ctx, topicID, "Q1: First?\na) x\nb) y\nCorrect: b")
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, qs, f.lessons.Added[topicID])

	_, err = f.svc.AddReviewQuestions(ctx, topicID, "")
	assert.ErrorIs(t, err, parser.ErrEmptyInput)

	_, err = f.svc.AddReviewQuestions(ctx, uuid.Nil, "Q1: First?\na) x\nCorrect: a")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestImportOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.ImportOverview(ctx, LessonRequest{
		Text:    "T-01: Motion basics\nContent one\nT-02: Forces\nContent two",
		Subject: "Physics",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.ID)
	require.Len(t, res.Overview.Topics, 2)
	assert.Equal(t, "T-02", res.Overview.Topics[1].ID)

	_, err = f.svc.ImportOverview(ctx, LessonRequest{Text: "no topics here"})
	assert.ErrorIs(t, err, ErrNoTopics)
}

func TestLessonEdits_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTopicAtPosition(ctx, uuid.New(), 0, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.CreateTopicAtPosition(ctx, uuid.New(), -1, "Forces")
	assert.ErrorIs(t, err, ErrInvalidInput)
	id, err := f.svc.CreateTopicAtPosition(ctx, uuid.New(), 2, "Forces")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	_, err = f.svc.RenameSubject(ctx, "", "Physics")
	assert.ErrorIs(t, err, ErrInvalidInput)
	n, err := f.svc.RenameSubject(ctx, "Physics", "Physics")
	require.NoError(t, err)
	assert.Zero(t, n)

	f.lessons.Renamed = 3
	n, err = f.svc.RenameSubject(ctx, "Physics", "Physics 1st Paper")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
