package cron

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReindexer struct {
	calls chan struct{}
	err   error
}

func (f *fakeReindexer) Reindex(ctx context.Context) (int, error) {
	f.calls <- struct{}{}
	return 3, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunNow(t *testing.T) {
	for _, err := range []error{nil, errors.New("db down")} {
		r := &fakeReindexer{calls: make(chan struct{}, 1), err: err}
		s := NewScheduler("0 3 * * *", r, discardLogger())

		s.RunNow()

		select {
		case <-r.calls:
		case <-time.After(time.Second):
			t.Fatal("reindex was not triggered")
		}
	}
}

func TestScheduler_StartStop(t *testing.T) {
	r := &fakeReindexer{calls: make(chan struct{}, 1)}
	s := NewScheduler("0 3 * * *", r, discardLogger())

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)

	<-s.Stop().Done()
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler("not a spec", &fakeReindexer{}, discardLogger())
	assert.Error(t, s.Start())
}
