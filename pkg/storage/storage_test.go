package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceKey(t *testing.T) {
	assert.Equal(t, "sources/mcq/abc123.txt", SourceKey("mcq", "abc123"))
	assert.Equal(t, "sources/__etc_/x.txt", SourceKey("../etc/", "x"))
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sources/mcq/a.txt", "sources/mcq/a.txt"},
		{"/leading//double/", "leading/double"},
		{"../../escape", "_/_/escape"},
		{"a:b/c?d", "a_b/c_d"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanKey(tt.in))
		})
	}
}

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	info, err := s.Put(ctx, SourceKey("mcq", "f1"), "text/plain; charset=utf-8", strings.NewReader("১. প্রশ্ন"))
	require.NoError(t, err)
	assert.Equal(t, "sources/mcq/f1.txt", info.Key)
	assert.Equal(t, int64(len("১. প্রশ্ন")), info.Size)

	_, err = s.Put(ctx, SourceKey("cq", "f2"), "text/plain", strings.NewReader("stem"))
	require.NoError(t, err)

	t.Run("get", func(t *testing.T) {
		rc, got, err := s.Get(ctx, "sources/mcq/f1.txt")
		require.NoError(t, err)
		defer rc.Close()
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "১. প্রশ্ন", string(body))
		assert.Equal(t, "text/plain; charset=utf-8", got.ContentType)
	})

	t.Run("list by prefix", func(t *testing.T) {
		all, err := s.List(ctx, "sources/")
		require.NoError(t, err)
		assert.Len(t, all, 2)

		mcq, err := s.List(ctx, "sources/mcq/")
		require.NoError(t, err)
		require.Len(t, mcq, 1)
		assert.Equal(t, "sources/mcq/f1.txt", mcq[0].Key)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "sources/cq/f2.txt"))
		_, err := s.Stat(ctx, "sources/cq/f2.txt")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, s.Delete(ctx, "sources/cq/f2.txt"))
	})

	t.Run("missing", func(t *testing.T) {
		_, _, err := s.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLocalStorage_EmptyList(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	files, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestNew_DefaultsToLocal(t *testing.T) {
	s, err := New(context.Background(), &Config{LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)
}

func TestNewS3Storage_RequiresBucket(t *testing.T) {
	_, err := NewS3Storage(context.Background(), &Config{Type: StorageTypeS3})
	assert.Error(t, err)
}
