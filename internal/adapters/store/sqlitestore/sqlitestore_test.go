package sqlitestore

import (
	"path/filepath"
	"testing"

	"github.com/dkeye/Stream/internal/adapters/store"
	"github.com/dkeye/Stream/internal/adapters/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(filepath.Join(t.TempDir(), "stream.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStore_ReopenKeepsSchema(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "stream.db")

	s, err := Open(path)
	req.NoError(err)
	rec, err := store.NewStreamRecord("persisted", "alice", s.now())
	req.NoError(err)
	req.NoError(s.CreateStream(t.Context(), rec))
	req.NoError(s.Close())

	s, err = Open(path)
	req.NoError(err)
	defer s.Close()
	got, err := s.GetStream(t.Context(), rec.ID)
	req.NoError(err)
	req.Equal(rec.ID, got.ID)
}
