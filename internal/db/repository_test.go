package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fedragon/go-vscrub/internal/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRepository(t *testing.T) *BoltRepository {
	t.Helper()

	dbase, err := Connect(filepath.Join(t.TempDir(), "journal", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbase.Close() })

	repo, err := NewRepository(dbase, zap.NewNop())
	require.NoError(t, err)

	r := repo.(*BoltRepository)
	r.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	return r
}

func TestRecordAndList(t *testing.T) {
	repo := newRepository(t)

	cursor := models.StoreLocation{Path: "/home/doge/.config/Cursor/User/globalStorage/state.vscdb", App: "Cursor"}
	code := models.StoreLocation{Path: "/home/doge/.config/Code/User/globalStorage/state.vscdb", App: "VS Code"}

	require.NoError(t, repo.Record(models.SanitizeResult{
		Location:   cursor,
		Outcome:    models.Succeeded,
		BackupPath: cursor.BackupPath(),
		Matched:    2,
		Deleted:    2,
	}))
	require.NoError(t, repo.Record(models.SanitizeResult{
		Location: code,
		Outcome:  models.DeleteFailed,
		Err:      errors.New("database is locked"),
	}))

	entries, err := repo.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, models.JournalEntry{
		Seq:     2,
		Time:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Path:    code.Path,
		App:     "VS Code",
		Outcome: models.DeleteFailed,
		Error:   "database is locked",
	}, entries[0])
	require.Equal(t, uint64(1), entries[1].Seq)
	require.Equal(t, cursor.BackupPath(), entries[1].BackupPath)
	require.EqualValues(t, 2, entries[1].Deleted)
}

func TestListLimit(t *testing.T) {
	repo := newRepository(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Record(models.SanitizeResult{Outcome: models.Succeeded}))
	}

	entries, err := repo.List(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, []uint64{5, 4, 3}, []uint64{entries[0].Seq, entries[1].Seq, entries[2].Seq})
}

func TestListEmptyJournal(t *testing.T) {
	repo := newRepository(t)

	entries, err := repo.List(10)
	require.NoError(t, err)
	require.Empty(t, entries)
}
