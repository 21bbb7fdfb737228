package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fedragon/go-vscrub/internal/fs"
	"github.com/fedragon/go-vscrub/internal/models"
	"github.com/fedragon/go-vscrub/internal/store/storetest"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSanitizer struct {
	calls []models.StoreLocation
}

func (rs *recordingSanitizer) Sanitize(_ context.Context, l models.StoreLocation) models.SanitizeResult {
	rs.calls = append(rs.calls, l)
	return models.SanitizeResult{Location: l, Outcome: models.Succeeded}
}

func storePath(home, app string) string {
	return filepath.Join(home, ".config", app, "User", "globalStorage", "state.vscdb")
}

func newRunner(t *testing.T, home string, opts Options) *Runner {
	t.Helper()

	if opts.LockTimeout == 0 {
		opts.LockTimeout = 200 * time.Millisecond
	}

	return NewRunner(zap.NewNop(), fs.Platform{OS: fs.Linux, HomeDir: home}, opts)
}

func TestCleanSkipsMissingStores(t *testing.T) {
	home := t.TempDir()
	storetest.Create(t, storePath(home, "Cursor"))
	storetest.Create(t, storePath(home, "Void"))

	rs := &recordingSanitizer{}
	r := newRunner(t, home, Options{})
	r.sanitizer = rs

	results, err := r.Clean(context.Background())
	require.NoError(t, err)

	require.Equal(t, []models.StoreLocation{
		{Path: storePath(home, "Cursor"), App: "Cursor"},
		{Path: storePath(home, "Void"), App: "Void"},
	}, rs.calls)
	require.Len(t, results, 2)
}

func TestCleanUnsupportedPlatform(t *testing.T) {
	rs := &recordingSanitizer{}
	r := NewRunner(zap.NewNop(), fs.Platform{OS: "aix", HomeDir: t.TempDir()}, Options{})
	r.sanitizer = rs

	results, err := r.Clean(context.Background())
	require.ErrorIs(t, err, fs.ErrUnsupportedPlatform)
	require.Nil(t, results)
	require.Empty(t, rs.calls)
}

func TestCleanContinuesAfterFailure(t *testing.T) {
	home := t.TempDir()

	// Cursor's store is not a database, VS Code's is fine
	cursor := storePath(home, "Cursor")
	require.NoError(t, os.MkdirAll(filepath.Dir(cursor), 0o755))
	require.NoError(t, os.WriteFile(cursor, []byte("corrupted beyond repair"), 0o600))
	storetest.Create(t, storePath(home, "Code"),
		storetest.Row{Key: "augment.token", Value: "x"},
		storetest.Row{Key: "editor.theme", Value: "dark"},
	)

	journal := filepath.Join(t.TempDir(), "journal.db")
	r := newRunner(t, home, Options{JournalPath: journal})

	results, err := r.Clean(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, models.DeleteFailed, results[0].Outcome)
	require.Equal(t, "Cursor", results[0].Location.App)
	require.Equal(t, models.Succeeded, results[1].Outcome)
	require.Equal(t, "VS Code", results[1].Location.App)
	require.Equal(t, []storetest.Row{{Key: "editor.theme", Value: "dark"}}, storetest.Rows(t, storePath(home, "Code")))

	entries, err := r.History(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, models.Succeeded, entries[0].Outcome)
	require.Equal(t, models.DeleteFailed, entries[1].Outcome)
	require.NotEmpty(t, entries[1].Error)
}

func TestCleanWithUnusableJournal(t *testing.T) {
	home := t.TempDir()
	storetest.Create(t, storePath(home, "Code"), storetest.Row{Key: "augment.token", Value: "x"})

	// the journal path is a directory, so it cannot be opened
	journal := t.TempDir()
	r := newRunner(t, home, Options{JournalPath: journal})

	results, err := r.Clean(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, models.Succeeded, results[0].Outcome)
}

func TestCleanSelectedApps(t *testing.T) {
	home := t.TempDir()
	storetest.Create(t, storePath(home, "Cursor"))
	storetest.Create(t, storePath(home, "Code"))

	rs := &recordingSanitizer{}
	r := newRunner(t, home, Options{Apps: []string{"code"}})
	r.sanitizer = rs

	_, err := r.Clean(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.StoreLocation{{Path: storePath(home, "Code"), App: "VS Code"}}, rs.calls)
}

func TestRestoreAfterClean(t *testing.T) {
	home := t.TempDir()
	original := []storetest.Row{
		{Key: "augment.token", Value: "x"},
		{Key: "editor.theme", Value: "dark"},
	}
	storetest.Create(t, storePath(home, "Code"), original...)
	storetest.Create(t, storePath(home, "Void"), original...)

	r := newRunner(t, home, Options{Apps: []string{"code"}})
	results, err := r.Clean(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	r = newRunner(t, home, Options{})
	restored, err := r.Restore(context.Background())
	require.NoError(t, err)
	require.Len(t, restored, 1)
	require.Equal(t, models.Restored, restored[0].Outcome)
	require.Equal(t, original, storetest.Rows(t, storePath(home, "Code")))
}

func TestList(t *testing.T) {
	home := t.TempDir()
	storetest.Create(t, storePath(home, "Cursor"),
		storetest.Row{Key: "augment.token", Value: "x"},
		storetest.Row{Key: "augment.session", Value: "y"},
		storetest.Row{Key: "editor.theme", Value: "dark"},
	)

	stats, err := newRunner(t, home, Options{}).List(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)

	require.NoError(t, stats[0].Err)
	require.Equal(t, "Cursor", stats[0].Location.App)
	require.EqualValues(t, 3, stats[0].Rows)
	require.EqualValues(t, 2, stats[0].Matching)
	require.Positive(t, stats[0].Size)
}

func TestHistoryWithoutJournal(t *testing.T) {
	_, err := newRunner(t, t.TempDir(), Options{}).History(10)
	require.ErrorIs(t, err, ErrJournalDisabled)
}
