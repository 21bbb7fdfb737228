package models

import "time"

// BackupSuffix is appended to a store path to name its backup copy.
const BackupSuffix = "_backup"

type Outcome string

const (
	Succeeded     Outcome = "succeeded"
	NotFound      Outcome = "not_found"
	BackupFailed  Outcome = "backup_failed"
	DeleteFailed  Outcome = "delete_failed"
	Restored      Outcome = "restored"
	RestoreFailed Outcome = "restore_failed"
)

// Failed reports whether the outcome should turn the run into a failure.
func (o Outcome) Failed() bool {
	switch o {
	case BackupFailed, DeleteFailed, RestoreFailed:
		return true
	}
	return false
}

// StoreLocation is a settings store on disk and the application owning it.
type StoreLocation struct {
	Path string
	App  string
}

func (l StoreLocation) BackupPath() string {
	return l.Path + BackupSuffix
}

type SanitizeResult struct {
	Location   StoreLocation
	Outcome    Outcome
	BackupPath string
	Matched    int64
	Deleted    int64
	DryRun     bool
	Err        error `json:"-"`
}

type StoreStats struct {
	Location StoreLocation
	Size     int64
	Rows     int64
	Matching int64
	Err      error `json:"-"`
}

type JournalEntry struct {
	Seq        uint64
	Time       time.Time
	Path       string
	App        string
	Outcome    Outcome
	BackupPath string `json:",omitempty"`
	Deleted    int64
	DryRun     bool   `json:",omitempty"`
	Error      string `json:",omitempty"`
}
