package sqlite

import (
	"errors"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/banshee-data/attention.report/internal/monitoring"
	"github.com/banshee-data/attention.report/internal/timeutil"
)

const (
	busyRetries     = 5
	busyBaseBackoff = 20 * time.Millisecond
)

// isBusy reports whether err is SQLite lock contention.
func isBusy(err error) bool {
	var se *msqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "database is locked")
}

// retryOnBusy runs fn, retrying with exponential backoff while it fails
// with lock contention. Any other error is returned immediately.
func retryOnBusy(clock timeutil.Clock, fn func() error) error {
	var err error
	for attempt := 0; attempt < busyRetries; attempt++ {
		if err = fn(); !isBusy(err) {
			return err
		}
		backoff := busyBaseBackoff << attempt
		monitoring.Debugf("[store] database busy, retry %d/%d in %s", attempt+1, busyRetries, backoff)
		clock.Sleep(backoff)
	}
	return err
}
