package storage

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// RetryPolicy bounds how long a mirror write waits out a locked database.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

// mirrorWrites is the policy for CONTROL_LOG inserts. Another process
// holding the file (the verify script, a backup) usually releases it
// within a few milliseconds.
var mirrorWrites = RetryPolicy{Attempts: 4, BaseDelay: 10 * time.Millisecond}

// Do runs fn until it succeeds, fails with a non-lock error, or the policy
// runs out of attempts. The delay doubles after each try, plus jitter.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	delay := p.BaseDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !isLockContention(err) || attempt >= p.Attempts {
			return err
		}
		wait := delay + time.Duration(rand.Int64N(int64(delay)+1)) //nolint:gosec // jitter only
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
	}
}

// isLockContention reports SQLITE_BUSY and SQLITE_LOCKED, including their
// extended codes.
func isLockContention(err error) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	primary := sqlErr.Code() & 0xff
	return primary == sqlite3.SQLITE_BUSY || primary == sqlite3.SQLITE_LOCKED
}
