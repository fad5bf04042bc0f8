package repository

import (
	"context"
	"database/sql"
	"time"
)

// Clock returns the current time. Repositories take one so tests can pin
// "now"; production code passes time.Now.
type Clock func() time.Time

// stamp returns now in UTC truncated to whole seconds so both drivers store
// and compare identical values.
func stamp(c Clock) time.Time {
	if c == nil {
		c = time.Now
	}
	return c().UTC().Truncate(time.Second)
}

// inTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise, including on panic.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
