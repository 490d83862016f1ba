package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/bawdo/sqlwrapper/clauses"
	"github.com/bawdo/sqlwrapper/nodes"
)

const (
	commitSQL   = "COMMIT;"
	rollbackSQL = "ROLLBACK;"
)

func (a *Adapter) transactionSQL(action clauses.Action, modes []string) (string, error) {
	return (&nodes.TransactionStatement{Action: action, Modes: modes}).Accept(a.visitor)
}

// TransactionMode changes the modes of the running transaction with
// SET TRANSACTION. It has to run before the first query of the transaction.
func (a *Adapter) TransactionMode(ctx context.Context, modes ...string) error {
	sql, err := a.transactionSQL(clauses.Set, modes)
	if err != nil {
		return err
	}
	if a.level == 0 {
		return fmt.Errorf("set transaction: %w", ErrNotInTransaction)
	}
	_, err = a.execute(ctx, "set transaction", sql, 0, nil)
	return err
}

// Transaction runs fn inside a transaction. The outermost call executes
// BEGIN TRANSACTION with the configured modes, then COMMIT when fn returns
// nil and ROLLBACK when it returns an error or panics. Nested calls join
// the outer transaction.
//
// The Executor has to run all statements on one connection, see
// sqldb.DB.Pin.
func (a *Adapter) Transaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if a.level > 0 {
		a.level++
		a.logger.Debug("joining transaction", "level", a.level)
		defer func() { a.level-- }()
		return fn(ctx)
	}

	begin, err := a.transactionSQL(clauses.Begin, a.modes)
	if err != nil {
		return err
	}
	if _, err := a.execute(ctx, "begin", begin, 0, nil); err != nil {
		return err
	}
	a.level = 1
	a.logger.Debug("transaction started", "modes", a.modes)

	defer func() {
		a.level = 0
		if p := recover(); p != nil {
			_ = a.rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := a.rollback(ctx); rbErr != nil {
				err = errors.Join(err, rbErr)
			}
			return
		}
		if _, cErr := a.execute(ctx, "commit", commitSQL, 0, nil); cErr != nil {
			err = cErr
			return
		}
		a.logger.Debug("transaction committed")
	}()
	return fn(ctx)
}

func (a *Adapter) rollback(ctx context.Context) error {
	_, err := a.execute(ctx, "rollback", rollbackSQL, 0, nil)
	if err != nil {
		a.logger.Error("rollback failed", "error", err)
		return err
	}
	a.logger.Debug("transaction rolled back")
	return nil
}
