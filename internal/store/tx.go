package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RetryConfig bounds how often a transaction is retried after lock
// contention.
type RetryConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// DefaultRetryConfig returns the retry settings a new Store uses.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseBackoff: 50 * time.Millisecond}
}

// withTx runs fn in a transaction, committing on success and rolling back on
// error or panic. Lock contention is retried with exponential backoff.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < s.retry.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("transaction cancelled before attempt %d: %w", attempt+1, err)
		}

		err := s.runTx(ctx, fn)
		if err == nil || !retryable(err) {
			return err
		}
		lastErr = err

		backoff := s.retry.BaseBackoff * time.Duration(1<<uint(attempt))
		s.logger.Debug("retrying transaction", zap.Int("attempt", attempt+1), zap.Duration("backoff", backoff), zap.Error(err))
		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction cancelled during retry: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", s.retry.MaxAttempts, lastErr)
}

func (s *Store) runTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// retryable reports lock contention: PostgreSQL deadlocks and serialization
// failures, and SQLite busy errors.
func retryable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"40p01", "40001", "deadlock detected", "could not serialize access", "database is locked"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
