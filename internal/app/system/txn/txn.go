// Package txn runs multi-document writes in a MongoDB transaction when the
// deployment supports one, and directly otherwise.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runner executes fn atomically where possible.
type Runner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// MongoRunner is the Runner backed by a MongoDB database.
type MongoRunner struct {
	DB  *mongo.Database
	Log *zap.Logger
}

// Run implements Runner.
func (r MongoRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return Run(ctx, r.DB, r.Log, fn)
}

// Run executes fn inside a transaction. Standalone servers reject
// transactions; in that case fn runs once without one and the caller's
// own compensation is all that protects consistency.
func Run(ctx context.Context, db *mongo.Database, logger *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return runDirect(ctx, logger, fn, err)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return runDirect(ctx, logger, fn, err)
	}
	return err
}

func runDirect(ctx context.Context, logger *zap.Logger, fn func(ctx context.Context) error, cause error) error {
	if logger != nil {
		logger.Debug("transactions not supported; running without one", zap.Error(cause))
	}
	return fn(ctx)
}

// IsNotSupported reports whether err means the server cannot run
// transactions (standalone mongod, or a session-less topology).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }

	switch {
	case has("illegal operation"):
		return true
	case has("transaction") && (has("replica set") || has("session") || has("not supported")):
		return true
	case has("session") && has("not supported"):
		return true
	}
	return false
}

// Direct runs fn without a transaction.
type Direct struct{}

// Run implements Runner.
func (Direct) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
