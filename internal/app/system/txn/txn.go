// Package txn holds the two write-coordination helpers used by the stores
// and handlers.
//
// Run executes a function inside a MongoDB multi-document transaction when
// the deployment supports one, and falls back to plain sequential writes on
// a standalone server.
//
// Retry drives optimistic read-modify-write loops: the callback returns
// ErrStale when its version-checked write matched nothing, and Retry runs
// it again up to MaxAttempts times before giving up with ErrConflict.
package txn

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxAttempts bounds optimistic retries.
const MaxAttempts = 5

// ErrStale is returned by a Retry callback whose conditional write lost a
// race with a concurrent writer.
var ErrStale = errors.New("txn: stale version")

// ErrConflict is surfaced to clients when Retry runs out of attempts.
var ErrConflict = apperr.Conflict("the record was modified concurrently, please retry")

// Retry calls fn until it returns something other than ErrStale, at most
// attempts times. attempts < 1 means MaxAttempts.
func Retry(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = MaxAttempts
	}
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if !errors.Is(err, ErrStale) {
			return err
		}
	}
	return ErrConflict
}

// Run executes fn in a transaction. If the server cannot run transactions
// (standalone mongod), fn is executed directly against ctx.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		if log != nil {
			log.Debug("transactions unavailable, running without", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

// notSupportedCodes are server codes seen when a deployment cannot host
// a transaction.
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation
	51:  true,
	263: true, // OperationNotSupportedInTransaction
}

var notSupportedWords = []string{
	"transaction",
	"replica set",
	"session",
	"not supported",
	"illegal operation",
}

// IsNotSupported reports whether err means transactions are unavailable.
// Drivers word this differently across versions, so a message mentioning
// two of the telltale phrases also counts.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && notSupportedCodes[ce.Code] {
		return true
	}
	msg := strings.ToLower(err.Error())
	hits := 0
	for _, w := range notSupportedWords {
		if strings.Contains(msg, w) {
			hits++
		}
	}
	return hits >= 2
}
