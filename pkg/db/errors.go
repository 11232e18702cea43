package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
)

// ErrContention is returned by RunAtomic when the serialization retry budget
// is exhausted. Callers map it to a retryable 409.
var ErrContention = pkgerrors.New(pkgerrors.CodeContention, "transaction aborted by concurrent update")

// Postgres class 40 codes that mean the transaction should be retried.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation constraint. When constraintName is provided, the helper looks
// for the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}

// IsSerializationFailure reports whether err is a transient transaction abort
// that a fresh attempt could succeed on.
func IsSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	msg := err.Error()
	return strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "deadlock detected")
}
