package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a postgres unique-constraint
// violation. The review uniqueness invariant relies on this: two
// concurrent creates can both pass the application-level existence check,
// so the index is the arbiter and the loser's error is mapped here.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// UniqueViolationConstraint returns the name of the violated unique
// constraint, or "" when err is not a unique violation. Callers use it
// to tell a username collision from an email collision when both races
// end in the same error code.
func UniqueViolationConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName
	}
	return ""
}
