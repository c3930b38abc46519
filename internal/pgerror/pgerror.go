package pgerror

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Constraints of the probe_results table.
const (
	PortCheck   = "probe_results_port_check"
	ResultsPkey = "probe_results_pkey"
)

var (
	ErrPortOutOfRange = errors.New("port out of range")
	ErrResultExists   = errors.New("result already stored")
)

var byConstraint = map[string]error{
	PortCheck:   ErrPortOutOfRange,
	ResultsPkey: ErrResultExists,
}

// GetConstraintName returns the violated constraint for integrity errors:
// unique, foreign key, check and not null.
func GetConstraintName(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	switch pgErr.Code {
	case "23505", "23503", "23514", "23502":
		if pgErr.ConstraintName != "" {
			return pgErr.ConstraintName, true
		}
	}
	return "", false
}

// Map turns a violation of a probe_results constraint into its sentinel,
// keeping err in the chain. Other errors are returned as is.
func Map(err error) error {
	constraint, ok := GetConstraintName(err)
	if !ok {
		return err
	}
	if sentinel, known := byConstraint[constraint]; known {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return fmt.Errorf("violates %s: %w", constraint, err)
}
