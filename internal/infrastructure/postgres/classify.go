package postgres

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/profile-hub/internal/domain/storeerr"
)

// Postgres error codes this adapter maps to outcome kinds. Checked before any
// text heuristics; substring matching is only a last resort for transport
// failures, which carry no structured code.
const (
	codeUniqueViolation     = "23505"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeForeignKeyViolation = "23503"
	codeStringTooLong       = "22001"
	codeInvalidTextRepr     = "22P02"
	codeInvalidDatetime     = "22007"
	codeInsufficientPriv    = "42501"
	codeUndefinedTable      = "42P01"
	codeUndefinedColumn     = "42703"
	codeQueryCanceled       = "57014"
	codeAdminShutdown       = "57P01"
)

var connectivityHints = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"timeout",
	"broken pipe",
	"dial tcp",
	"failed to connect",
}

// Classify translates a driver error into the fixed outcome taxonomy.
// Already-classified errors pass through unchanged.
func Classify(err error) *storeerr.Error {
	if err == nil {
		return nil
	}
	var se *storeerr.Error
	if errors.As(err, &se) {
		return se
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return storeerr.New(storeerr.KindNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPgError(pgErr)
	}

	if isConnectivity(err) {
		return storeerr.New(storeerr.KindConnectivity, err)
	}
	return storeerr.New(storeerr.KindUnknown, err)
}

func classifyPgError(pgErr *pgconn.PgError) *storeerr.Error {
	e := &storeerr.Error{
		Code:   pgErr.Code,
		Detail: pgErr.Message,
		Hint:   pgErr.Hint,
		Cause:  pgErr,
	}
	if pgErr.Detail != "" {
		e.Detail = pgErr.Message + ": " + pgErr.Detail
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		e.Kind = storeerr.KindConflict
		if mentionsEmail(pgErr) {
			e.UserMessage = storeerr.MsgEmailConflict
		} else {
			e.UserMessage = storeerr.MsgGenericConflict
		}
	case codeNotNullViolation, codeCheckViolation, codeForeignKeyViolation,
		codeStringTooLong, codeInvalidTextRepr, codeInvalidDatetime:
		e.Kind = storeerr.KindValidation
		e.UserMessage = storeerr.MsgValidation
	case codeInsufficientPriv:
		e.Kind = storeerr.KindAuthorization
		e.UserMessage = storeerr.MsgAuthorization
	case codeUndefinedTable, codeUndefinedColumn:
		e.Kind = storeerr.KindNotFound
		e.UserMessage = storeerr.MsgNotFound
	case codeQueryCanceled, codeAdminShutdown:
		e.Kind = storeerr.KindConnectivity
		e.UserMessage = storeerr.MsgConnectivity
	default:
		e.Kind = storeerr.KindUnknown
		e.UserMessage = storeerr.MsgUnknown
	}
	return e
}

// mentionsEmail decides between the email-specific and the generic duplicate
// message for unique violations.
func mentionsEmail(pgErr *pgconn.PgError) bool {
	for _, s := range []string{pgErr.ConstraintName, pgErr.Detail, pgErr.Message} {
		if strings.Contains(strings.ToLower(s), "email") {
			return true
		}
	}
	return false
}

func isConnectivity(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range connectivityHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
