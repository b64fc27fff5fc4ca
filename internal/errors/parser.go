package errors

import (
	stderrors "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes we translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

// FromDB translates a repository error into an application error.
// notFound is returned for gorm.ErrRecordNotFound; pass nil to get a
// generic RESOURCE_NOT_FOUND. Already-classified errors pass through.
func FromDB(err error, notFound *Error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}

	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		if notFound != nil {
			return notFound
		}
		return NotFound(ResourceNotFound, "resource not found")
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return duplicate(columnFromConstraint(pgErr.ConstraintName, pgErr.TableName), err)
		case pgForeignKeyViolation:
			return referenceMissing(columnFromConstraint(pgErr.ConstraintName, pgErr.TableName), err)
		case pgNotNullViolation:
			field := pgErr.ColumnName
			return &Error{Kind: KindValidation, Code: ValidationRequired, Message: field + " is required",
				Fields: map[string]string{field: "this field is required"}, Err: err}
		case pgCheckViolation:
			return &Error{Kind: KindValidation, Code: ValidationInvalidRange, Message: "value out of range", Err: err}
		}
	}

	// SQLite reports constraint failures as plain text: "UNIQUE constraint failed: stores.domain".
	msg := err.Error()
	if rest, ok := cutAfter(msg, "UNIQUE constraint failed: "); ok {
		return duplicate(columnFromQualified(rest), err)
	}
	if strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return referenceMissing("", err)
	}
	if rest, ok := cutAfter(msg, "NOT NULL constraint failed: "); ok {
		field := columnFromQualified(rest)
		return &Error{Kind: KindValidation, Code: ValidationRequired, Message: field + " is required",
			Fields: map[string]string{field: "this field is required"}, Err: err}
	}

	return &Error{Kind: KindInternal, Code: InternalDatabaseError, Message: "database error", Err: err}
}

func duplicate(field string, cause error) *Error {
	code := ValidationDuplicate
	switch field {
	case "email":
		code = AuthEmailAlreadyExists
	case "username":
		code = AuthUsernameExists
	}
	fields := map[string]string{}
	message := "value already exists"
	if field != "" {
		message = field + " already exists"
		fields[field] = "must be unique"
	}
	return &Error{Kind: KindValidation, Code: code, Message: message, Fields: fields, Err: cause}
}

func referenceMissing(field string, cause error) *Error {
	fields := map[string]string{}
	message := "referenced record does not exist"
	if field != "" {
		fields[field] = message
	}
	return &Error{Kind: KindValidation, Code: ValidationInvalidInput, Message: message, Fields: fields, Err: cause}
}

// columnFromConstraint maps gorm's index names (idx_<table>_<column>,
// fk_<table>_<column>) back to the column.
func columnFromConstraint(constraint, table string) string {
	name := strings.ToLower(constraint)
	for _, prefix := range []string{"idx_" + table + "_", "uni_" + table + "_", "fk_" + table + "_"} {
		if strings.HasPrefix(name, prefix) {
			return strings.TrimPrefix(name, prefix)
		}
	}
	name = strings.TrimSuffix(name, "_key")
	name = strings.TrimPrefix(name, table+"_")
	return name
}

// columnFromQualified takes "table.column[, table.column]" and returns the first column.
func columnFromQualified(s string) string {
	first, _, _ := strings.Cut(s, ",")
	if _, col, ok := strings.Cut(strings.TrimSpace(first), "."); ok {
		return col
	}
	return strings.TrimSpace(first)
}

func cutAfter(s, marker string) (string, bool) {
	i := strings.Index(s, marker)
	if i < 0 {
		return "", false
	}
	return s[i+len(marker):], true
}
