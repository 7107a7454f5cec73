package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tableingest/internal/ident"
)

// Idents maps template placeholder names to identifiers.
type Idents map[string]ident.Identifier

// ErrUnknownPlaceholder is wrapped by a SecurityValidationError when a
// template names a placeholder that has no identifier.
var ErrUnknownPlaceholder = errors.New("placeholder has no identifier")

// errUnterminated is wrapped when a '{' has no matching '}'.
var errUnterminated = errors.New("unterminated placeholder")

// SecurityValidationError reports an identifier that failed re-validation at
// statement construction time. When it is returned nothing was executed.
type SecurityValidationError struct {
	Placeholder string
	Value       string
	Err         error
}

func (e *SecurityValidationError) Error() string {
	return fmt.Sprintf("security validation failed for {%s} = %q: %v", e.Placeholder, e.Value, e.Err)
}

func (e *SecurityValidationError) Unwrap() error { return e.Err }

// queryer is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor runs statement templates. A template holds identifiers as
// {name} placeholders and values as '?' markers:
//
//	SELECT COUNT(*) FROM {table} WHERE {col} = ?
//
// Each placeholder is resolved from an Idents map, validated with
// ident.Validate, and quoted by the dialect. Values are always passed as bind
// parameters; '?' is rewritten to the dialect's marker. Any failure happens
// before the database sees the statement.
type Executor struct {
	q queryer
	d Dialect
}

// NewExecutor returns an Executor running on q.
func NewExecutor(q queryer, d Dialect) *Executor {
	return &Executor{q: q, d: d}
}

// Dialect returns the executor's dialect.
func (e *Executor) Dialect() Dialect { return e.d }

// Exec renders template and executes it.
func (e *Executor) Exec(ctx context.Context, template string, ids Idents, args ...any) (sql.Result, error) {
	q, err := Render(e.d, template, ids)
	if err != nil {
		return nil, err
	}
	return e.q.ExecContext(ctx, q, args...)
}

// Query renders template and runs it as a query.
func (e *Executor) Query(ctx context.Context, template string, ids Idents, args ...any) (*sql.Rows, error) {
	q, err := Render(e.d, template, ids)
	if err != nil {
		return nil, err
	}
	return e.q.QueryContext(ctx, q, args...)
}

// QueryRow renders template and runs it as a single-row query. Render errors
// are returned directly; query errors surface from Row.Scan.
func (e *Executor) QueryRow(ctx context.Context, template string, ids Idents, args ...any) (*sql.Row, error) {
	q, err := Render(e.d, template, ids)
	if err != nil {
		return nil, err
	}
	return e.q.QueryRowContext(ctx, q, args...), nil
}

// Render turns a template into dialect SQL. Every {name} must have an entry in
// ids whose value passes ident.Validate; otherwise a *SecurityValidationError
// is returned. Entries of ids that the template does not use are ignored.
func Render(d Dialect, template string, ids Idents) (string, error) {
	var sb strings.Builder
	sb.Grow(len(template) + 16)

	param := 0
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", &SecurityValidationError{Placeholder: template[i+1:], Err: errUnterminated}
			}
			name := template[i+1 : i+1+end]
			id, ok := ids[name]
			if !ok {
				return "", &SecurityValidationError{Placeholder: name, Err: ErrUnknownPlaceholder}
			}
			if err := ident.Validate(string(id)); err != nil {
				return "", &SecurityValidationError{Placeholder: name, Value: string(id), Err: err}
			}
			sb.WriteString(d.QuoteIdent(id))
			i += end + 1
		case '?':
			param++
			sb.WriteString(d.Placeholder(param))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}

// ValidateIdents checks every entry of ids the way Render does. Bulk-load
// paths that hand identifiers to a driver API instead of a template call it
// first.
func ValidateIdents(ids Idents) error {
	for name, id := range ids {
		if err := ident.Validate(string(id)); err != nil {
			return &SecurityValidationError{Placeholder: name, Value: string(id), Err: err}
		}
	}
	return nil
}
