package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// DBDetail is the driver-level context of a failed statement.
type DBDetail struct {
	Code       string `json:"pg_code,omitempty"`
	Constraint string `json:"pg_constraint,omitempty"`
	Table      string `json:"pg_table,omitempty"`
	Column     string `json:"pg_column,omitempty"`
	Detail     string `json:"pg_detail,omitempty"`
	Message    string `json:"pg_message,omitempty"`
}

// ErrorDump flattens an error chain for structured logs.
type ErrorDump struct {
	TopMessage string    `json:"top_message"`
	Code       Code      `json:"code,omitempty"`
	Chain      []string  `json:"chain,omitempty"`
	DB         *DBDetail `json:"db,omitempty"`
}

// Fields renders the dump as logger fields.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_chain": d.Chain,
	}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	if d.DB != nil {
		fields["pg_code"] = d.DB.Code
		fields["pg_constraint"] = d.DB.Constraint
		fields["pg_table"] = d.DB.Table
		fields["pg_column"] = d.DB.Column
		fields["pg_detail"] = d.DB.Detail
		fields["pg_message"] = d.DB.Message
	}
	return fields
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error(), DB: dbDetail(err)}
	if typed := As(err); typed != nil {
		d.Code = typed.code
	}
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	return d
}

// dbDetail understands both pgx (gorm's driver) and lib/pq errors.
func dbDetail(err error) *DBDetail {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return &DBDetail{
			Code:       pgErr.Code,
			Constraint: pgErr.ConstraintName,
			Table:      pgErr.TableName,
			Column:     pgErr.ColumnName,
			Detail:     pgErr.Detail,
			Message:    pgErr.Message,
		}
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return &DBDetail{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}
