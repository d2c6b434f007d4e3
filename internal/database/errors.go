package database

import "fmt"

// Code is a stable machine-readable error code carried by every error
// the façade propagates.
type Code string

const (
	CodeBadConfig       Code = "BAD_CONFIG"
	CodeNoClient        Code = "NO_CLIENT_AVAILABLE"
	CodeOperationFailed Code = "OPERATION_FAILED"
	CodeTxAborted       Code = "TRANSACTION_ABORTED"
)

// ConnectionError reports a malformed endpoint URL or key shape, or a
// failed handshake. It is fatal and surfaced immediately.
type ConnectionError struct {
	Code   Code
	Reason string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection error [%s]: %s: %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("connection error [%s]: %s", e.Code, e.Reason)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// OperationError reports a failed CRUD or vector operation on a
// reachable endpoint. The façade does not retry these; recovery is
// opt-in through the error-recovery engine.
type OperationError struct {
	Code  Code
	Op    string
	Table string
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s on %q failed [%s]: %v", e.Op, e.Table, e.Code, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

func opError(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Code: CodeOperationFailed, Op: op, Table: table, Err: err}
}
