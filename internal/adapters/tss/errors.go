package tss

import (
	"strings"

	"github.com/go-faster/errors"
)

var (
	// ErrBatchRejected matches any *BatchError.
	ErrBatchRejected = errors.New("submission batch rejected")
	ErrInvalidState  = errors.New("invalid export state transition")
)

// FieldError is one failed presence or consistency check.
type FieldError struct {
	LineID     string `json:"lineId,omitempty"`
	EmployeeID string `json:"employeeId,omitempty"`
	Employee   string `json:"employee,omitempty"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

func (e FieldError) String() string {
	var b strings.Builder
	switch {
	case e.Employee != "":
		b.WriteString("employee " + e.Employee + " (" + e.EmployeeID + "): ")
	case e.EmployeeID != "":
		b.WriteString("employee " + e.EmployeeID + ": ")
	}
	b.WriteString(e.Field + ": " + e.Message)
	return b.String()
}

// BatchError lists every problem found in a rejected batch.
type BatchError struct {
	Problems []FieldError
}

func (e *BatchError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.String()
	}
	return ErrBatchRejected.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *BatchError) Is(target error) bool { return target == ErrBatchRejected }
