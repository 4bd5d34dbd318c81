package contract

import (
	pkgerrors "github.com/angelmondragon/settlement-archiver/pkg/errors"
	"go.uber.org/multierr"
)

// Violation names one missing or malformed field by its path.
type Violation struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
}

func (v Violation) Error() string {
	return v.Field + " " + v.Problem
}

func collect(err error) []Violation {
	out := []Violation{}
	for _, e := range multierr.Errors(err) {
		if v, ok := e.(Violation); ok {
			out = append(out, v)
		}
	}
	return out
}

// Violations returns the violations carried by a CONTRACT_VIOLATION error.
func Violations(err error) []Violation {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeContractViolation {
		return nil
	}
	violations, _ := typed.Details().([]Violation)
	return violations
}
