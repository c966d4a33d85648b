package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Field attaches the name of a model or message attribute to err. The name
// follows the Go struct field, for example DepositFeeRateBps or
// Balance.Units for a nested value. Field returns nil when err is nil so
// that a validation result can be passed through without a check.
func Field(name string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) != 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &fieldError{parent: err, field: name, desc: description}
}

// AppendField appends err, annotated with the attribute name, to errs. Both
// errs and err can be nil.
//
//	errs = errors.AppendField(errs, "Balance", a.Balance.Validate())
func AppendField(errs error, name string, err error) error {
	return Append(errs, Field(name, err, ""))
}

type fieldError struct {
	parent error
	field  string
	desc   string
}

func (e *fieldError) Error() string {
	msg := fmt.Sprintf("field %q: ", e.field)
	if e.desc != "" {
		msg += e.desc + ": "
	}
	return msg + e.parent.Error()
}

func (e *fieldError) Cause() error { return e.parent }

func (e *fieldError) Field() string { return e.field }

// FieldErrors returns errors attached to the attribute with given name. It
// looks into every error joined with Append and follows the cause chain,
// including the causes of errors attached to other attributes.
func FieldErrors(err error, name string) []error {
	var found []error
	for !isNilErr(err) {
		if f, ok := err.(fielder); ok && f.Field() == name {
			return append(found, err)
		}
		switch e := err.(type) {
		case unpacker:
			for _, inner := range e.Unpack() {
				found = append(found, FieldErrors(inner, name)...)
			}
			return found
		case causer:
			err = e.Cause()
		default:
			return found
		}
	}
	return found
}

type fielder interface {
	Field() string
}
