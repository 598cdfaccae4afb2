package cmi

import (
	"errors"
	"fmt"

	"github.com/aretw0/scorm/pkg/domain"
)

// ValidationError is a data model rule violation.
// Code is the SCORM error the RTE must record; Diagnostic is the human readable detail
// returned by GetDiagnostic.
type ValidationError struct {
	Code       domain.ErrorCode
	Diagnostic string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scorm error %d: %s", e.Code, e.Diagnostic)
}

// Fail builds a ValidationError.
func Fail(code domain.ErrorCode, format string, args ...any) error {
	return &ValidationError{Code: code, Diagnostic: fmt.Sprintf(format, args...)}
}

func typeMismatch(format string, args ...any) error {
	return Fail(domain.DataModelElementTypeMismatch, format, args...)
}

func outOfRange(format string, args ...any) error {
	return Fail(domain.DataModelElementValueOutOfRange, format, args...)
}

// CodeOf extracts the SCORM code carried by err.
// Errors that are not ValidationErrors map to GeneralException.
func CodeOf(err error) domain.ErrorCode {
	if err == nil {
		return domain.NoError
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return domain.GeneralException
}

// DiagnosticOf extracts the diagnostic text carried by err.
func DiagnosticOf(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Diagnostic
	}
	return err.Error()
}
