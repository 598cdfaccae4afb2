package domain

import (
	"errors"
	"strconv"
)

// ErrSessionNotFound is returned when a live session ID is not known to the host.
var ErrSessionNotFound = errors.New("session not found")

// ErrAttemptNotFound is returned when a registration has no persisted attempt in the store.
var ErrAttemptNotFound = errors.New("attempt not found")

// ErrorCode is a SCORM 2004 RTE error code.
type ErrorCode int

const (
	NoError ErrorCode = 0

	GeneralException             ErrorCode = 101
	GeneralInitializationFailure ErrorCode = 102
	AlreadyInitialized           ErrorCode = 103
	ContentInstanceTerminated    ErrorCode = 104

	GeneralTerminationFailure       ErrorCode = 111
	TerminationBeforeInitialization ErrorCode = 112
	TerminationAfterTermination     ErrorCode = 113

	RetrieveDataBeforeInitialization ErrorCode = 122
	RetrieveDataAfterTermination     ErrorCode = 123

	StoreDataBeforeInitialization ErrorCode = 132
	StoreDataAfterTermination     ErrorCode = 133

	CommitBeforeInitialization ErrorCode = 142
	CommitAfterTermination     ErrorCode = 143

	GeneralArgumentError ErrorCode = 201

	GeneralGetFailure    ErrorCode = 301
	GeneralSetFailure    ErrorCode = 351
	GeneralCommitFailure ErrorCode = 391

	UndefinedDataModelElement           ErrorCode = 401
	UnimplementedDataModelElement       ErrorCode = 402
	DataModelElementValueNotInitialized ErrorCode = 403
	DataModelElementIsReadOnly          ErrorCode = 404
	DataModelElementIsWriteOnly         ErrorCode = 405
	DataModelElementTypeMismatch        ErrorCode = 406
	DataModelElementValueOutOfRange     ErrorCode = 407
	DataModelDependencyNotEstablished   ErrorCode = 408
)

// String returns the code in the wire form SCOs read from GetLastError.
func (c ErrorCode) String() string {
	return strconv.Itoa(int(c))
}

// ParseErrorCode converts the wire form back to an ErrorCode.
// Only the canonical form String produces is accepted: decimal digits with
// no sign and no leading zeros, so "+401" and "0401" are rejected.
func ParseErrorCode(s string) (ErrorCode, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return ErrorCode(n), true
}
