package runtime

import (
	"github.com/aretw0/scorm/pkg/domain"
)

type lifecycleCode struct {
	before domain.ErrorCode
	after  domain.ErrorCode
}

var lifecycleCodes = map[string]lifecycleCode{
	domain.MethodGetValue:  {domain.RetrieveDataBeforeInitialization, domain.RetrieveDataAfterTermination},
	domain.MethodSetValue:  {domain.StoreDataBeforeInitialization, domain.StoreDataAfterTermination},
	domain.MethodCommit:    {domain.CommitBeforeInitialization, domain.CommitAfterTermination},
	domain.MethodTerminate: {domain.CommitBeforeInitialization, domain.CommitAfterTermination},
}

var errorStrings = map[domain.ErrorCode]string{
	domain.NoError:                             "No Error",
	domain.GeneralException:                    "General Exception",
	domain.GeneralInitializationFailure:        "General Initialization Failure",
	domain.AlreadyInitialized:                  "Already Initialized",
	domain.ContentInstanceTerminated:           "Content Instance Terminated",
	domain.GeneralTerminationFailure:           "General Termination Failure",
	domain.TerminationBeforeInitialization:     "Termination Before Initialization",
	domain.TerminationAfterTermination:         "Termination After Termination",
	domain.RetrieveDataBeforeInitialization:    "Retrieve Data Before Initialization",
	domain.RetrieveDataAfterTermination:        "Retrieve Data After Termination",
	domain.StoreDataBeforeInitialization:       "Store Data Before Initialization",
	domain.StoreDataAfterTermination:           "Store Data After Termination",
	domain.CommitBeforeInitialization:          "Commit Before Initialization",
	domain.CommitAfterTermination:              "Commit After Termination",
	domain.GeneralArgumentError:                "General Argument Error",
	domain.GeneralGetFailure:                   "General Get Failure",
	domain.GeneralSetFailure:                   "General Set Failure",
	domain.GeneralCommitFailure:                "General Commit Failure",
	domain.UndefinedDataModelElement:           "Undefined Data Model Element",
	domain.UnimplementedDataModelElement:       "Unimplemented Data Model Element",
	domain.DataModelElementValueNotInitialized: "Data Model Element Value Not Initialized",
	domain.DataModelElementIsReadOnly:          "Data Model Element Is Read Only",
	domain.DataModelElementIsWriteOnly:         "Data Model Element Is Write Only",
	domain.DataModelElementTypeMismatch:        "Data Model Element Type Mismatch",
	domain.DataModelElementValueOutOfRange:     "Data Model Element Value Out Of Range",
	domain.DataModelDependencyNotEstablished:   "Data Model Dependency Not Established",
}

var diagnostics = map[domain.ErrorCode]string{
	domain.NoError:                             "The previous API call completed successfully.",
	domain.GeneralException:                    "An unexpected condition prevented the request from completing.",
	domain.GeneralInitializationFailure:        "The communication session could not be initialized.",
	domain.AlreadyInitialized:                  "Initialize may only be called once per API instance.",
	domain.ContentInstanceTerminated:           "The API instance has already been terminated.",
	domain.GeneralTerminationFailure:           "The communication session could not be terminated.",
	domain.TerminationBeforeInitialization:     "Terminate was called before Initialize.",
	domain.TerminationAfterTermination:         "Terminate was called after the session was terminated.",
	domain.RetrieveDataBeforeInitialization:    "GetValue was called before Initialize.",
	domain.RetrieveDataAfterTermination:        "GetValue was called after Terminate.",
	domain.StoreDataBeforeInitialization:       "SetValue was called before Initialize.",
	domain.StoreDataAfterTermination:           "SetValue was called after Terminate.",
	domain.CommitBeforeInitialization:          "Commit or Terminate was called before Initialize.",
	domain.CommitAfterTermination:              "Commit or Terminate was called after Terminate.",
	domain.GeneralArgumentError:                "An argument was invalid; lifecycle calls expect an empty string.",
	domain.GeneralGetFailure:                   "The value could not be retrieved.",
	domain.GeneralSetFailure:                   "The value could not be stored.",
	domain.GeneralCommitFailure:                "The data could not be committed.",
	domain.UndefinedDataModelElement:           "The element name is not part of the data model.",
	domain.UnimplementedDataModelElement:       "The element is defined by SCORM 2004 but not implemented by this runtime.",
	domain.DataModelElementValueNotInitialized: "The element has not been given a value yet.",
	domain.DataModelElementIsReadOnly:          "The element cannot be written by content.",
	domain.DataModelElementIsWriteOnly:         "The element cannot be read by content.",
	domain.DataModelElementTypeMismatch:        "The value does not match the data type of the element.",
	domain.DataModelElementValueOutOfRange:     "The value is outside the range allowed for the element.",
	domain.DataModelDependencyNotEstablished:   "The element depends on another element that has not been set.",
}

const unknownError = "Unknown error"

// ErrorString maps a decimal error code to its standard text.
// Codes outside the SCORM 2004 table yield "Unknown error".
func ErrorString(code string) string {
	c, ok := domain.ParseErrorCode(code)
	if !ok {
		return unknownError
	}
	if s, ok := errorStrings[c]; ok {
		return s
	}
	return unknownError
}

// Diagnostic returns the generic diagnostic for code. It is never empty.
func Diagnostic(code string) string {
	if c, ok := domain.ParseErrorCode(code); ok {
		if d, ok := diagnostics[c]; ok {
			return d
		}
	}
	return "No diagnostic information is available for error code " + code + "."
}
