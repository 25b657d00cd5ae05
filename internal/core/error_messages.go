package core

// Error codes reference
//
//	FILE001 - Input missing: input file or directory does not exist
//	FILE002 - Permission denied: file can not be opened or created
//	FILE003 - Empty file: input has no header line
//	FILE004 - Cancelled: run was interrupted
//	FILE005 - Bad column header: second line could not be parsed
//	ROW001  - Field mismatch: record fields do not fit the output layout
//	ROW002  - Invalid CSV: row could not be parsed
//	CFG001  - Missing rule: output field without a resolution rule
//	CFG002  - Unknown layout: layout key is not registered
//	ERR000  - Anything else

import (
	"context"
	"encoding/csv"
	"errors"
	"io/fs"
)

// UserMessage is an operator-facing explanation of an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Stable code for support reference
}

var unknownError = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log for details",
	Code:    "ERR000",
}

type errorMatch struct {
	match func(error) bool
	msg   UserMessage
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

var errorMatches = []errorMatch{
	{is(fs.ErrNotExist), UserMessage{
		Message: "Input file or directory does not exist",
		Action:  "Check the input and output directory paths",
		Code:    "FILE001",
	}},
	{is(fs.ErrPermission), UserMessage{
		Message: "File can not be opened or created",
		Action:  "Check file and directory permissions",
		Code:    "FILE002",
	}},
	{is(ErrEmptyFile), UserMessage{
		Message: "The input file is empty",
		Action:  "Provide a file with a header line and a column header",
		Code:    "FILE003",
	}},
	{is(context.Canceled), UserMessage{
		Message: "The run was cancelled",
		Action:  "Rerun when ready; converted files are overwritten",
		Code:    "FILE004",
	}},
	{is(ErrColumnHeader), UserMessage{
		Message: "The column header row is not valid CSV",
		Action:  "Fix quoting in the second line of the file",
		Code:    "FILE005",
	}},
	{is(ErrFieldMismatch), UserMessage{
		Message: "Row fields do not match the output layout",
		Action:  "Check whether the file was already converted with extra columns",
		Code:    "ROW001",
	}},
	{func(err error) bool {
		var pe *csv.ParseError
		return errors.As(err, &pe)
	}, UserMessage{
		Message: "Row is not valid CSV",
		Action:  "Check quoting on the reported line",
		Code:    "ROW002",
	}},
	{is(ErrMissingRule), UserMessage{
		Message: "Layout has an output field without a rule",
		Action:  "Add a CopyFrom or Literal rule for every output field",
		Code:    "CFG001",
	}},
	{is(ErrUnknownLayout), UserMessage{
		Message: "Layout is not registered",
		Action:  "Set XFORM_LAYOUT to a registered layout key",
		Code:    "CFG002",
	}},
}

// MapError returns the user message for err.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, m := range errorMatches {
		if m.match(err) {
			return m.msg
		}
	}
	return unknownError
}
