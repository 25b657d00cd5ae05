package core

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmptyFile is returned when an input file has no first line.
	ErrEmptyFile = errors.New("empty file: no header line")

	// ErrFieldMismatch is returned when a record does not fit the output fields.
	ErrFieldMismatch = errors.New("record fields do not match output fields")

	// ErrMissingRule is returned when an output field has no resolution rule.
	ErrMissingRule = errors.New("output field has no resolution rule")

	// ErrUnknownLayout is returned when a layout key is not registered.
	ErrUnknownLayout = errors.New("unknown layout")

	// ErrColumnHeader is returned when the column header row can not be parsed.
	ErrColumnHeader = errors.New("invalid column header")
)

// RuleKind tells how an output field gets its value.
type RuleKind int

const (
	// RuleCopy copies the value of a named input field.
	RuleCopy RuleKind = iota
	// RuleLiteral uses a constant value.
	RuleLiteral
)

func (k RuleKind) String() string {
	switch k {
	case RuleCopy:
		return "copy"
	case RuleLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Rule resolves the value of one output field.
type Rule struct {
	Kind  RuleKind
	Field string // Source field for RuleCopy
	Value string // Constant for RuleLiteral
}

// CopyFrom returns a rule that copies the named input field.
// When a row has no such field the output value is empty; the field name
// itself is never written as a value.
func CopyFrom(field string) Rule {
	return Rule{Kind: RuleCopy, Field: field}
}

// Literal returns a rule that always yields value.
func Literal(value string) Rule {
	return Rule{Kind: RuleLiteral, Value: value}
}

// Layout describes an output record layout.
type Layout struct {
	Key      string          // Unique identifier: "security_positions"
	Label    string          // Display name
	Fields   []string        // Output field names, in output order
	Rules    map[string]Rule // Output field -> rule
	Sentinel string          // Field whose presence marks a record as already converted

	// Table is set for layouts built by NewLegacyLayout. Its rules are
	// resolved against each file's column header by ForColumns.
	Table map[string]string
}

// RowStage is the step at which a row failed.
type RowStage string

const (
	StageParse RowStage = "parse"
	StageWrite RowStage = "write"
)

// FailedRow contains information about a row that could not be written.
type FailedRow struct {
	FileName   string
	LineNumber int
	Stage      RowStage
	Reason     string
	Record     Record
}

// FilePair is an input file and the output path it converts to.
type FilePair struct {
	Input  string
	Output string
}

// FileResult contains the result of converting a single file.
type FileResult struct {
	RunID         string
	Input         string
	Output        string
	Layout        string
	TotalRows     int
	Written       int
	PassedThrough int // Subset of Written that skipped remapping
	Failed        int
	FailedRows    []FailedRow
	BytesRead     int64
	StartedAt     time.Time
	Duration      time.Duration
}

// RunSummary aggregates the files processed by one run.
type RunSummary struct {
	RunID    string
	Files    []*FileResult
	Errors   []FileError
	Duration time.Duration
}

// FileError records a file that could not be converted.
type FileError struct {
	Pair FilePair
	Err  error
}

// Written returns the number of rows written across all files.
func (s *RunSummary) Written() int {
	n := 0
	for _, f := range s.Files {
		n += f.Written
	}
	return n
}

// Failed returns the number of failed rows across all files.
func (s *RunSummary) Failed() int {
	n := 0
	for _, f := range s.Files {
		n += f.Failed
	}
	return n
}

// HistoryRecorder persists per-file outcomes.
// fileErr is non-nil when the file failed as a whole; result may then be nil.
type HistoryRecorder interface {
	RecordFile(ctx context.Context, pair FilePair, result *FileResult, fileErr error) error
}
