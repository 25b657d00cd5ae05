// Package core provides the record layout conversion used by csvxform.
//
// # Architecture
//
// A run moves through four steps:
//
//   - Pairing: [PairFiles] lists the input directory and pairs every file
//     with the same name in the output directory.
//   - Reading: [Reader] yields the opaque first line of a file, then one
//     ordered [Record] per data row of the comma-delimited table after it.
//   - Remapping: [Remap] turns an input record into an output record under
//     a [Layout].
//   - Writing: [Transformer] writes the header line, the output column
//     header and one row per record, skipping rows that fail.
//
// [Service] ties them together and optionally records every file in a
// [HistoryRecorder].
//
// # Layouts
//
// Layouts are registered at init time using [Register]. Each output field
// resolves through an explicit [Rule], either a copy of an input field or
// a literal:
//
//	core.Register(core.MustLayout(
//	    "positions", "Positions",
//	    []string{"Code", "Country"},
//	    map[string]core.Rule{
//	        "Code":    core.CopyFrom("SEC ID"),
//	        "Country": core.Literal("US"),
//	    },
//	    "Code",
//	))
//
// Records that already carry the layout's sentinel field are treated as
// converted and passed through with trimmed keys only.
//
// # Row Failures
//
// Rows that can not be parsed or do not fit the output fields are returned
// as [FailedRow] values in the [FileResult] and logged; the rest of the file
// is still converted. A file whose input can not be opened, has no first
// line, or whose output can not be created fails as a whole and is returned
// as an error.
package core
