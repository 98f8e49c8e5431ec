// Package core turns tabular rows into validated records.
//
// The package holds all parsing logic independent of any transport. It is
// used by the web handlers, the CLI and tests without modification.
//
// # Columns
//
// A [Column] names one output field and says where its cell lives (a 0-based
// index), whether it is required, how to clean it and how to validate it:
//
//	core.Column{
//	    Name:       "age",
//	    Index:      1,
//	    Required:   true,
//	    Clean:      core.Int,
//	    Validators: []core.Validator{core.Range(0, 150)},
//	}
//
// # Running a parser
//
// [New] builds a [Parser] from a file path and a [Config]. [Parser.Run] reads
// every row of the source and returns a [ParseResult] holding one [Record]
// per good row and one [RowError] per rejected row. A Parser keeps no state
// between runs, so running it twice yields the same result.
//
// Sources are picked by extension (.csv, .tsv, .txt, .xlsx, .xlsm). Any other
// [RowSource] can be plugged in with [WithOpener] or [WithRows].
//
// # Errors
//
// Cell and row failures are data and never stop a run. Only a [ParseError]
// (source unreadable, context cancelled) is returned from Run.
// [MapError] maps any of them to a [UserMessage] with a support code.
//
// # Schemas
//
// Reusable configurations are registered at init time with [Register] and
// looked up by key with [Get] or [Lookup].
package core
