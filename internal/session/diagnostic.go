package session

import "classgraph/internal/assembler"

// DiagnosticKind classifies a per-unit problem recorded during an import.
type DiagnosticKind string

const (
	MalformedUnit             DiagnosticKind = "malformed_unit"
	DuplicateImport           DiagnosticKind = "duplicate_import"
	UnresolvedReferenceAsStub DiagnosticKind = "unresolved_reference_as_stub"
	DecodeFailure             DiagnosticKind = "decode_failure"
)

// Diagnostic is one (unit, kind, message) record. Err holds the typed error
// when there is one, e.g. a *classfile.MalformedUnitError.
type Diagnostic struct {
	Unit    string
	Kind    DiagnosticKind
	Message string
	Err     error
}

// readDiagnostic records a unit that could not be read or parsed. Both are
// reported as MalformedUnit; Err tells them apart via classfile.ErrMalformedUnit.
func readDiagnostic(unit string, err error) Diagnostic {
	return Diagnostic{Unit: unit, Kind: MalformedUnit, Message: err.Error(), Err: err}
}

func issueDiagnostic(i assembler.Issue) Diagnostic {
	d := Diagnostic{Unit: i.Unit, Message: i.Message(), Err: i.Err}
	switch i.Kind {
	case assembler.IssueDuplicateImport:
		d.Kind = DuplicateImport
	case assembler.IssueUnresolvedReference:
		d.Kind = UnresolvedReferenceAsStub
	default:
		d.Kind = DecodeFailure
	}
	return d
}
