package expander

import "fmt"

// BlockErrorKind classifies the structural errors of a malformed
// template. All of them abort the whole expansion.
type BlockErrorKind int

const (
	// NestedBlock is an open marker inside an open block.
	NestedBlock BlockErrorKind = iota

	// UnexpectedClose is a close marker with no open block.
	UnexpectedClose

	// UnterminatedBlock is end of input inside an open block. Its
	// position is the opening marker's line.
	UnterminatedBlock
)

func (k BlockErrorKind) String() string {
	switch k {
	case NestedBlock:
		return "NestedBlock"
	case UnexpectedClose:
		return "UnexpectedClose"
	case UnterminatedBlock:
		return "UnterminatedBlock"
	default:
		return fmt.Sprintf("BlockErrorKind(%d)", int(k))
	}
}

// Message returns the human-readable description for the kind.
func (k BlockErrorKind) Message() string {
	switch k {
	case NestedBlock:
		return "GENERICLOOP inside an open generic block (nesting is not supported)"
	case UnexpectedClose:
		return "ENDGENERICLOOP with no open generic block"
	case UnterminatedBlock:
		return "input ended inside a generic block (missing ENDGENERICLOOP)"
	default:
		return "malformed generic block"
	}
}

// BlockError is the typed structural error returned by Expand.
type BlockError struct {
	Kind BlockErrorKind
	File string
	Line int
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Kind.Message())
}
