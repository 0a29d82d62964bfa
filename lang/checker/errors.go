package checker

import (
	"fmt"

	"github.com/snake-lang/snakec/lang/token"
)

// Kind identifies one of the closed set of semantic errors spec.md §4.2
// requires the checker to detect.
type Kind int

const (
	Overflow Kind = iota
	UnboundVariable
	FunctionUsedAsValue
	DuplicateBinding
	DuplicateFunName
	DuplicateArgName
	UndefinedFunction
	ValueUsedAsFunction
	FunctionCalledWrongArity
)

func (k Kind) String() string {
	switch k {
	case Overflow:
		return "Overflow"
	case UnboundVariable:
		return "UnboundVariable"
	case FunctionUsedAsValue:
		return "FunctionUsedAsValue"
	case DuplicateBinding:
		return "DuplicateBinding"
	case DuplicateFunName:
		return "DuplicateFunName"
	case DuplicateArgName:
		return "DuplicateArgName"
	case UndefinedFunction:
		return "UndefinedFunction"
	case ValueUsedAsFunction:
		return "ValueUsedAsFunction"
	case FunctionCalledWrongArity:
		return "FunctionCalledWrongArity"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a single structured compile-time error, always carrying the span
// where it was detected. Exactly one Error is ever produced per compile: the
// checker returns on the first violation found during its left-to-right
// walk (spec.md §4.2, §7).
type Error struct {
	Kind Kind
	Span token.Span

	// Name is the offending identifier, when Kind names one (everything
	// except Overflow).
	Name string
	// NumVal is the offending literal, set only for Overflow.
	NumVal int64
	// Expected/Got are set only for FunctionCalledWrongArity.
	Expected, Got int
}

func (e *Error) Error() string {
	switch e.Kind {
	case Overflow:
		return fmt.Sprintf("%s: integer literal %d is out of range [-2^62, 2^62-1]", e.Kind, e.NumVal)
	case UnboundVariable:
		return fmt.Sprintf("%s: unbound variable %q", e.Kind, e.Name)
	case FunctionUsedAsValue:
		return fmt.Sprintf("%s: %q names a function, not a value", e.Kind, e.Name)
	case DuplicateBinding:
		return fmt.Sprintf("%s: %q is bound more than once in this let", e.Kind, e.Name)
	case DuplicateFunName:
		return fmt.Sprintf("%s: %q is declared more than once in this group of functions", e.Kind, e.Name)
	case DuplicateArgName:
		return fmt.Sprintf("%s: parameter %q is repeated in this function's signature", e.Kind, e.Name)
	case UndefinedFunction:
		return fmt.Sprintf("%s: call to undefined function %q", e.Kind, e.Name)
	case ValueUsedAsFunction:
		return fmt.Sprintf("%s: %q names a value, not a function", e.Kind, e.Name)
	case FunctionCalledWrongArity:
		return fmt.Sprintf("%s: %q expects %d argument(s), got %d", e.Kind, e.Name, e.Expected, e.Got)
	default:
		return fmt.Sprintf("%s", e.Kind)
	}
}
