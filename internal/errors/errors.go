// internal/errors/errors.go
package errors

import (
	"fmt"
	"strings"
)

// Code identifies one of the kernel's error conditions. The set is
// closed: commands report one of these, never ad-hoc strings.
type Code string

const (
	TypeError              Code = "type_error"
	ValueError             Code = "value_error"
	DomainError            Code = "domain_error"
	ZeroDivideError        Code = "zero_divide_error"
	BadGuessError          Code = "bad_guess_error"
	NoSolutionError        Code = "no_solution_error"
	ConstantValueError     Code = "constant_value_error"
	InvalidFunctionError   Code = "invalid_function_error"
	InvalidAlgebraicError  Code = "invalid_algebraic_error"
	InvalidPolynomialError Code = "invalid_polynomial_error"
	InvalidEquationError   Code = "invalid_equation_error"
	InvalidBaseError       Code = "invalid_base_error"
	BasedNumberError       Code = "based_number_error"
	BasedDigitError        Code = "based_digit_error"
	InconsistentUnitsError Code = "inconsistent_units_error"
	SyntaxError            Code = "syntax_error"
	UnterminatedError      Code = "unterminated_error"
	MantissaError          Code = "mantissa_error"
	ExponentError          Code = "exponent_error"
	TooManyRewritesError   Code = "too_many_rewrites_error"
	OutOfMemoryError       Code = "out_of_memory_error"
	InterruptedError       Code = "interrupted_error"
	InternalError          Code = "internal_error"
)

// messages maps each code to the text shown to the user.
var messages = map[Code]string{
	TypeError:              "Bad argument type",
	ValueError:             "Bad argument value",
	DomainError:            "Argument outside domain",
	ZeroDivideError:        "Divide by zero",
	BadGuessError:          "Bad guess",
	NoSolutionError:        "No solution found",
	ConstantValueError:     "Constant value",
	InvalidFunctionError:   "Invalid function",
	InvalidAlgebraicError:  "Invalid algebraic",
	InvalidPolynomialError: "Invalid polynomial",
	InvalidEquationError:   "Invalid equation",
	InvalidBaseError:       "Invalid base",
	BasedNumberError:       "Invalid based number",
	BasedDigitError:        "Invalid digit for base",
	InconsistentUnitsError: "Inconsistent units",
	SyntaxError:            "Syntax error",
	UnterminatedError:      "Unterminated",
	MantissaError:          "Too many digits in mantissa",
	ExponentError:          "Exponent out of range",
	TooManyRewritesError:   "Too many rewrites",
	OutOfMemoryError:       "Out of memory",
	InterruptedError:       "Interrupted",
	InternalError:          "Internal error",
}

// KernelError is an error raised by the calculator core. It optionally
// carries the source fragment that failed to parse and the command that
// was executing.
type KernelError struct {
	Code    Code
	Message string
	Source  string // offending source fragment, if any
	Pos     int    // byte offset of Source in its input
	Command string // name of the failing command, if any
}

func (e *KernelError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Command != "" {
		sb.WriteString(fmt.Sprintf(" in %s", e.Command))
	}
	if e.Source != "" {
		sb.WriteString(fmt.Sprintf(" at %q", e.Source))
	}
	return sb.String()
}

// Is makes KernelError comparable by code through errors.Is.
func (e *KernelError) Is(target error) bool {
	if ke, ok := target.(*KernelError); ok {
		return e.Code == ke.Code
	}
	return false
}

// New creates a kernel error with the standard message for the code.
func New(code Code) *KernelError {
	msg, ok := messages[code]
	if !ok {
		msg = string(code)
	}
	return &KernelError{Code: code, Message: msg}
}

// Newf creates a kernel error with a custom message.
func Newf(code Code, format string, args ...interface{}) *KernelError {
	return &KernelError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code of a kernel error, or InternalError for any
// other error value.
func CodeOf(err error) Code {
	if ke, ok := err.(*KernelError); ok {
		return ke.Code
	}
	return InternalError
}
