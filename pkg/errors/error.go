package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// Error carries an ErrorCode through the scoreboard layers.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Err     error

	pcs []uintptr
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, msg string, cause error) *Error {
	var pcs [16]uintptr
	// Skip runtime.Callers, newError and the exported constructor.
	n := runtime.Callers(3, pcs[:])
	return &Error{Code: code, Message: msg, Err: cause, pcs: pcs[:n]}
}

func New(code ErrorCode) *Error {
	return newError(code, code.Message(), nil)
}

func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return newError(code, fmt.Sprintf(format, args...), nil)
}

// Wrap recodes err. A wrapped *Error keeps its message, details and origin stack.
func Wrap(err error, code ErrorCode) *Error {
	if err == nil {
		return nil
	}
	var inner *Error
	if stderrors.As(err, &inner) {
		return &Error{Code: code, Message: inner.Message, Details: inner.Details, Err: err, pcs: inner.pcs}
	}
	return newError(code, err.Error(), err)
}

func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return newError(code, fmt.Sprintf(format, args...), err)
}

func (e *Error) WithMessage(msg string) *Error {
	e.Message = msg
	return e
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Stack renders where the error was created, one frame per line.
func (e *Error) Stack() string {
	if len(e.pcs) == 0 {
		return ""
	}
	var b strings.Builder
	frames := runtime.CallersFrames(e.pcs)
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&b, "\n\t%s:%d %s", frame.File, frame.Line, frame.Function)
		}
		if !more {
			return b.String()
		}
	}
}

// GetCode returns Success for nil and InternalServerError for foreign errors.
func GetCode(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return InternalServerError
}

// GetError returns the *Error in err's chain, wrapping foreign errors as internal.
func GetError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return Wrap(err, InternalServerError)
}

func Is(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}
