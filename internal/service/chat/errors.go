package chat

import "fmt"

// InputError 调用方可修正的输入错误
type InputError struct {
	Detail string
}

func (e *InputError) Error() string {
	return e.Detail
}

func newInputError(format string, args ...any) *InputError {
	return &InputError{Detail: fmt.Sprintf(format, args...)}
}

var (
	ErrNoInput         = &InputError{Detail: "Provide a message, file, or action parameter"}
	ErrEmptyFile       = &InputError{Detail: "Empty file"}
	ErrUnsupportedFile = &InputError{Detail: "Unsupported file type"}
)
