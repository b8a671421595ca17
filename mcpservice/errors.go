package mcpservice

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownTool is returned when a call names a tool that is not
	// registered. No execution is attempted.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrUnknownResource is returned when a read names a URI that does not
	// match any registered resource.
	ErrUnknownResource = errors.New("unknown resource")
)

// FieldError is one field-level schema validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidInputError reports that tool arguments failed schema validation.
// It is produced before the tool function is invoked.
type InvalidInputError struct {
	Tool   string
	Fields []FieldError
}

func (e *InvalidInputError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("invalid input for tool %q: %s", e.Tool, strings.Join(msgs, "; "))
}

// ToolExecutionError wraps a failure inside a tool's execution function.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q execution failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// ResourceLoadError wraps a failure in a resource's content loader.
type ResourceLoadError struct {
	URI string
	Err error
}

func (e *ResourceLoadError) Error() string {
	return fmt.Sprintf("resource %q load failed: %v", e.URI, e.Err)
}

func (e *ResourceLoadError) Unwrap() error { return e.Err }
