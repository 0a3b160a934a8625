package sms_tools

import "fmt"

// UnknownToolError is returned for calls to a tool this gateway does not serve.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("Unknown tool: %s", e.Name)
}

// MissingArgumentsError is returned when a call carries no arguments at all.
type MissingArgumentsError struct {
	Tool string
}

func (e *MissingArgumentsError) Error() string {
	return fmt.Sprintf("No arguments provided for tool: %s", e.Tool)
}

// InvalidArgumentError is returned when a required argument is absent or not a string.
type InvalidArgumentError struct {
	Tool     string
	Argument string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("Argument %q must be a string for tool: %s", e.Argument, e.Tool)
}
