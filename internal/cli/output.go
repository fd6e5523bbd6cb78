/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Command output and exit codes
 */

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/OpenPrinting/goipp"
	"github.com/OpenPrinting/ippclient"
	"gopkg.in/yaml.v3"
)

// Exit codes of the ippprint utility
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed or job not completed
	ExitCommandError = 2 // Invalid arguments or configuration
)

// ExitError represents an error with a specific exit code
type ExitError struct {
	Code    int    // Exit code
	Message string // Error message
	Err     error  // Underlying error, optional
}

// Error returns an error string
func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Errors other than ExitError mean ExitFailure
func GetExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	}
	return ExitFailure
}

// TextWriter is implemented by command results for
// the text output format
type TextWriter interface {
	WriteText(w io.Writer) error
}

// OutputFormatter writes command results in the configured format
type OutputFormatter struct {
	Format string    // "text" | "json" | "yaml"
	Writer io.Writer // Output stream
}

// Print outputs the command result
func (f *OutputFormatter) Print(data TextWriter) error {
	switch f.Format {
	case "", "text":
		return data.WriteText(f.Writer)

	case "json":
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)

	case "yaml":
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		err := enc.Encode(data)
		if err2 := enc.Close(); err == nil {
			err = err2
		}
		return err
	}

	return NewExitError(ExitCommandError,
		fmt.Sprintf("invalid format %q: must be one of %v",
			f.Format, ValidFormats))
}

// JobResult describes the job
type JobResult struct {
	JobID        int32    `json:"job-id" yaml:"job-id"`
	JobURI       string   `json:"job-uri,omitempty" yaml:"job-uri,omitempty"`
	State        string   `json:"job-state,omitempty" yaml:"job-state,omitempty"`
	StateReasons []string `json:"job-state-reasons,omitempty" yaml:"job-state-reasons,omitempty"`
	StateMessage string   `json:"job-state-message,omitempty" yaml:"job-state-message,omitempty"`

	state ippclient.JobState // Decoded job-state, 0 if unknown
}

// newJobResult creates JobResult from job attributes
func newJobResult(id int32, attrs goipp.Attributes) *JobResult {
	res := &JobResult{JobID: id}

	res.JobURI, _ = ippclient.Get(attrs, ippclient.AttrJobURI)
	res.StateReasons = ippclient.GetAll(attrs, ippclient.AttrJobStateReasons)
	res.StateMessage, _ = ippclient.Get(attrs, ippclient.AttrJobStateMessage)

	if state, ok := ippclient.Get(attrs, ippclient.AttrJobState); ok {
		res.state = state
		res.State = state.String()
	}

	return res
}

// Completed tells if job is known to be completed successfully
func (res *JobResult) Completed() bool {
	return res.state == ippclient.JobCompleted
}

// WriteText writes JobResult as text
func (res *JobResult) WriteText(w io.Writer) error {
	line := fmt.Sprintf("job %d", res.JobID)
	if res.State != "" {
		line += ": " + res.State
	}

	if len(res.StateReasons) != 0 {
		line += fmt.Sprintf(" %v", res.StateReasons)
	}

	if res.StateMessage != "" {
		line += fmt.Sprintf(" (%s)", res.StateMessage)
	}

	_, err := fmt.Fprintln(w, line)
	return err
}

// AttrResult describes a single attribute
type AttrResult struct {
	Name   string   `json:"name" yaml:"name"`
	Tag    string   `json:"tag" yaml:"tag"`
	Values []string `json:"values" yaml:"values"`
}

// AttrsResult describes the attributes group
type AttrsResult struct {
	Attributes []AttrResult `json:"attributes" yaml:"attributes"`

	attrs goipp.Attributes // Original attributes
}

// newAttrsResult creates AttrsResult from attributes
func newAttrsResult(attrs goipp.Attributes) *AttrsResult {
	res := &AttrsResult{
		Attributes: make([]AttrResult, 0, len(attrs)),
		attrs:      attrs,
	}

	for _, attr := range attrs {
		a := AttrResult{Name: attr.Name}
		if len(attr.Values) != 0 {
			a.Tag = attr.Values[0].T.String()
		}

		for _, v := range attr.Values {
			a.Values = append(a.Values, v.V.String())
		}

		res.Attributes = append(res.Attributes, a)
	}

	return res
}

// WriteText writes AttrsResult as text
func (res *AttrsResult) WriteText(w io.Writer) error {
	f := goipp.NewFormatter()
	f.FmtAttributes(res.attrs)
	_, err := f.WriteTo(w)
	return err
}

// CancelResult describes the result of job cancellation
type CancelResult struct {
	JobID  int32  `json:"job-id" yaml:"job-id"`
	Status string `json:"status" yaml:"status"`
}

// WriteText writes CancelResult as text
func (res *CancelResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "job %d: %s\n", res.JobID, res.Status)
	return err
}
