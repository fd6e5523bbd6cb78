/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Common errors
 */

package ippclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/OpenPrinting/goipp"
)

// Error values for ippclient
var (
	ErrInvalidURI           = errors.New("Invalid printer URI")
	ErrUnsupportedScheme    = errors.New("Unsupported URI scheme")
	ErrUnsupportedOperation = errors.New("Operation not supported by target")
	ErrAttrAbsent           = errors.New("Attribute not present")
	ErrResponseTooLarge     = errors.New("IPP response too large")
)

// HTTPResponseError is returned when IPP request was answered
// with HTTP status other that 200 OK. The response body is not
// interpreted as IPP message; at most httpErrorBodyMax bytes of
// it are preserved for diagnostics
type HTTPResponseError struct {
	StatusCode int         // HTTP status code
	Status     string      // HTTP status line, i.e. "500 Internal Server Error"
	Header     http.Header // Response headers
	Body       []byte      // Head of the response body
}

// Error returns an error string
func (e *HTTPResponseError) Error() string {
	return fmt.Sprintf("IPP request failed with HTTP status %s", e.Status)
}

// DecodeError is returned when IPP response cannot be decoded
type DecodeError struct {
	Err error
}

// Error returns an error string
func (e *DecodeError) Error() string {
	return fmt.Sprintf("IPP decode: %s", e.Err)
}

// Unwrap returns the underlying error
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StatusError is returned when IPP response carries
// an unsuccessful status code
type StatusError struct {
	Status  goipp.Status // IPP status code
	Message string       // status-message, if any
}

// Error returns an error string
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("IPP status %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("IPP status %s", e.Status)
}
