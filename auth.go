/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Authentication
 */

package ippclient

import (
	"fmt"
	"net/http"

	"github.com/xdg-go/stringprep"
)

// Authorizer decorates outgoing HTTP requests with credentials.
//
// It is called once per IPP transaction, after the HTTP request
// is fully built and before it is sent. Returning error aborts
// the transaction; no network activity happens in that case.
type Authorizer interface {
	Authorize(rq *http.Request) error
}

// AuthorizerFunc adapts ordinary function to the Authorizer interface
type AuthorizerFunc func(rq *http.Request) error

// Authorize calls f(rq)
func (f AuthorizerFunc) Authorize(rq *http.Request) error {
	return f(rq)
}

// BasicAuth implements HTTP Basic authentication (RFC 7617).
//
// User name and password are normalized with SASLprep profile
// of stringprep (RFC 4013) before use
type BasicAuth struct {
	User     string // User name
	Password string // Password
}

// Authorize sets Authorization header of the request
func (auth BasicAuth) Authorize(rq *http.Request) error {
	user, err := stringprep.SASLprep.Prepare(auth.User)
	if err != nil {
		return fmt.Errorf("auth: user name: %s", err)
	}

	password, err := stringprep.SASLprep.Prepare(auth.Password)
	if err != nil {
		return fmt.Errorf("auth: password: %s", err)
	}

	rq.SetBasicAuth(user, password)
	return nil
}
