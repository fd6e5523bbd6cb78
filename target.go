/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Operation targets
 */

// Package ippclient implements the client side of the Internet
// Printing Protocol (IPP) over HTTP.
//
// Requests are created by a Target, either a Printer, identified
// by its URI, or a Job on that printer. Attributes are set and read
// through typed keys (see Key, Get and Set). Transactions are
// performed by the Executor, and the Poller waits for job completion.
package ippclient

import (
	"context"
	"fmt"
	"io"

	"github.com/OpenPrinting/goipp"
)

// Target is the object (printer or job) the IPP operation
// is addressed to.
//
// NewRequest creates a fresh request for the operation, with
// target attributes (printer-uri and, for jobs, job-id) already
// set. Execute sends the request, with optional document data,
// and returns the response.
type Target interface {
	NewRequest(op goipp.Op) *Request
	Execute(ctx context.Context, rq *Request, data io.Reader) (*Response, error)
}

// opScope tells, whether operation is addressed to printer or job
type opScope int

const (
	opScopePrinter opScope = iota
	opScopeJob
)

// opScopes maps known operations to their scopes. Operations
// not listed here are considered printer-scoped
var opScopes = map[goipp.Op]opScope{
	goipp.OpPrintJob:                  opScopePrinter,
	goipp.OpPrintURI:                  opScopePrinter,
	goipp.OpValidateJob:               opScopePrinter,
	goipp.OpCreateJob:                 opScopePrinter,
	goipp.OpGetJobs:                   opScopePrinter,
	goipp.OpGetPrinterAttributes:      opScopePrinter,
	goipp.OpGetPrinterSupportedValues: opScopePrinter,
	goipp.OpPausePrinter:              opScopePrinter,
	goipp.OpResumePrinter:             opScopePrinter,
	goipp.OpPurgeJobs:                 opScopePrinter,

	goipp.OpSendDocument:     opScopeJob,
	goipp.OpSendURI:          opScopeJob,
	goipp.OpCancelJob:        opScopeJob,
	goipp.OpGetJobAttributes: opScopeJob,
	goipp.OpHoldJob:          opScopeJob,
	goipp.OpReleaseJob:       opScopeJob,
	goipp.OpRestartJob:       opScopeJob,
	goipp.OpSetJobAttributes: opScopeJob,
}

// opIsJobScoped tells if operation is addressed to job
func opIsJobScoped(op goipp.Op) bool {
	return opScopes[op] == opScopeJob
}

// opCheckPrinter checks request before it is sent to printer.
// Job-scoped operation requires job-id or job-uri
func opCheckPrinter(rq *Request) error {
	if !opIsJobScoped(rq.Op) {
		return nil
	}

	if _, ok := Get(rq.Operation, AttrJobID); ok {
		return nil
	}

	if _, found := attrFind(rq.Operation, AttrJobURI.Name); found {
		return nil
	}

	return fmt.Errorf("%w: %s without job-id", ErrUnsupportedOperation, rq.Op)
}

// opCheckJob checks request before it is sent to job
func opCheckJob(rq *Request) error {
	if opIsJobScoped(rq.Op) {
		return nil
	}

	return fmt.Errorf("%w: %s is not a job operation",
		ErrUnsupportedOperation, rq.Op)
}

// getAttributes performs Get-XXX-Attributes style operation on
// the target, with optional list of requested attributes
func getAttributes(ctx context.Context, t Target, op goipp.Op,
	requested []string) (*Response, error) {

	rq := t.NewRequest(op)
	if len(requested) != 0 {
		Set(rq, AttrRequestedAttributes, requested[0], requested[1:]...)
	}

	return t.Execute(ctx, rq, nil)
}
