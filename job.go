/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Job target
 */

package ippclient

import (
	"context"
	"io"
	"time"

	"github.com/OpenPrinting/goipp"
)

// Job is the job target. Job always belongs to exactly one
// Printer, and all its requests are sent through that printer
type Job struct {
	ID      int32    // Job ID
	Printer *Printer // Owning printer
}

// NewRequest creates a new request, addressed to the job.
// It implements Target interface.
func (j *Job) NewRequest(op goipp.Op) *Request {
	rq := j.Printer.NewRequest(op)
	Set(rq, AttrJobID, j.ID)
	return rq
}

// Execute sends request to the job. It implements Target
// interface. Only job-scoped operations are accepted.
func (j *Job) Execute(ctx context.Context, rq *Request,
	data io.Reader) (*Response, error) {

	err := opCheckJob(rq)
	if err != nil {
		return nil, err
	}

	return j.Printer.Execute(ctx, rq, data)
}

// GetJobAttributes queries job attributes. If no attributes
// are requested, printer returns its default set
func (j *Job) GetJobAttributes(ctx context.Context,
	requested ...string) (*Response, error) {
	return getAttributes(ctx, j, goipp.OpGetJobAttributes, requested)
}

// CancelJob cancels the job
func (j *Job) CancelJob(ctx context.Context) (*Response, error) {
	return j.Execute(ctx, j.NewRequest(goipp.OpCancelJob), nil)
}

// SendDocument adds document to the job, created by
// the (*Printer) CreateJob. The last parameter must be
// true for the last document of the job.
func (j *Job) SendDocument(ctx context.Context, opts JobOptions,
	last bool, data io.Reader) (*Response, error) {

	rq := j.NewRequest(goipp.OpSendDocument)

	format := opts.DocumentFormat
	if format == "" {
		format = DefaultDocumentFormat
	}
	Set(rq, AttrDocumentFormat, format)

	if opts.DocumentName != "" {
		Set(rq, AttrDocumentName, opts.DocumentName)
	}

	Set(rq, AttrLastDocument, last)

	return j.Execute(ctx, rq, data)
}

// State queries the current job state
func (j *Job) State(ctx context.Context) (JobState, error) {
	return pollJobState(ctx, j)
}

// Wait polls job state with the given interval until job
// reaches a terminal state. See Poller for details.
func (j *Job) Wait(ctx context.Context, interval time.Duration) (JobState, error) {
	p := Poller{Target: j, Interval: interval}
	return p.Wait(ctx)
}
