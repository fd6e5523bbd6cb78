/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Printer target
 */

package ippclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/OpenPrinting/goipp"
)

const (
	// DefaultNaturalLanguage is the default value of the
	// attributes-natural-language attribute
	DefaultNaturalLanguage = "en"

	// DefaultDocumentFormat is used when document format
	// is not specified
	DefaultDocumentFormat = "application/octet-stream"

	// ippDefaultPort is the IANA-assigned IPP port
	ippDefaultPort = "631"
)

// HTTPTargetURL converts printer URI into the HTTP URL, used
// to send IPP requests.
//
// The ipp: and ipps: schemes are mapped to http: and https:
// with the default port 631; http: and https: are accepted as is.
// Other schemes, as well as URIs without host, are rejected.
func HTTPTargetURL(uri string) (*url.URL, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURI, err)
	}

	if u.Opaque != "" || u.Host == "" || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q: missed host", ErrInvalidURI, uri)
	}

	defport := false
	switch strings.ToLower(u.Scheme) {
	case "ipp":
		u.Scheme = "http"
		defport = true
	case "ipps":
		u.Scheme = "https"
		defport = true
	case "http", "https":
		u.Scheme = strings.ToLower(u.Scheme)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	if defport && u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), ippDefaultPort)
	}

	u.Fragment = ""
	u.RawFragment = ""

	return u, nil
}

// Printer is the printer target, identified by URI
type Printer struct {
	URI       string        // Printer URI, as sent in printer-uri
	url       *url.URL      // HTTP URL of the printer
	exec      *Executor     // Transaction executor
	version   goipp.Version // IPP version
	language  string        // attributes-natural-language
	userName  string        // requesting-user-name, if not empty
	requestID atomic.Uint32 // Last used request ID
}

// PrinterOption configures optional Printer parameters
type PrinterOption func(*Printer)

// WithUserName sets requesting-user-name, sent with each request
func WithUserName(name string) PrinterOption {
	return func(p *Printer) { p.userName = name }
}

// WithNaturalLanguage sets attributes-natural-language
func WithNaturalLanguage(lang string) PrinterOption {
	return func(p *Printer) { p.language = lang }
}

// WithVersion sets IPP protocol version of requests
func WithVersion(v goipp.Version) PrinterOption {
	return func(p *Printer) { p.version = v }
}

// NewPrinter creates a new Printer.
//
// The URI is validated by HTTPTargetURL; invalid URI makes
// NewPrinter fail. If exec is nil, the default Executor is used.
func NewPrinter(uri string, exec *Executor, opts ...PrinterOption) (*Printer, error) {
	u, err := HTTPTargetURL(uri)
	if err != nil {
		return nil, err
	}

	if exec == nil {
		exec = &Executor{}
	}

	p := &Printer{
		URI:      uri,
		url:      u,
		exec:     exec,
		version:  goipp.DefaultVersion,
		language: DefaultNaturalLanguage,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// URL returns HTTP URL, where requests are sent to
func (p *Printer) URL() *url.URL {
	u := *p.url
	return &u
}

// Job returns the Job target for the job with the given ID
// on this printer
func (p *Printer) Job(id int32) *Job {
	return &Job{ID: id, Printer: p}
}

// NewRequest creates a new request, addressed to the printer.
// It implements Target interface.
func (p *Printer) NewRequest(op goipp.Op) *Request {
	rq := NewRequest(op, p.requestID.Add(1))
	rq.Version = p.version

	Set(rq, AttrCharset, "utf-8")
	Set(rq, AttrNaturalLanguage, p.language)
	Set(rq, AttrPrinterURI, p.URI)

	return rq
}

// Execute sends request to the printer. It implements Target
// interface.
//
// Job-scoped operations are accepted only if request contains
// job-id or job-uri. If printer has a user name configured and
// request doesn't have requesting-user-name, it is added here,
// so it follows the target attributes.
func (p *Printer) Execute(ctx context.Context, rq *Request,
	data io.Reader) (*Response, error) {

	err := opCheckPrinter(rq)
	if err != nil {
		return nil, err
	}

	if p.userName != "" {
		if _, found := attrFind(rq.Operation, AttrRequestingUserName.Name); !found {
			Set(rq, AttrRequestingUserName, p.userName)
		}
	}

	return p.exec.Execute(ctx, p.url, rq, data)
}

// JobOptions represents parameters of the job being created.
// Zero values are not sent
type JobOptions struct {
	DocumentFormat string // document-format; DefaultDocumentFormat if empty
	DocumentName   string // document-name
	JobName        string // job-name
	Fidelity       bool   // ipp-attribute-fidelity
	Copies         int32  // copies
	Sides          string // sides
	Media          string // media
}

// apply adds job options to the request
func (opts JobOptions) apply(rq *Request, withDocument bool) {
	if opts.JobName != "" {
		Set(rq, AttrJobName, opts.JobName)
	}

	if opts.Fidelity {
		Set(rq, AttrIppAttributeFidelity, true)
	}

	if withDocument {
		format := opts.DocumentFormat
		if format == "" {
			format = DefaultDocumentFormat
		}
		Set(rq, AttrDocumentFormat, format)

		if opts.DocumentName != "" {
			Set(rq, AttrDocumentName, opts.DocumentName)
		}
	}

	if opts.Copies > 0 {
		Set(rq, AttrCopies, opts.Copies)
	}

	if opts.Sides != "" {
		Set(rq, AttrSides, opts.Sides)
	}

	if opts.Media != "" {
		Set(rq, AttrMedia, opts.Media)
	}
}

// PrintJob submits a single-document job. Document data is
// streamed from the data reader.
//
// The returned response is not checked for IPP status;
// use JobFromResponse to obtain the created job.
func (p *Printer) PrintJob(ctx context.Context, opts JobOptions,
	data io.Reader) (*Response, error) {

	rq := p.NewRequest(goipp.OpPrintJob)
	opts.apply(rq, true)
	return p.Execute(ctx, rq, data)
}

// ValidateJob checks job options without creating a job
func (p *Printer) ValidateJob(ctx context.Context, opts JobOptions) (*Response, error) {
	rq := p.NewRequest(goipp.OpValidateJob)
	opts.apply(rq, true)
	return p.Execute(ctx, rq, nil)
}

// CreateJob creates an empty job. Documents are added
// later with the (*Job) SendDocument
func (p *Printer) CreateJob(ctx context.Context, opts JobOptions) (*Response, error) {
	rq := p.NewRequest(goipp.OpCreateJob)
	opts.apply(rq, false)
	return p.Execute(ctx, rq, nil)
}

// GetPrinterAttributes queries printer attributes. If no attributes
// are requested, printer returns its default set
func (p *Printer) GetPrinterAttributes(ctx context.Context,
	requested ...string) (*Response, error) {
	return getAttributes(ctx, p, goipp.OpGetPrinterAttributes, requested)
}

// GetJobs queries list of jobs. The which parameter is the
// which-jobs keyword ("completed", "not-completed"), or empty
// for the printer default
func (p *Printer) GetJobs(ctx context.Context, which string,
	requested ...string) (*Response, error) {

	rq := p.NewRequest(goipp.OpGetJobs)
	if which != "" {
		Set(rq, AttrWhichJobs, which)
	}
	if len(requested) != 0 {
		Set(rq, AttrRequestedAttributes, requested[0], requested[1:]...)
	}

	return p.Execute(ctx, rq, nil)
}

// JobFromResponse returns the Job, created by Print-Job or
// Create-Job operation.
//
// It fails with *StatusError if response status is not successful,
// and with ErrAttrAbsent if response doesn't contain job-id.
func (p *Printer) JobFromResponse(rsp *Response) (*Job, error) {
	err := rsp.Err()
	if err != nil {
		return nil, err
	}

	id, ok := Get(rsp.Job(), AttrJobID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAttrAbsent, AttrJobID.Name)
	}

	return p.Job(id), nil
}
