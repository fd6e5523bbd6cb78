/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * IPP over HTTP transactions
 */

package ippclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/OpenPrinting/goipp"
)

const (
	// DefaultTimeout is the default timeout of the single
	// IPP transaction
	DefaultTimeout = 10 * time.Second

	// DefaultMaxResponseSize is the default limit of the
	// IPP response size
	DefaultMaxResponseSize = 1024 * 1024

	// httpErrorBodyMax limits body bytes preserved in
	// the HTTPResponseError
	httpErrorBodyMax = 4096
)

// HTTPClient is the HTTP transport, used by Executor.
// *http.Client satisfies this interface
type HTTPClient interface {
	Do(rq *http.Request) (*http.Response, error)
}

// Executor performs IPP transactions over HTTP.
//
// Executor keeps no state between transactions and may
// be used concurrently
type Executor struct {
	Client          HTTPClient    // HTTP transport; nil means http.DefaultClient
	Timeout         time.Duration // Per-transaction timeout; 0 means DefaultTimeout
	MaxResponseSize int64         // Response size limit; 0 means DefaultMaxResponseSize
	Auth            Authorizer    // Optional request decorator
	Log             *Logger       // Optional logger
}

// Execute performs IPP transaction: it sends the request to the
// target URL and returns decoded IPP response.
//
// If data is not nil, it is sent after the encoded request as
// the document payload. The total length is unknown in this case,
// so the HTTP request body is sent with unknown length (chunked).
//
// Transport errors are returned as is. If HTTP status is not
// 200 OK, *HTTPResponseError is returned and the body is not
// interpreted as IPP message. IPP decoding errors are returned
// as *DecodeError.
func (e *Executor) Execute(ctx context.Context, target *url.URL,
	rq *Request, data io.Reader) (*Response, error) {

	buf, err := rq.EncodeBytes()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	httpRq, err := e.newHTTPRequest(ctx, target, buf, data)
	if err != nil {
		return nil, err
	}

	if e.Auth != nil {
		err = e.Auth.Authorize(httpRq)
		if err != nil {
			return nil, err
		}
	}

	e.traceRequest(rq, httpRq)

	httpRsp, err := e.client().Do(httpRq)
	if err != nil {
		e.Log.Error("IPP: %s: %s", rq.Op, err)
		return nil, err
	}

	defer httpRsp.Body.Close()
	e.traceHTTPResponse(httpRsp)

	if httpRsp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpRsp.Body, httpErrorBodyMax))
		err := &HTTPResponseError{
			StatusCode: httpRsp.StatusCode,
			Status:     httpRsp.Status,
			Header:     httpRsp.Header,
			Body:       body,
		}
		e.Log.Error("IPP: %s: %s", rq.Op, err)
		return nil, err
	}

	limit := e.maxResponseSize()
	body, err := io.ReadAll(io.LimitReader(httpRsp.Body, limit+1))
	if err != nil {
		return nil, err
	}

	if int64(len(body)) > limit {
		e.Log.Error("IPP: %s: response exceeds %d bytes", rq.Op, limit)
		return nil, ErrResponseTooLarge
	}

	rsp, err := DecodeResponse(body)
	if err != nil {
		e.Log.Begin().
			Error("IPP: %s: %s", rq.Op, err).
			Dump(LogDebug, body, "").
			Commit()
		return nil, err
	}

	e.traceResponse(rq, rsp)

	return rsp, nil
}

// newHTTPRequest creates HTTP request for the IPP transaction
func (e *Executor) newHTTPRequest(ctx context.Context, target *url.URL,
	buf []byte, data io.Reader) (*http.Request, error) {

	var body io.Reader = bytes.NewReader(buf)
	length := int64(len(buf))

	if data != nil {
		body = io.MultiReader(body, data)
		length = -1
	}

	httpRq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		target.String(), body)
	if err != nil {
		return nil, err
	}

	httpRq.ContentLength = length
	httpRq.Header.Set("Content-Type", goipp.ContentType)

	return httpRq, nil
}

// client returns HTTP client to use
func (e *Executor) client() HTTPClient {
	if e.Client != nil {
		return e.Client
	}
	return http.DefaultClient
}

// timeout returns effective transaction timeout
func (e *Executor) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultTimeout
}

// maxResponseSize returns effective response size limit
func (e *Executor) maxResponseSize() int64 {
	if e.MaxResponseSize > 0 {
		return e.MaxResponseSize
	}
	return DefaultMaxResponseSize
}

// traceRequest writes outgoing request to the log
func (e *Executor) traceRequest(rq *Request, httpRq *http.Request) {
	log := e.Log
	if !log.Enabled(LogDebug | LogTraceHTTP | LogTraceIPP) {
		return
	}

	msg := log.Begin()
	msg.Debug('>', "IPP: %s %s (request-id=%d)", rq.Op, httpRq.URL,
		rq.RequestID)

	if log.Enabled(LogTraceHTTP) {
		msg.Trace(LogTraceHTTP, '>', "HTTP: %s %s %s",
			httpRq.Method, httpRq.URL, httpRq.Proto)
		traceHeader(msg, '>', httpRq.Header)
	}

	if log.Enabled(LogTraceIPP) {
		f := goipp.NewFormatter()
		f.FmtRequest(rq.message())
		f.WriteTo(msg.Writer(LogTraceIPP))
	}

	msg.Commit()
}

// traceHTTPResponse writes HTTP response status and headers to the log
func (e *Executor) traceHTTPResponse(httpRsp *http.Response) {
	log := e.Log
	if !log.Enabled(LogTraceHTTP) {
		return
	}

	msg := log.Begin()
	msg.Trace(LogTraceHTTP, '<', "HTTP: %s %s", httpRsp.Proto, httpRsp.Status)
	traceHeader(msg, '<', httpRsp.Header)
	msg.Commit()
}

// traceResponse writes decoded IPP response to the log
func (e *Executor) traceResponse(rq *Request, rsp *Response) {
	log := e.Log
	if !log.Enabled(LogDebug | LogTraceIPP) {
		return
	}

	msg := log.Begin()
	msg.Debug('<', "IPP: %s: %s (request-id=%d)", rq.Op, rsp.Status,
		rsp.RequestID)

	if log.Enabled(LogTraceIPP) {
		f := goipp.NewFormatter()
		f.FmtResponse(rsp.message())
		f.WriteTo(msg.Writer(LogTraceIPP))
	}

	msg.Commit()
}

// traceHeader writes HTTP header into the log message, sorted
// by name. Credentials are not written
func traceHeader(msg *LogMessage, prefix byte, hdr http.Header) {
	keys := []string{}
	for k := range hdr {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	for _, k := range keys {
		v := hdr.Get(k)
		if k == "Authorization" {
			v = "<hidden>"
		}
		msg.Trace(LogTraceHTTP, prefix, "%s: %s", k, v)
	}
}
