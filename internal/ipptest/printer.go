/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Fake IPP printer for tests
 */

// Package ipptest implements a fake IPP printer, served over HTTP,
// for testing IPP clients.
package ipptest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/OpenPrinting/goipp"
)

// Handler handles decoded IPP request. The doc parameter contains
// document data that follows the IPP message, if any.
//
// If Handler returns nil, the printer replies with successful-ok
// and operation attributes only.
type Handler func(rq *goipp.Message, doc []byte) *goipp.Message

// Request represents a request, received by the Printer
type Request struct {
	Header           http.Header    // HTTP request header
	ContentLength    int64          // HTTP Content-Length, -1 if unknown
	TransferEncoding []string       // HTTP Transfer-Encoding
	Body             []byte         // Entire HTTP request body
	Message          *goipp.Message // Decoded IPP request
	Document         []byte         // Document data after the IPP message
}

// Printer is the fake IPP printer. It implements http.Handler
type Printer struct {
	Handler  Handler    // IPP request handler
	lock     sync.Mutex // Access lock
	requests []Request  // Received requests
}

// Server is the Printer, served by the httptest.Server
type Server struct {
	*Printer
	HTTP *httptest.Server
}

// NewServer starts a new Server with the given Handler. The server
// is stopped automatically when test completes
func NewServer(t testing.TB, h Handler) *Server {
	p := &Printer{Handler: h}
	s := &Server{Printer: p, HTTP: httptest.NewServer(p)}
	t.Cleanup(s.HTTP.Close)
	return s
}

// URI returns ipp: URI of the printer
func (s *Server) URI() string {
	return strings.Replace(s.HTTP.URL, "http:", "ipp:", 1) + "/ipp/print"
}

// ServeHTTP handles HTTP request
func (p *Printer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "%s not allowed", r.Method)
		return
	}

	if ct := r.Header.Get("Content-Type"); ct != goipp.ContentType {
		httpError(w, http.StatusUnsupportedMediaType,
			"Content-Type %q not supported", ct)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpError(w, http.StatusBadRequest, "%s", err)
		return
	}

	in := bytes.NewReader(body)
	msg := &goipp.Message{}
	err = msg.Decode(in)
	if err != nil {
		httpError(w, http.StatusBadRequest, "IPP: %s", err)
		return
	}

	doc := body[len(body)-in.Len():]

	p.lock.Lock()
	p.requests = append(p.requests, Request{
		Header:           r.Header.Clone(),
		ContentLength:    r.ContentLength,
		TransferEncoding: r.TransferEncoding,
		Body:             body,
		Message:          msg,
		Document:         doc,
	})
	p.lock.Unlock()

	var rsp *goipp.Message
	if p.Handler != nil {
		rsp = p.Handler(msg, doc)
	}

	if rsp == nil {
		rsp = Response(msg, goipp.StatusOk)
	}

	data, err := rsp.EncodeBytes()
	if err != nil {
		httpError(w, http.StatusInternalServerError, "IPP: %s", err)
		return
	}

	httpNoCache(w)
	w.Header().Set("Content-Type", goipp.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Requests returns all requests, received so far
func (p *Printer) Requests() []Request {
	p.lock.Lock()
	defer p.lock.Unlock()

	return append([]Request(nil), p.requests...)
}

// Response creates response to the request, with the given status
// and attribute groups. Operation attributes group with charset and
// natural language is always added first
func Response(rq *goipp.Message, status goipp.Status,
	groups ...goipp.Group) *goipp.Message {

	rsp := goipp.NewResponse(rq.Version, status, rq.RequestID)
	rsp.Groups = goipp.Groups{{
		Tag: goipp.TagOperationGroup,
		Attrs: goipp.Attributes{
			goipp.MakeAttr("attributes-charset",
				goipp.TagCharset, goipp.String("utf-8")),
			goipp.MakeAttr("attributes-natural-language",
				goipp.TagLanguage, goipp.String("en")),
		},
	}}

	rsp.Groups = append(rsp.Groups, groups...)
	return rsp
}

// JobGroup creates job attributes group
func JobGroup(attrs ...goipp.Attribute) goipp.Group {
	return goipp.Group{Tag: goipp.TagJobGroup, Attrs: attrs}
}

// PrinterGroup creates printer attributes group
func PrinterGroup(attrs ...goipp.Attribute) goipp.Group {
	return goipp.Group{Tag: goipp.TagPrinterGroup, Attrs: attrs}
}

// Reject request with a error
func httpError(w http.ResponseWriter, status int, format string, args ...interface{}) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	httpNoCache(w)
	w.WriteHeader(status)

	msg := fmt.Sprintf(format, args...)
	msg += "\n"

	w.Write([]byte(msg))
}

// Set response headers to disable cacheing
func httpNoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}
