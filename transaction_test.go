/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Transaction tests
 */

package ippclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/OpenPrinting/goipp"
	"github.com/OpenPrinting/ippclient/internal/ipptest"
)

// testTargetURL returns HTTP URL of the test server
func testTargetURL(t *testing.T, s *ipptest.Server) *url.URL {
	u, err := HTTPTargetURL(s.URI())
	if err != nil {
		t.Fatalf("%s", err)
	}
	return u
}

// testRequest creates a simple request
func testRequest() *Request {
	rq := NewRequest(goipp.OpGetPrinterAttributes, 42)
	Set(rq, AttrCharset, "utf-8")
	Set(rq, AttrNaturalLanguage, "en")
	Set(rq, AttrPrinterURI, "ipp://localhost/ipp/print")
	return rq
}

// TestExecute checks the normal transaction
func TestExecute(t *testing.T) {
	s := ipptest.NewServer(t, func(rq *goipp.Message, doc []byte) *goipp.Message {
		return ipptest.Response(rq, goipp.StatusOk,
			ipptest.PrinterGroup(
				goipp.MakeAttr("printer-state", goipp.TagEnum,
					goipp.Integer(PrinterIdle))))
	})

	var buf bytes.Buffer
	exec := &Executor{Log: &Logger{out: &buf, levels: LogAll}}

	rsp, err := exec.Execute(context.Background(), testTargetURL(t, s),
		testRequest(), nil)
	if err != nil {
		t.Fatalf("%s", err)
	}

	if rsp.RequestID != 42 {
		t.Errorf("request-id: expected 42, present %d", rsp.RequestID)
	}

	if state, ok := Get(rsp.Printer(), AttrPrinterState); !ok || state != PrinterIdle {
		t.Errorf("printer-state: %s %v", state, ok)
	}

	rqs := s.Requests()
	if len(rqs) != 1 {
		t.Fatalf("expected 1 request, present %d", len(rqs))
	}

	if ct := rqs[0].Header.Get("Content-Type"); ct != "application/ipp" {
		t.Errorf("Content-Type: %q", ct)
	}

	expected, _ := testRequest().EncodeBytes()
	if rqs[0].ContentLength != int64(len(expected)) {
		t.Errorf("Content-Length: expected %d, present %d",
			len(expected), rqs[0].ContentLength)
	}

	if !bytes.Equal(rqs[0].Body, expected) {
		t.Errorf("body:\nexpected: % x\npresent:  % x", expected, rqs[0].Body)
	}

	if !strings.Contains(buf.String(), "Get-Printer-Attributes") {
		t.Errorf("log: request not traced:\n%s", buf.String())
	}
}

// TestExecuteData checks that document data is streamed after
// the IPP message with unknown length
func TestExecuteData(t *testing.T) {
	s := ipptest.NewServer(t, nil)
	doc := bytes.Repeat([]byte("%PDF-1.4 test document\n"), 1000)

	exec := &Executor{}
	_, err := exec.Execute(context.Background(), testTargetURL(t, s),
		testRequest(), bytes.NewReader(doc))
	if err != nil {
		t.Fatalf("%s", err)
	}

	rq := s.Requests()[0]
	if rq.ContentLength != -1 {
		t.Errorf("Content-Length: unknown expected, present %d", rq.ContentLength)
	}

	if !bytes.Equal(rq.Document, doc) {
		t.Errorf("document: %d bytes sent, %d bytes received",
			len(doc), len(rq.Document))
	}
}

// TestExecuteEmptyData checks that empty document data doesn't
// change the request body
func TestExecuteEmptyData(t *testing.T) {
	s := ipptest.NewServer(t, nil)
	u := testTargetURL(t, s)
	exec := &Executor{}
	rq := testRequest()

	_, err := exec.Execute(context.Background(), u, rq, nil)
	if err == nil {
		_, err = exec.Execute(context.Background(), u, rq, bytes.NewReader(nil))
	}
	if err != nil {
		t.Fatalf("%s", err)
	}

	rqs := s.Requests()
	if !bytes.Equal(rqs[0].Body, rqs[1].Body) {
		t.Errorf("body mismatch:\nno data:    % x\nempty data: % x",
			rqs[0].Body, rqs[1].Body)
	}

	if len(rqs[1].Document) != 0 {
		t.Errorf("unexpected document data")
	}
}

// TestExecuteHTTPError checks that non-200 HTTP status is reported
// as HTTPResponseError and body is not decoded
func TestExecuteHTTPError(t *testing.T) {
	var hits int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", goipp.ContentType)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal error"))
	}))
	defer s.Close()

	u, _ := url.Parse(s.URL + "/ipp/print")
	exec := &Executor{}

	rsp, err := exec.Execute(context.Background(), u, testRequest(), nil)
	if rsp != nil {
		t.Errorf("response must be nil")
	}

	var herr *HTTPResponseError
	if !errors.As(err, &herr) {
		t.Fatalf("expected HTTPResponseError, present %v", err)
	}

	var derr *DecodeError
	if errors.As(err, &derr) {
		t.Errorf("body must not be decoded")
	}

	if herr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status: %d", herr.StatusCode)
	}

	if string(herr.Body) != "internal error" {
		t.Errorf("body: %q", herr.Body)
	}

	if hits != 1 {
		t.Errorf("expected 1 request, present %d", hits)
	}
}

// TestExecuteDecodeError checks that malformed IPP response is
// reported as DecodeError
func TestExecuteDecodeError(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", goipp.ContentType)
		w.Write([]byte{0x02, 0x00, 0x00})
	}))
	defer s.Close()

	u, _ := url.Parse(s.URL)
	exec := &Executor{}

	_, err := exec.Execute(context.Background(), u, testRequest(), nil)

	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Errorf("expected DecodeError, present %v", err)
	}
}

// TestExecuteTooLarge checks response size limit
func TestExecuteTooLarge(t *testing.T) {
	s := ipptest.NewServer(t, func(rq *goipp.Message, doc []byte) *goipp.Message {
		return ipptest.Response(rq, goipp.StatusOk,
			ipptest.PrinterGroup(
				goipp.MakeAttr("printer-info", goipp.TagText,
					goipp.String(strings.Repeat("x", 1000)))))
	})

	exec := &Executor{MaxResponseSize: 512}
	_, err := exec.Execute(context.Background(), testTargetURL(t, s),
		testRequest(), nil)

	if !errors.Is(err, ErrResponseTooLarge) {
		t.Errorf("expected ErrResponseTooLarge, present %v", err)
	}
}

// TestExecuteTimeout checks that transaction is limited by timeout
func TestExecuteTimeout(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer s.Close()

	u, _ := url.Parse(s.URL)
	exec := &Executor{Timeout: 50 * time.Millisecond}

	start := time.Now()
	_, err := exec.Execute(context.Background(), u, testRequest(), nil)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, present %v", err)
	}

	if time.Since(start) > 3*time.Second {
		t.Errorf("timeout not respected")
	}
}

// TestExecuteCanceled checks that canceled context prevents
// the transaction
func TestExecuteCanceled(t *testing.T) {
	s := ipptest.NewServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &Executor{}
	_, err := exec.Execute(ctx, testTargetURL(t, s), testRequest(), nil)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, present %v", err)
	}

	if n := len(s.Requests()); n != 0 {
		t.Errorf("%d requests sent", n)
	}
}

// TestExecuteAuth checks request authorization hook
func TestExecuteAuth(t *testing.T) {
	s := ipptest.NewServer(t, nil)
	u := testTargetURL(t, s)

	exec := &Executor{Auth: BasicAuth{User: "user", Password: "pass"}}
	_, err := exec.Execute(context.Background(), u, testRequest(), nil)
	if err != nil {
		t.Fatalf("%s", err)
	}

	auth := s.Requests()[0].Header.Get("Authorization")
	if auth != "Basic dXNlcjpwYXNz" {
		t.Errorf("Authorization: %q", auth)
	}

	// Authorizer failure prevents the transaction
	errAuth := errors.New("no credentials")
	exec.Auth = AuthorizerFunc(func(*http.Request) error { return errAuth })

	_, err = exec.Execute(context.Background(), u, testRequest(), nil)
	if !errors.Is(err, errAuth) {
		t.Errorf("expected %v, present %v", errAuth, err)
	}

	if n := len(s.Requests()); n != 1 {
		t.Errorf("expected 1 request, present %d", n)
	}
}

// TestBasicAuthSASLprep checks credentials normalization
func TestBasicAuthSASLprep(t *testing.T) {
	rq, _ := http.NewRequest(http.MethodPost, "http://localhost/", nil)

	// U+00A0 NO-BREAK SPACE is mapped to the ordinary space,
	// U+00AD SOFT HYPHEN is mapped to nothing
	auth := BasicAuth{User: "us\u00ader", Password: "pa\u00a0ss"}
	err := auth.Authorize(rq)
	if err != nil {
		t.Fatalf("%s", err)
	}

	user, password, _ := rq.BasicAuth()
	if user != "user" || password != "pa ss" {
		t.Errorf("credentials: %q %q", user, password)
	}

	// Prohibited characters are rejected
	auth = BasicAuth{User: "user\u0007"}
	if err := auth.Authorize(rq); err == nil {
		t.Errorf("control character must be rejected")
	}
}

// failingReader fails after the first read
type failingReader struct {
	done bool
}

// Read implements io.Reader
func (r *failingReader) Read(buf []byte) (int, error) {
	if r.done {
		return 0, io.ErrUnexpectedEOF
	}
	r.done = true
	return copy(buf, "data"), nil
}

// TestExecuteDataError checks that document read error aborts
// the transaction
func TestExecuteDataError(t *testing.T) {
	s := ipptest.NewServer(t, nil)

	exec := &Executor{}
	_, err := exec.Execute(context.Background(), testTargetURL(t, s),
		testRequest(), &failingReader{})

	if err == nil {
		t.Errorf("error expected")
	}
}
