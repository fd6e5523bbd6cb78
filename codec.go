/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * IPP request encoding and response decoding
 */

package ippclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/OpenPrinting/goipp"
)

// Request represents IPP request message.
//
// Request is created by a Target, filled by the caller and
// consumed by Target.Execute. Document data, if any, is not
// a part of Request and goes to Execute separately
type Request struct {
	Version   goipp.Version    // Protocol version
	Op        goipp.Op         // Operation code
	RequestID uint32           // Request ID
	Operation goipp.Attributes // Operation attributes
	Job       goipp.Attributes // Job attributes; nil means no group
}

// NewRequest creates a new Request with empty attribute groups
func NewRequest(op goipp.Op, id uint32) *Request {
	return &Request{
		Version:   goipp.DefaultVersion,
		Op:        op,
		RequestID: id,
	}
}

// Encode writes request in the IPP wire format.
//
// The operation attributes group is always written first, even if
// it is empty. The job attributes group is written only if rq.Job
// is not nil
func (rq *Request) Encode(out io.Writer) error {
	err := rq.message().Encode(out)
	if err != nil {
		err = fmt.Errorf("IPP encode: %s", err)
	}
	return err
}

// EncodeBytes encodes request into byte slice
func (rq *Request) EncodeBytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(rq.sizeHint())

	err := rq.Encode(&buf)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// message converts Request into goipp.Message
func (rq *Request) message() *goipp.Message {
	msg := goipp.NewRequest(rq.Version, rq.Op, rq.RequestID)

	operation := rq.Operation
	if operation == nil {
		operation = goipp.Attributes{}
	}

	msg.Groups = goipp.Groups{{Tag: goipp.TagOperationGroup, Attrs: operation}}
	if rq.Job != nil {
		msg.Groups.Add(goipp.Group{Tag: goipp.TagJobGroup, Attrs: rq.Job})
	}

	return msg
}

// sizeHint estimates encoded size of the request. It is only
// a hint for the output buffer preallocation
func (rq *Request) sizeHint() int {
	// Version, code, request ID, operation group tag and end tag
	size := 2 + 2 + 4 + 1 + 1
	if rq.Job != nil {
		size++
	}

	for _, grp := range [...]goipp.Attributes{rq.Operation, rq.Job} {
		for _, attr := range grp {
			size += len(attr.Name)
			for _, v := range attr.Values {
				// Tag, name length, value length
				size += 1 + 2 + 2 + len(v.V.String())
			}
		}
	}

	return size
}

// Response represents decoded IPP response message
type Response struct {
	Version   goipp.Version // Protocol version
	Status    goipp.Status  // Status code
	RequestID uint32        // Request ID, as echoed by printer
	Groups    goipp.Groups  // Attribute groups, in order of appearance
}

// DecodeResponse decodes IPP response from its wire representation.
//
// Besides the wire format itself, it checks that the operation
// attributes group comes first and appears only once, and that
// well-known attributes carry acceptable value tags. On error,
// nothing is returned but *DecodeError.
func DecodeResponse(data []byte) (*Response, error) {
	var msg goipp.Message

	err := msg.DecodeBytes(data)
	if err != nil {
		return nil, &DecodeError{err}
	}

	for i, grp := range msg.Groups {
		switch {
		case i == 0 && grp.Tag != goipp.TagOperationGroup:
			err = fmt.Errorf("%s before %s", grp.Tag,
				goipp.TagOperationGroup)
		case i != 0 && grp.Tag == goipp.TagOperationGroup:
			err = fmt.Errorf("%s repeated", grp.Tag)
		}

		for _, attr := range grp.Attrs {
			if err != nil {
				break
			}
			err = attrCheck(attr)
		}

		if err != nil {
			return nil, &DecodeError{err}
		}
	}

	rsp := &Response{
		Version:   msg.Version,
		Status:    goipp.Status(msg.Code),
		RequestID: msg.RequestID,
		Groups:    msg.Groups,
	}

	return rsp, nil
}

// Operation returns operation attributes of the response
func (rsp *Response) Operation() goipp.Attributes {
	return rsp.group(goipp.TagOperationGroup)
}

// Job returns attributes of the first job group of the response
func (rsp *Response) Job() goipp.Attributes {
	return rsp.group(goipp.TagJobGroup)
}

// Jobs returns attributes of all job groups of the response,
// one per job. Get-Jobs response uses this form
func (rsp *Response) Jobs() []goipp.Attributes {
	var jobs []goipp.Attributes
	for _, grp := range rsp.Groups {
		if grp.Tag == goipp.TagJobGroup {
			jobs = append(jobs, grp.Attrs)
		}
	}
	return jobs
}

// Printer returns printer attributes of the response
func (rsp *Response) Printer() goipp.Attributes {
	return rsp.group(goipp.TagPrinterGroup)
}

// Unsupported returns unsupported attributes of the response
func (rsp *Response) Unsupported() goipp.Attributes {
	return rsp.group(goipp.TagUnsupportedGroup)
}

// StatusMessage returns the "status-message" operation attribute,
// if any
func (rsp *Response) StatusMessage() string {
	msg, _ := Get(rsp.Operation(), AttrStatusMessage)
	return msg
}

// Err returns *StatusError if response status is not in the
// successful range, nil otherwise
func (rsp *Response) Err() error {
	if rsp.Status < 0x0100 {
		return nil
	}

	return &StatusError{Status: rsp.Status, Message: rsp.StatusMessage()}
}

// group returns attributes of the first group with the given tag
func (rsp *Response) group(tag goipp.Tag) goipp.Attributes {
	for _, grp := range rsp.Groups {
		if grp.Tag == tag {
			return grp.Attrs
		}
	}
	return nil
}

// message converts Response into goipp.Message
func (rsp *Response) message() *goipp.Message {
	msg := goipp.NewResponse(rsp.Version, rsp.Status, rsp.RequestID)
	msg.Groups = rsp.Groups
	return msg
}

// IsStatusError tells if err is, or wraps, *StatusError
// with the given IPP status
func IsStatusError(err error, status goipp.Status) bool {
	var serr *StatusError
	return errors.As(err, &serr) && serr.Status == status
}
