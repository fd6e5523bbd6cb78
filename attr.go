/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Typed access to IPP attributes
 */

package ippclient

import (
	"fmt"

	"github.com/OpenPrinting/goipp"
	"github.com/google/uuid"
)

// Key is the typed key of the well-known IPP attribute.
//
// Key binds attribute name to the group it belongs to when sent
// in request, to the value tag and to the conversion between
// goipp.Value and the Go type T
type Key[T any] struct {
	Name  string    // Attribute name
	Group goipp.Tag // Request group; TagZero for response-only attributes
	Tag   goipp.Tag // Value tag
	conv  converter[T]
}

// converter converts between T and goipp.Value
type converter[T any] struct {
	enc func(T) goipp.Value
	dec func(goipp.Value) (T, bool)
}

// attrRule is the registry entry of the well-known attribute
type attrRule struct {
	tags []goipp.Tag // Acceptable value tags
}

// attrRegistry contains rules for all well-known attributes,
// indexed by attribute name
var attrRegistry = make(map[string]attrRule)

// defKey defines the new Key and records it in the attrRegistry.
// The first tag is used when attribute is encoded, others are
// also accepted when attribute is decoded
func defKey[T any](name string, group goipp.Tag, conv converter[T],
	tag goipp.Tag, also ...goipp.Tag) Key[T] {

	if _, dup := attrRegistry[name]; dup {
		panic(fmt.Sprintf("attribute %q defined twice", name))
	}

	rule := attrRule{tags: append([]goipp.Tag{tag}, also...)}
	attrRegistry[name] = rule

	return Key[T]{Name: name, Group: group, Tag: tag, conv: conv}
}

// Value converters
var (
	convInteger = converter[int32]{
		enc: func(v int32) goipp.Value { return goipp.Integer(v) },
		dec: func(v goipp.Value) (int32, bool) {
			i, ok := v.(goipp.Integer)
			return int32(i), ok
		},
	}

	convBoolean = converter[bool]{
		enc: func(v bool) goipp.Value { return goipp.Boolean(v) },
		dec: func(v goipp.Value) (bool, bool) {
			b, ok := v.(goipp.Boolean)
			return bool(b), ok
		},
	}

	convString = converter[string]{
		enc: func(v string) goipp.Value { return goipp.String(v) },
		dec: func(v goipp.Value) (string, bool) {
			switch s := v.(type) {
			case goipp.String:
				return string(s), true
			case goipp.TextWithLang:
				return s.Text, true
			}
			return "", false
		},
	}

	convUUID = converter[uuid.UUID]{
		enc: func(v uuid.UUID) goipp.Value { return goipp.String(v.URN()) },
		dec: func(v goipp.Value) (uuid.UUID, bool) {
			s, ok := v.(goipp.String)
			if !ok {
				return uuid.Nil, false
			}
			u, err := uuid.Parse(string(s))
			return u, err == nil
		},
	}

	convJobState = converter[JobState]{
		enc: func(v JobState) goipp.Value { return goipp.Integer(v) },
		dec: func(v goipp.Value) (JobState, bool) {
			i, ok := v.(goipp.Integer)
			return JobState(i), ok
		},
	}

	convPrinterState = converter[PrinterState]{
		enc: func(v PrinterState) goipp.Value { return goipp.Integer(v) },
		dec: func(v goipp.Value) (PrinterState, bool) {
			i, ok := v.(goipp.Integer)
			return PrinterState(i), ok
		},
	}

	convOp = converter[goipp.Op]{
		enc: func(v goipp.Op) goipp.Value { return goipp.Integer(v) },
		dec: func(v goipp.Value) (goipp.Op, bool) {
			i, ok := v.(goipp.Integer)
			return goipp.Op(i), ok
		},
	}
)

// Well-known attributes: operation
var (
	AttrCharset = defKey("attributes-charset",
		goipp.TagOperationGroup, convString, goipp.TagCharset)
	AttrNaturalLanguage = defKey("attributes-natural-language",
		goipp.TagOperationGroup, convString, goipp.TagLanguage)
	AttrPrinterURI = defKey("printer-uri",
		goipp.TagOperationGroup, convString, goipp.TagURI)
	AttrRequestingUserName = defKey("requesting-user-name",
		goipp.TagOperationGroup, convString, goipp.TagName)
	AttrJobID = defKey("job-id",
		goipp.TagOperationGroup, convInteger, goipp.TagInteger)
	AttrJobName = defKey("job-name",
		goipp.TagOperationGroup, convString, goipp.TagName)
	AttrDocumentFormat = defKey("document-format",
		goipp.TagOperationGroup, convString, goipp.TagMimeType)
	AttrDocumentName = defKey("document-name",
		goipp.TagOperationGroup, convString, goipp.TagName)
	AttrLastDocument = defKey("last-document",
		goipp.TagOperationGroup, convBoolean, goipp.TagBoolean)
	AttrRequestedAttributes = defKey("requested-attributes",
		goipp.TagOperationGroup, convString, goipp.TagKeyword)
	AttrWhichJobs = defKey("which-jobs",
		goipp.TagOperationGroup, convString, goipp.TagKeyword)
	AttrMyJobs = defKey("my-jobs",
		goipp.TagOperationGroup, convBoolean, goipp.TagBoolean)
	AttrLimit = defKey("limit",
		goipp.TagOperationGroup, convInteger, goipp.TagInteger)
	AttrIppAttributeFidelity = defKey("ipp-attribute-fidelity",
		goipp.TagOperationGroup, convBoolean, goipp.TagBoolean)
	AttrStatusMessage = defKey("status-message",
		goipp.TagZero, convString, goipp.TagText)
)

// Well-known attributes: job template
var (
	AttrCopies = defKey("copies",
		goipp.TagJobGroup, convInteger, goipp.TagInteger)
	AttrSides = defKey("sides",
		goipp.TagJobGroup, convString, goipp.TagKeyword)
	AttrMedia = defKey("media",
		goipp.TagJobGroup, convString, goipp.TagKeyword, goipp.TagName)
)

// Well-known attributes: job description, returned by printer
var (
	AttrJobURI = defKey("job-uri",
		goipp.TagZero, convString, goipp.TagURI)
	AttrJobUUID = defKey("job-uuid",
		goipp.TagZero, convUUID, goipp.TagURI)
	AttrJobState = defKey("job-state",
		goipp.TagZero, convJobState, goipp.TagEnum)
	AttrJobStateReasons = defKey("job-state-reasons",
		goipp.TagZero, convString, goipp.TagKeyword)
	AttrJobStateMessage = defKey("job-state-message",
		goipp.TagZero, convString, goipp.TagText)
	AttrJobPrinterURI = defKey("job-printer-uri",
		goipp.TagZero, convString, goipp.TagURI)
	AttrJobImpressionsCompleted = defKey("job-impressions-completed",
		goipp.TagZero, convInteger, goipp.TagInteger)
)

// Well-known attributes: printer description
var (
	AttrPrinterName = defKey("printer-name",
		goipp.TagZero, convString, goipp.TagName)
	AttrPrinterState = defKey("printer-state",
		goipp.TagZero, convPrinterState, goipp.TagEnum)
	AttrPrinterStateReasons = defKey("printer-state-reasons",
		goipp.TagZero, convString, goipp.TagKeyword)
	AttrPrinterMakeAndModel = defKey("printer-make-and-model",
		goipp.TagZero, convString, goipp.TagText)
	AttrPrinterUUID = defKey("printer-uuid",
		goipp.TagZero, convUUID, goipp.TagURI)
	AttrPrinterIsAcceptingJobs = defKey("printer-is-accepting-jobs",
		goipp.TagZero, convBoolean, goipp.TagBoolean)
	AttrDocumentFormatSupported = defKey("document-format-supported",
		goipp.TagZero, convString, goipp.TagMimeType)
	AttrOperationsSupported = defKey("operations-supported",
		goipp.TagZero, convOp, goipp.TagEnum)
)

// Get returns the first value of the attribute, identified by key.
//
// If attribute is missed, or its first value has unexpected tag
// (including out-of-band values, like "unknown" or "no-value"),
// ok is false.
func Get[T any](attrs goipp.Attributes, key Key[T]) (val T, ok bool) {
	attr, found := attrFind(attrs, key.Name)
	if !found || len(attr.Values) == 0 {
		return
	}

	return key.decode(attr.Values[0].T, attr.Values[0].V)
}

// GetAll returns all values of the attribute, identified by key.
// Values with unexpected tags are skipped. If there is nothing to
// return, it returns nil
func GetAll[T any](attrs goipp.Attributes, key Key[T]) []T {
	attr, found := attrFind(attrs, key.Name)
	if !found {
		return nil
	}

	var vals []T
	for _, v := range attr.Values {
		if val, ok := key.decode(v.T, v.V); ok {
			vals = append(vals, val)
		}
	}

	return vals
}

// Set sets attribute in the request. If attribute with the same
// name already exists in the target group, it is replaced, otherwise
// attribute is appended to the group.
//
// Group is chosen by the Key. Setting of response-only attribute
// is a programming error and causes panic
func Set[T any](rq *Request, key Key[T], val T, vals ...T) {
	var grp *goipp.Attributes
	switch key.Group {
	case goipp.TagOperationGroup:
		grp = &rq.Operation
	case goipp.TagJobGroup:
		grp = &rq.Job
	default:
		panic(fmt.Sprintf("Set: %q cannot be sent in request", key.Name))
	}

	attr := goipp.MakeAttr(key.Name, key.Tag, key.conv.enc(val))
	for _, v := range vals {
		attr.Values.Add(key.Tag, key.conv.enc(v))
	}

	for i := range *grp {
		if (*grp)[i].Name == key.Name {
			(*grp)[i] = attr
			return
		}
	}

	grp.Add(attr)
}

// decode converts a single value, if its tag is acceptable
func (key Key[T]) decode(tag goipp.Tag, v goipp.Value) (val T, ok bool) {
	if tag != key.Tag && tag != attrLangTag(key.Tag) {
		rule := attrRegistry[key.Name]
		if !rule.accepts(tag) || attrOutOfBand(tag) {
			return
		}
	}

	return key.conv.dec(v)
}

// attrFind returns the first attribute with the given name
func attrFind(attrs goipp.Attributes, name string) (goipp.Attribute, bool) {
	for _, attr := range attrs {
		if attr.Name == name {
			return attr, true
		}
	}
	return goipp.Attribute{}, false
}

// accepts tells if value tag is acceptable by the rule
func (rule attrRule) accepts(tag goipp.Tag) bool {
	if attrOutOfBand(tag) {
		return true
	}

	for _, t := range rule.tags {
		if tag == t || tag == attrLangTag(t) {
			return true
		}
	}

	return false
}

// attrCheck validates value tags of the well-known attribute.
// Unknown attributes are accepted as is
func attrCheck(attr goipp.Attribute) error {
	rule, found := attrRegistry[attr.Name]
	if !found {
		return nil
	}

	for _, v := range attr.Values {
		if !rule.accepts(v.T) {
			return fmt.Errorf("%q: unexpected value tag %s",
				attr.Name, v.T)
		}
	}

	return nil
}

// attrOutOfBand tells if tag is the out-of-band value tag
// (unsupported, unknown, no-value and so on)
func attrOutOfBand(tag goipp.Tag) bool {
	return tag >= goipp.TagUnsupportedValue && tag < goipp.TagInteger
}

// attrLangTag returns the with-language variant of the string tag,
// or TagZero if there is no such variant
func attrLangTag(tag goipp.Tag) goipp.Tag {
	switch tag {
	case goipp.TagText:
		return goipp.TagTextLang
	case goipp.TagName:
		return goipp.TagNameLang
	}
	return goipp.TagZero
}
