// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// The listing decoders walk the token stream directly instead of
// unmarshalling a DOM: listing responses are unbounded (up to max-keys
// entries per page) and the caller may reject an entry long before the page
// ends. Unknown elements are skipped wholesale.

// DecodeError reports an XML parse failure, as opposed to a value the sink
// refused (SinkError).
type DecodeError struct {
	Element string
	Text    string
	Err     error
}

func (e *DecodeError) Error() string {
	if len(e.Element) == 0 {
		return fmt.Sprintf("oss: decode: %v", e.Err)
	}
	return fmt.Sprintf("oss: decode <%s> %q: %v", e.Element, e.Text, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SinkError carries the first error a visitor reported, with the original
// element text attached for diagnostics.
type SinkError struct {
	Element string
	Text    string
	Err     error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("oss: sink rejected <%s> %q: %v", e.Element, e.Text, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// ObjectVisitor receives the fields of one <Contents> block. Setters take the
// element text verbatim, except ETag whose surrounding quotes are stripped
// before delivery.
type ObjectVisitor interface {
	SetKey(string) error
	SetLastModified(string) error
	SetETag(string) error
	SetType(string) error
	SetSize(string) error
	SetStorageClass(string) error
}

// ObjectListVisitor receives a ListBucketResult. AppendObject is invoked once
// per <Contents> block and returns the sink for that item.
type ObjectListVisitor interface {
	SetName(string) error
	SetPrefix(string) error
	SetMaxKeys(string) error
	SetKeyCount(string) error
	SetNextContinuationToken(string) error
	AppendCommonPrefix(string) error
	AppendObject() ObjectVisitor
}

// BucketVisitor receives the fields of one <Bucket> block of a
// ListAllMyBucketsResult.
type BucketVisitor interface {
	SetName(string) error
	SetCreationDate(string) error
	SetLocation(string) error
	SetExtranetEndpoint(string) error
	SetIntranetEndpoint(string) error
	SetStorageClass(string) error
}

// BucketListVisitor receives a ListAllMyBucketsResult.
type BucketListVisitor interface {
	SetPrefix(string) error
	SetMarker(string) error
	SetMaxKeys(string) error
	SetIsTruncated(bool) error
	SetNextMarker(string) error
	SetOwnerID(string) error
	SetOwnerDisplayName(string) error
	AppendBucket() BucketVisitor
}

// textOf consumes tokens until the matching end of the element just started,
// concatenating character data. Nested elements inside a leaf are skipped.
func textOf(d *xml.Decoder, start xml.StartElement) (string, error) {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 1 {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

// skipElement discards everything up to and including the end of the element
// just started.
func skipElement(d *xml.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// leaf reads one leaf element's text and hands it to set, wrapping parse
// failures as *DecodeError and sink refusals as *SinkError.
func leaf(d *xml.Decoder, start xml.StartElement, set func(string) error) error {
	text, err := textOf(d, start)
	if err != nil {
		return &DecodeError{Element: start.Name.Local, Err: err}
	}
	if err := set(text); err != nil {
		return &SinkError{Element: start.Name.Local, Text: text, Err: err}
	}
	return nil
}

func stripETagQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// DecodeListObjects streams a ListBucketResult document into v. The first
// sink error aborts decoding immediately. Unknown elements are ignored.
func DecodeListObjects(r io.Reader, v ObjectListVisitor) error {
	d := xml.NewDecoder(r)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &DecodeError{Err: err}
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "ListBucketResult":
			// descend into the document element
		case "Name":
			if err := leaf(d, start, v.SetName); err != nil {
				return err
			}
		case "Prefix":
			if err := leaf(d, start, v.SetPrefix); err != nil {
				return err
			}
		case "MaxKeys":
			if err := leaf(d, start, v.SetMaxKeys); err != nil {
				return err
			}
		case "KeyCount":
			if err := leaf(d, start, v.SetKeyCount); err != nil {
				return err
			}
		case "NextContinuationToken":
			if err := leaf(d, start, v.SetNextContinuationToken); err != nil {
				return err
			}
		case "CommonPrefixes":
			if err := decodeCommonPrefixes(d, v); err != nil {
				return err
			}
		case "Contents":
			if err := decodeContents(d, v.AppendObject()); err != nil {
				return err
			}
		default:
			if err := skipElement(d); err != nil {
				return &DecodeError{Element: start.Name.Local, Err: err}
			}
		}
	}
}

func decodeCommonPrefixes(d *xml.Decoder, v ObjectListVisitor) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return &DecodeError{Element: "CommonPrefixes", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "Prefix" {
				if err := leaf(d, t, v.AppendCommonPrefix); err != nil {
					return err
				}
				continue
			}
			if err := skipElement(d); err != nil {
				return &DecodeError{Element: t.Name.Local, Err: err}
			}
		case xml.EndElement:
			return nil
		}
	}
}

func decodeContents(d *xml.Decoder, item ObjectVisitor) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return &DecodeError{Element: "Contents", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var set func(string) error
			switch t.Name.Local {
			case "Key":
				set = item.SetKey
			case "LastModified":
				set = item.SetLastModified
			case "ETag":
				set = func(s string) error { return item.SetETag(stripETagQuotes(s)) }
			case "Type":
				set = item.SetType
			case "Size":
				set = item.SetSize
			case "StorageClass":
				set = item.SetStorageClass
			default:
				if err := skipElement(d); err != nil {
					return &DecodeError{Element: t.Name.Local, Err: err}
				}
				continue
			}
			if err := leaf(d, t, set); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// DecodeListBuckets streams a ListAllMyBucketsResult document into v.
func DecodeListBuckets(r io.Reader, v BucketListVisitor) error {
	d := xml.NewDecoder(r)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &DecodeError{Err: err}
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "ListAllMyBucketsResult", "Buckets":
			// container elements, descend
		case "Prefix":
			if err := leaf(d, start, v.SetPrefix); err != nil {
				return err
			}
		case "Marker":
			if err := leaf(d, start, v.SetMarker); err != nil {
				return err
			}
		case "MaxKeys":
			if err := leaf(d, start, v.SetMaxKeys); err != nil {
				return err
			}
		case "IsTruncated":
			if err := leaf(d, start, func(s string) error { return v.SetIsTruncated(s == "true") }); err != nil {
				return err
			}
		case "NextMarker":
			if err := leaf(d, start, v.SetNextMarker); err != nil {
				return err
			}
		case "Owner":
			if err := decodeOwner(d, v); err != nil {
				return err
			}
		case "Bucket":
			if err := decodeBucket(d, v.AppendBucket()); err != nil {
				return err
			}
		default:
			if err := skipElement(d); err != nil {
				return &DecodeError{Element: start.Name.Local, Err: err}
			}
		}
	}
}

func decodeOwner(d *xml.Decoder, v BucketListVisitor) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return &DecodeError{Element: "Owner", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "ID":
				if err := leaf(d, t, v.SetOwnerID); err != nil {
					return err
				}
			case "DisplayName":
				if err := leaf(d, t, v.SetOwnerDisplayName); err != nil {
					return err
				}
			default:
				if err := skipElement(d); err != nil {
					return &DecodeError{Element: t.Name.Local, Err: err}
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

func decodeBucket(d *xml.Decoder, item BucketVisitor) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return &DecodeError{Element: "Bucket", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var set func(string) error
			switch t.Name.Local {
			case "Name":
				set = item.SetName
			case "CreationDate":
				set = item.SetCreationDate
			case "Location":
				set = item.SetLocation
			case "ExtranetEndpoint":
				set = item.SetExtranetEndpoint
			case "IntranetEndpoint":
				set = item.SetIntranetEndpoint
			case "StorageClass":
				set = item.SetStorageClass
			default:
				if err := skipElement(d); err != nil {
					return &DecodeError{Element: t.Name.Local, Err: err}
				}
				continue
			}
			if err := leaf(d, t, set); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}
