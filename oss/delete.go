// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

// deleteBatchLimit is the per-request key ceiling of DeleteMultipleObjects.
const deleteBatchLimit = 200

var (
	escQuot = []byte("&#34;") // shorter than "&quot;"
	escApos = []byte("&#39;") // shorter than "&apos;"
	escAmp  = []byte("&amp;")
	escLT   = []byte("&lt;")
	escGT   = []byte("&gt;")
	escTab  = []byte("&#x9;")
	escNL   = []byte("&#xA;")
	escCR   = []byte("&#xD;")
	escFFFD = []byte("�") // Unicode replacement character
)

// escapeXML writes the properly escaped XML equivalent of the plain text s.
// Object keys may carry any UTF-8, including characters encoding/xml would
// reject silently; control characters become numeric references.
func escapeXML(s string) string {
	var p strings.Builder
	var esc []byte
	hextable := "0123456789ABCDEF"
	escPattern := []byte("&#x00;")
	last := 0
	for i := 0; i < len(s); {
		r, width := utf8.DecodeRuneInString(s[i:])
		i += width
		switch r {
		case '"':
			esc = escQuot
		case '\'':
			esc = escApos
		case '&':
			esc = escAmp
		case '<':
			esc = escLT
		case '>':
			esc = escGT
		case '\t':
			esc = escTab
		case '\n':
			esc = escNL
		case '\r':
			esc = escCR
		default:
			if !isInCharacterRange(r) || (r == 0xFFFD && width == 1) {
				if r >= 0x00 && r < 0x20 {
					escPattern[3] = hextable[r>>4]
					escPattern[4] = hextable[r&0x0f]
					esc = escPattern
				} else {
					esc = escFFFD
				}
				break
			}
			continue
		}
		p.WriteString(s[last : i-width])
		p.Write(esc)
		last = i
	}
	p.WriteString(s[last:])
	return p.String()
}

// Decide whether the given rune is in the XML Character Range, per
// the Char production of https://www.xml.com/axml/testaxml.htm,
// Section 2.2 Characters.
func isInCharacterRange(r rune) (inrange bool) {
	return r == 0x09 ||
		r == 0x0A ||
		r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// marshalDeleteBody renders the <Delete> document by hand so object keys get
// the full escaping above.
func marshalDeleteBody(objects []ObjectPath, quiet bool) string {
	var builder strings.Builder
	builder.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	builder.WriteString("<Delete><Quiet>")
	if quiet {
		builder.WriteString("true")
	} else {
		builder.WriteString("false")
	}
	builder.WriteString("</Quiet>")
	for _, object := range objects {
		builder.WriteString("<Object><Key>")
		builder.WriteString(escapeXML(string(object)))
		builder.WriteString("</Key></Object>")
	}
	builder.WriteString("</Delete>")
	return builder.String()
}

func (b *Bucket) deleteMultipleObjects(ctx context.Context, objects []ObjectPath) error {
	body := marshalDeleteBody(objects, true)
	query := url.Values{"delete": {""}}
	resource := CanonicalizedResource(b.name, "", query)
	u := b.url("", nil)
	u.RawQuery = "delete"
	pr, err := b.client.newRequest(ctx, http.MethodPost, u, resource, strings.NewReader(body), nil)
	if err != nil {
		return err
	}
	md5sum := md5.Sum([]byte(body))
	pr.req.ContentLength = int64(len(body))
	pr.req.Header.Set("Content-Type", "application/xml")
	pr.req.Header.Set("Content-MD5", base64.StdEncoding.EncodeToString(md5sum[:]))
	resp, err := b.client.doExpectSuccess(pr)
	if err != nil {
		return err
	}
	discardBody(resp)
	return nil
}

// DeleteMultipleObjects removes the given keys in batches of 200.
// https://www.alibabacloud.com/help/zh/oss/developer-reference/deletemultipleobjects
func (b *Bucket) DeleteMultipleObjects(ctx context.Context, objects []ObjectPath) error {
	for len(objects) > 0 {
		n := min(len(objects), deleteBatchLimit)
		if err := b.deleteMultipleObjects(ctx, objects[:n]); err != nil {
			return err
		}
		objects = objects[n:]
	}
	return nil
}
