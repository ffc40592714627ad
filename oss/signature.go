// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
)

// https://help.aliyun.com/document_detail/31951.html
// Authorization = "OSS " + AccessKeyId + ":" + Signature
// Signature = base64(hmac-sha1(AccessKeySecret,
//             VERB + "\n"
//             + Content-MD5 + "\n"
//             + Content-Type + "\n"
//             + Date + "\n"
//             + CanonicalizedOSSHeaders
//             + CanonicalizedResource))

const (
	securityTokenHeader = "x-oss-security-token"
	ossHeaderPrefix     = "x-oss-"
)

// signString is the HMAC-SHA1 primitive shared by header signing and
// presigned URLs.
func signString(secret KeySecret, stringToSign string) string {
	h := hmac.New(sha1.New, []byte(secret.reveal()))
	_, _ = h.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// canonicalizedOSSHeaders renders every header whose lowercased name begins
// with x-oss-, sorted ascending, one "name:value" per line. Multi-valued
// headers join with ',' preserving input order. The returned string carries
// its trailing '\n' when non-empty, so it splices directly into the
// string-to-sign.
func canonicalizedOSSHeaders(header http.Header) string {
	keys := make([]string, 0, 4)
	vals := make(map[string]string, 4)
	for k, v := range header {
		lk := strings.ToLower(k)
		if !strings.HasPrefix(lk, ossHeaderPrefix) {
			continue
		}
		keys = append(keys, lk)
		vals[lk] = strings.Join(v, ",")
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(vals[k])
		b.WriteByte('\n')
	}
	return b.String()
}

// Authorization computes the v1 Authorization header value from its raw
// inputs. It is a pure function: identical inputs yield byte-identical
// output. canonHeaders must be the pre-rendered x-oss-* block (empty, or
// newline-terminated).
func Authorization(id KeyId, secret KeySecret, method, contentMD5, contentType, date, canonHeaders, resource string) string {
	stringToSign := method + "\n" + contentMD5 + "\n" + contentType + "\n" + date + "\n" + canonHeaders + resource
	return "OSS " + string(id) + ":" + signString(secret, stringToSign)
}

// signRequest stamps Date, the optional STS token and Authorization onto req.
// The token header is set before the x-oss-* block is collected, so it
// participates in the sorted header list. now is the wall clock read at send
// time.
func (c *Client) signRequest(req *http.Request, resource string, now time.Time) error {
	if len(resource) == 0 {
		return &SignError{Op: "request", Reason: "missing canonicalized resource for " + req.URL.Host}
	}
	if len(c.securityToken) != 0 {
		req.Header.Set(securityTokenHeader, c.securityToken)
	}
	date := httpDate(now)
	req.Header.Set("Date", date)
	auth := Authorization(c.keyID, c.keySecret,
		strings.ToUpper(req.Method),
		req.Header.Get("Content-MD5"),
		req.Header.Get("Content-Type"),
		date,
		canonicalizedOSSHeaders(req.Header),
		resource)
	if !httpguts.ValidHeaderFieldValue(auth) {
		return &SignError{Op: "request", Reason: "computed Authorization is not a valid header value"}
	}
	req.Header.Set("Authorization", auth)
	return nil
}

// PresignGet produces a time-bounded GET URL for object. The signature rides
// the query string: OSSAccessKeyId, Expires (unix seconds) and Signature over
// "GET\n\n\n<expires>\n<resource>". No headers participate.
func (b *Bucket) PresignGet(object ObjectPath, expiresAt int64) string {
	c := b.client
	resource := CanonicalizedResource(b.name, object, nil)
	sig := signString(c.keySecret, "GET\n\n\n"+strconv.FormatInt(expiresAt, 10)+"\n"+resource)
	u := &url.URL{
		Scheme: "https",
		Host:   string(b.name) + "." + c.endpoint.Host(),
		Path:   "/" + string(object),
	}
	// Assembled by hand: the conventional parameter order is not the sorted
	// order url.Values.Encode would emit.
	u.RawQuery = "OSSAccessKeyId=" + url.QueryEscape(string(c.keyID)) +
		"&Expires=" + strconv.FormatInt(expiresAt, 10) +
		"&Signature=" + url.QueryEscape(sig)
	return u.String()
}
