// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// size constant defined
const (
	Byte int64 = 1 << (iota * 10)
	KiByte
	MiByte
	GiByte
)

const (
	// https://help.aliyun.com/document_detail/31850.html
	minPartSize     = 100 * KiByte
	maxPartSize     = 5 * GiByte
	defaultPartSize = 5 * MiByte
	maxPartsCount   = 10000

	abortTimeout = 10 * time.Second
)

// InitiateMultipartUploadResult defines result of InitiateMultipartUpload request
type InitiateMultipartUploadResult struct {
	XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
	Bucket   string   `xml:"Bucket"`   // Bucket name
	Key      string   `xml:"Key"`      // Object name to upload
	UploadID string   `xml:"UploadId"` // Generated UploadId
}

// UploadPart defines one uploaded part: its number and the ETag the server
// answered with, quotes preserved as received.
type UploadPart struct {
	XMLName    xml.Name `xml:"Part"`
	PartNumber int      `xml:"PartNumber"`
	ETag       string   `xml:"ETag"`
}

// completeMultipartUploadBody renders the CompleteMultipartUpload document.
// parts must already be in ascending PartNumber order; ETags are written
// verbatim.
func completeMultipartUploadBody(parts []UploadPart) string {
	var b strings.Builder
	b.WriteString("<CompleteMultipartUpload>")
	for _, p := range parts {
		b.WriteString("<Part><PartNumber>")
		b.WriteString(strconv.Itoa(p.PartNumber))
		b.WriteString("</PartNumber><ETag>")
		b.WriteString(p.ETag)
		b.WriteString("</ETag></Part>")
	}
	b.WriteString("</CompleteMultipartUpload>")
	return b.String()
}

// CompleteMultipartUploadResult defines result object of CompleteMultipartUploadRequest
type CompleteMultipartUploadResult struct {
	XMLName  xml.Name `xml:"CompleteMultipartUploadResult"`
	Location string   `xml:"Location"` // Object URL
	Bucket   string   `xml:"Bucket"`   // Bucket name
	ETag     string   `xml:"ETag"`     // Object ETag
	Key      string   `xml:"Key"`      // Object name
}

// initiateMultipartUpload starts a server-side session and returns its
// upload id.
// https://www.alibabacloud.com/help/en/object-storage-service/latest/initiatemultipartupload
func (b *Bucket) initiateMultipartUpload(ctx context.Context, object ObjectPath, mime string) (string, error) {
	query := url.Values{"uploads": {""}}
	resource := CanonicalizedResource(b.name, object, query)
	u := b.url(object, nil)
	u.RawQuery = "uploads"
	pr, err := b.client.newRequest(ctx, http.MethodPost, u, resource, nil, nil)
	if err != nil {
		return "", err
	}
	if len(mime) != 0 {
		pr.req.Header.Set("Content-Type", mime)
	}
	resp, err := b.client.doExpectSuccess(pr)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() // nolint
	var result InitiateMultipartUploadResult
	if err := xml.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &DecodeError{Element: "InitiateMultipartUploadResult", Err: err}
	}
	if len(result.UploadID) == 0 {
		return "", &ProtocolError{Op: "initiate multipart upload", Missing: "UploadId"}
	}
	return result.UploadID, nil
}

// uploadPart ships one part and returns it with the server's ETag.
// https://www.alibabacloud.com/help/en/object-storage-service/latest/uploadpart
func (b *Bucket) uploadPart(ctx context.Context, object ObjectPath, uploadID string, number int, r io.Reader, size int64) (UploadPart, error) {
	result := UploadPart{PartNumber: number}
	query := url.Values{
		"partNumber": {strconv.Itoa(number)},
		"uploadId":   {uploadID},
	}
	resource := CanonicalizedResource(b.name, object, query)
	pr, err := b.client.newRequest(ctx, http.MethodPut, b.url(object, query), resource, r, nil)
	if err != nil {
		return result, err
	}
	if size >= 0 {
		pr.req.ContentLength = size
	}
	resp, err := b.client.doExpectSuccess(pr)
	if err != nil {
		return result, err
	}
	defer discardBody(resp)
	etag := resp.Header.Get("ETag")
	if len(etag) == 0 {
		return result, &ProtocolError{Op: fmt.Sprintf("upload part %d", number), Missing: "ETag"}
	}
	result.ETag = etag
	return result, nil
}

// completeMultipartUpload finalizes the session. parts must be ascending.
// https://www.alibabacloud.com/help/en/object-storage-service/latest/completemultipartupload
func (b *Bucket) completeMultipartUpload(ctx context.Context, object ObjectPath, uploadID string, parts []UploadPart) error {
	query := url.Values{"uploadId": {uploadID}}
	resource := CanonicalizedResource(b.name, object, query)
	body := completeMultipartUploadBody(parts)
	pr, err := b.client.newRequest(ctx, http.MethodPost, b.url(object, query), resource, strings.NewReader(body), nil)
	if err != nil {
		return err
	}
	pr.req.ContentLength = int64(len(body))
	resp, err := b.client.doExpectSuccess(pr)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint
	var result CompleteMultipartUploadResult
	if err := xml.NewDecoder(resp.Body).Decode(&result); err != nil {
		return &DecodeError{Element: "CompleteMultipartUploadResult", Err: err}
	}
	return nil
}

// abortMultipartUpload discards the session server-side.
//
// NOTE: a fresh context is used on purpose: abort usually runs on a failure
// path where the original context is already cancelled, and cleanup must not
// fail with it.
// https://www.alibabacloud.com/help/en/object-storage-service/latest/abortmultipartupload
func (b *Bucket) abortMultipartUpload(object ObjectPath, uploadID string) error {
	ctx, cancelCtx := context.WithTimeout(context.Background(), abortTimeout)
	defer cancelCtx()
	query := url.Values{"uploadId": {uploadID}}
	resource := CanonicalizedResource(b.name, object, query)
	pr, err := b.client.newRequest(ctx, http.MethodDelete, b.url(object, query), resource, nil, nil)
	if err != nil {
		return err
	}
	resp, err := b.client.doExpectSuccess(pr)
	if err != nil {
		return err
	}
	discardBody(resp)
	return nil
}

// bestEffortAbort issues an abort whose outcome is logged and discarded, so
// it never masks the error that triggered it.
func (b *Bucket) bestEffortAbort(object ObjectPath, uploadID string) {
	if len(uploadID) == 0 {
		return
	}
	if err := b.abortMultipartUpload(object, uploadID); err != nil {
		logrus.Warnf("oss: abort multipart upload %s: %v", object, err)
	}
}

type uploaderState int

const (
	uploaderIdle uploaderState = iota
	uploaderUploading
	uploaderDone
	uploaderAborted
	uploaderFailed
)

// MultipartUploader maps Write/Flush semantics onto the three-phase
// multipart protocol. Write only accumulates (shipping full parts as the
// buffer fills); Flush or Close commits the object. Dropping an uploader
// without Close leaks the session server-side once a part has shipped —
// call Abort on abandoned uploads.
//
// If the total payload fits a single part and no session was started, Flush
// degrades to a plain PUT with no multipart overhead.
type MultipartUploader struct {
	ctx      context.Context
	bucket   *Bucket
	object   ObjectPath
	mime     string
	partSize int64
	buf      []byte
	uploadID string
	parts    []UploadPart
	nextPart int
	written  int64
	state    uploaderState
}

// NewMultipartUploader opens a streaming writer onto object. partSize <= 0
// selects the client default (5 MiB).
func (b *Bucket) NewMultipartUploader(ctx context.Context, object ObjectPath, mime string, partSize int64) (*MultipartUploader, error) {
	if partSize <= 0 {
		partSize = b.client.partSize
	}
	if partSize < minPartSize || partSize > maxPartSize {
		return nil, ErrOverflowPartSize
	}
	return &MultipartUploader{
		ctx:      ctx,
		bucket:   b,
		object:   object,
		mime:     mime,
		partSize: partSize,
		nextPart: 1,
		state:    uploaderIdle,
	}, nil
}

// UploadID returns the server-issued session token, empty until the first
// full part forces initiation.
func (u *MultipartUploader) UploadID() string { return u.uploadID }

// Written returns the total bytes accepted by Write.
func (u *MultipartUploader) Written() int64 { return u.written }

func (u *MultipartUploader) usable() error {
	switch u.state {
	case uploaderDone:
		return ErrUploadCompleted
	case uploaderAborted, uploaderFailed:
		return ErrNoUploadID
	}
	return nil
}

// fail records a fatal error and best-effort aborts any open session.
func (u *MultipartUploader) fail(err error) error {
	u.state = uploaderFailed
	u.bucket.bestEffortAbort(u.object, u.uploadID)
	u.uploadID = ""
	return err
}

// shipPart uploads exactly the first n buffered bytes as the next part.
func (u *MultipartUploader) shipPart(n int) error {
	if u.nextPart > maxPartsCount {
		return u.fail(ErrOverflowMaxPartsCount)
	}
	if u.uploadID == "" {
		id, err := u.bucket.initiateMultipartUpload(u.ctx, u.object, u.mime)
		if err != nil {
			u.state = uploaderFailed
			return err
		}
		u.uploadID = id
		u.state = uploaderUploading
	}
	part, err := u.bucket.uploadPart(u.ctx, u.object, u.uploadID, u.nextPart, bytes.NewReader(u.buf[:n]), int64(n))
	if err != nil {
		return u.fail(err)
	}
	u.parts = append(u.parts, part)
	u.nextPart++
	u.buf = u.buf[:copy(u.buf, u.buf[n:])]
	return nil
}

// Write appends p to the part buffer, shipping a part each time the buffer
// reaches the configured part size. An oversize write is split into
// part-size shipments.
func (u *MultipartUploader) Write(p []byte) (int, error) {
	if err := u.usable(); err != nil {
		return 0, err
	}
	u.buf = append(u.buf, p...)
	for int64(len(u.buf)) >= u.partSize {
		if err := u.shipPart(int(u.partSize)); err != nil {
			return 0, err
		}
	}
	u.written += int64(len(p))
	return len(p), nil
}

// Flush commits the object: any remaining buffered bytes go out as the final
// part, then the session completes with the parts in ascending order. When
// no session was ever started and everything fits one part, Flush issues a
// plain PUT instead.
func (u *MultipartUploader) Flush() error {
	if err := u.usable(); err != nil {
		return err
	}
	if u.uploadID == "" {
		data := u.buf
		u.buf = nil
		u.state = uploaderDone
		return u.bucket.PutObject(u.ctx, u.object, bytes.NewReader(data), int64(len(data)), u.mime)
	}
	if len(u.buf) > 0 {
		if err := u.shipPart(len(u.buf)); err != nil {
			return err
		}
	}
	if err := u.bucket.completeMultipartUpload(u.ctx, u.object, u.uploadID, u.parts); err != nil {
		return u.fail(err)
	}
	u.uploadID = ""
	u.parts = nil
	u.state = uploaderDone
	return nil
}

// Close commits the upload; it is Flush for io.WriteCloser users. Closing an
// already-committed uploader is a no-op.
func (u *MultipartUploader) Close() error {
	if u.state == uploaderDone {
		return nil
	}
	return u.Flush()
}

// Abort discards the session server-side. It is safe to call at any point;
// before initiation there is nothing to discard and Abort reports
// ErrNoUploadID.
func (u *MultipartUploader) Abort() error {
	if u.state == uploaderDone {
		return ErrUploadCompleted
	}
	if len(u.uploadID) == 0 {
		return ErrNoUploadID
	}
	err := u.bucket.abortMultipartUpload(u.object, u.uploadID)
	u.uploadID = ""
	u.parts = nil
	u.buf = nil
	u.state = uploaderAborted
	return err
}

var (
	_ io.Writer = (*MultipartUploader)(nil)
	_ io.Closer = (*MultipartUploader)(nil)
)
