// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accessDeniedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>AccessDenied</Code>
  <Message>The bucket you access does not belong to you.</Message>
  <RequestId>5C3D9175B6FC201293AD4521</RequestId>
  <HostId>abc.oss-cn-qingdao.aliyuncs.com</HostId>
</Error>`

func TestDoExpectSuccessServiceError(t *testing.T) {
	tr := &transcript{}
	b := newTestBucket(t, tr, func(req *http.Request, body string) *http.Response {
		return httpResponse(403, nil, accessDeniedFixture)
	})
	err := b.DeleteObject(context.Background(), "a.txt")
	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "AccessDenied", se.Code)
	assert.Equal(t, 403, se.StatusCode)
	assert.Equal(t, "The bucket you access does not belong to you.", se.Message)
	assert.Equal(t, "5C3D9175B6FC201293AD4521", se.RequestID)
}

func TestDoExpectSuccessUndefinedCode(t *testing.T) {
	tr := &transcript{}
	b := newTestBucket(t, tr, func(req *http.Request, body string) *http.Response {
		return httpResponse(500, nil, "this is not xml at all")
	})
	err := b.DeleteObject(context.Background(), "a.txt")
	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, undefinedCode, se.Code)
	assert.Equal(t, 500, se.StatusCode)
}

func TestDoExpectSuccessStatuses(t *testing.T) {
	for _, status := range []int{200, 204, 206} {
		tr := &transcript{}
		b := newTestBucket(t, tr, func(req *http.Request, body string) *http.Response {
			return httpResponse(status, nil, "")
		})
		assert.NoError(t, b.DeleteObject(context.Background(), "a.txt"), "status %d", status)
	}
	for _, status := range []int{201, 301, 304, 404} {
		tr := &transcript{}
		b := newTestBucket(t, tr, func(req *http.Request, body string) *http.Response {
			return httpResponse(status, nil, "")
		})
		var se *ServiceError
		err := b.DeleteObject(context.Background(), "a.txt")
		require.ErrorAs(t, err, &se, "status %d", status)
		assert.Equal(t, status, se.StatusCode)
	}
}

func TestDelete404IsStillAnError(t *testing.T) {
	tr := &transcript{}
	b := newTestBucket(t, tr, func(req *http.Request, body string) *http.Response {
		return httpResponse(404, nil, `<Error><Code>NoSuchKey</Code><Message>gone</Message></Error>`)
	})
	err := b.DeleteObject(context.Background(), "a.txt")
	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "NoSuchKey", se.Code)
}

func TestMiddlewareSeesSignedRequest(t *testing.T) {
	tr := &transcript{}
	b := newTestBucket(t, tr, func(req *http.Request, body string) *http.Response {
		assert.NotEmpty(t, req.Header.Get("Authorization"))
		assert.NotEmpty(t, req.Header.Get("Date"))
		return httpResponse(200, nil, "")
	})
	require.NoError(t, b.DeleteObject(context.Background(), "a.txt"))
	require.Len(t, tr.calls, 1)
	assert.Equal(t, "abc.oss-cn-qingdao.aliyuncs.com", tr.calls[0].Host)
}

func TestServiceErrorFromHeader(t *testing.T) {
	// HEAD-style responses can carry the error document base64 encoded in
	// X-Oss-Err.
	hdr := make(http.Header)
	hdr.Set("X-Oss-Err", "PEVycm9yPjxDb2RlPk5vU3VjaEtleTwvQ29kZT48L0Vycm9yPg==") // <Error><Code>NoSuchKey</Code></Error>
	tr := &transcript{}
	b := newTestBucket(t, tr, func(req *http.Request, body string) *http.Response {
		return httpResponse(404, hdr, "")
	})
	_, err := b.HeadObject(context.Background(), "a.txt")
	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "NoSuchKey", se.Code)
}
