// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testClock is the deterministic clock every test client signs with.
var testClock = func() time.Time {
	return time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
}

// call is one request the fake transport observed.
type call struct {
	Method   string
	Host     string
	Path     string
	RawQuery string
	Header   http.Header
	Body     string
}

// transcript records every signed request the client sends and answers each
// from the supplied handler. Safe for concurrent use so parallel part
// uploads can share one.
type transcript struct {
	mu    sync.Mutex
	calls []call
}

func (tr *transcript) middleware(handler func(req *http.Request, body string) *http.Response) Middleware {
	return func(req *http.Request) (*http.Response, error) {
		var body string
		if req.Body != nil {
			b, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			_ = req.Body.Close()
			body = string(b)
		}
		tr.mu.Lock()
		tr.calls = append(tr.calls, call{
			Method:   req.Method,
			Host:     req.URL.Host,
			Path:     req.URL.Path,
			RawQuery: req.URL.RawQuery,
			Header:   req.Header.Clone(),
			Body:     body,
		})
		tr.mu.Unlock()
		return handler(req, body), nil
	}
}

func httpResponse(status int, header http.Header, body string) *http.Response {
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		StatusCode:    status,
		Header:        header,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

func newTestClient(t *testing.T, tr *transcript, handler func(req *http.Request, body string) *http.Response) *Client {
	t.Helper()
	c, err := NewClient(&NewClientOptions{
		KeyId:      "foo1",
		KeySecret:  "foo2",
		EndPoint:   "cn-qingdao",
		Bucket:     "abc",
		Clock:      testClock,
		Middleware: tr.middleware(handler),
	})
	require.NoError(t, err)
	return c
}

func newTestBucket(t *testing.T, tr *transcript, handler func(req *http.Request, body string) *http.Response) *Bucket {
	t.Helper()
	b, err := newTestClient(t, tr, handler).DefaultBucket()
	require.NoError(t, err)
	return b
}
