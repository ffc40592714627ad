// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Middleware intercepts a fully-built, signed request and produces the
// response in place of network I/O. At most one per client; used for tests
// and deterministic replays.
type Middleware func(*http.Request) (*http.Response, error)

// pendingRequest pairs an unsigned request with the canonicalized resource
// it will be signed against. Signing happens late, in do, with the clock
// read at send time.
type pendingRequest struct {
	req      *http.Request
	resource string
}

func (c *Client) newRequest(ctx context.Context, method string, u *url.URL, resource string, body io.Reader, header http.Header) (*pendingRequest, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("oss: build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	return &pendingRequest{req: req, resource: resource}, nil
}

func (c *Client) do(pr *pendingRequest) (*http.Response, error) {
	if err := c.signRequest(pr.req, pr.resource, c.now()); err != nil {
		return nil, err
	}
	if c.middleware != nil {
		return c.middleware(pr.req)
	}
	return c.httpClient.Do(pr.req)
}

func isSuccessStatus(code int) bool {
	return code == http.StatusOK || code == http.StatusNoContent || code == http.StatusPartialContent
}

// doExpectSuccess sends pr and treats 200/204/206 as success. Any other
// status consumes the body as the service's <Error> document and returns a
// *ServiceError. The caller owns the body of a successful response.
func (c *Client) doExpectSuccess(pr *pendingRequest) (*http.Response, error) {
	resp, err := c.do(pr)
	if err != nil {
		return nil, err
	}
	if !isSuccessStatus(resp.StatusCode) {
		defer resp.Body.Close() // nolint
		return nil, readServiceError(resp)
	}
	return resp, nil
}

// discardBody drains and closes a response body so the connection can be
// reused.
func discardBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
