// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSizeFromRange(t *testing.T) {
	size, err := parseSizeFromRange("bytes 10-14/100")
	require.NoError(t, err)
	assert.Equal(t, int64(100), size)

	size, err = parseSizeFromRange("bytes */200")
	require.NoError(t, err)
	assert.Equal(t, int64(200), size)

	for _, hdr := range []string{"bytes 0-1/*", "items 0-1/5", "garbage", ""} {
		_, err := parseSizeFromRange(hdr)
		assert.Error(t, err, "header %q", hdr)
	}
}

// objectHandler serves HEAD metadata and range GETs for a fixed payload.
func objectHandler(t *testing.T, payload string) func(req *http.Request, body string) *http.Response {
	return func(req *http.Request, body string) *http.Response {
		if req.Method == http.MethodHead {
			hdr := make(http.Header)
			hdr.Set("Content-Length", strconv.Itoa(len(payload)))
			hdr.Set("ETag", `"x"`)
			hdr.Set("Last-Modified", "Fri, 24 Feb 2012 06:07:48 GMT")
			return httpResponse(200, hdr, "")
		}
		rng := req.Header.Get("Range")
		if !strings.HasPrefix(rng, "bytes=") {
			t.Fatalf("unexpected Range header %q", rng)
		}
		var start, end int
		if _, err := fmt.Sscanf(rng, "bytes=%d-%d", &start, &end); err != nil {
			t.Fatalf("bad Range header %q: %v", rng, err)
		}
		if end >= len(payload) {
			end = len(payload) - 1
		}
		hdr := make(http.Header)
		hdr.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(payload)))
		return httpResponse(206, hdr, payload[start:end+1])
	}
}

func TestObjectReaderSequentialRead(t *testing.T) {
	tr := &transcript{}
	b := newTestBucket(t, tr, objectHandler(t, "0123456789"))
	r, err := b.NewObjectReader(context.Background(), "a.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(10), r.Size())

	buf := make([]byte, 4)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(buf[:n]))

	n, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "4567", string(buf[:n]))

	n, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "89", string(buf[:n]), "final read clipped to the object size")

	_, err = r.Read(buf)
	assert.Equal(t, io.EOF, err)

	// one HEAD plus three GETs, each for exactly the requested window
	require.Len(t, tr.calls, 4)
	assert.Equal(t, "bytes=0-3", tr.calls[1].Header.Get("Range"))
	assert.Equal(t, "bytes=4-7", tr.calls[2].Header.Get("Range"))
	assert.Equal(t, "bytes=8-9", tr.calls[3].Header.Get("Range"))
}

func TestObjectReaderSeek(t *testing.T) {
	tr := &transcript{}
	b := newTestBucket(t, tr, objectHandler(t, "0123456789"))
	r, err := b.NewObjectReader(context.Background(), "a.bin")
	require.NoError(t, err)
	headCalls := len(tr.calls)

	pos, err := r.Seek(6, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)

	pos, err = r.Seek(-4, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos)

	pos, err = r.Seek(-3, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pos)

	assert.Len(t, tr.calls, headCalls, "seeking alone issues no requests")

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "789", string(data))

	_, err = r.Seek(-1, io.SeekStart)
	assert.Error(t, err)
	_, err = r.Seek(0, 42)
	assert.Error(t, err)
}

func TestObjectReaderOpenError(t *testing.T) {
	tr := &transcript{}
	b := newTestBucket(t, tr, func(req *http.Request, body string) *http.Response {
		return httpResponse(404, nil, "")
	})
	_, err := b.NewObjectReader(context.Background(), "a.bin")
	var se *ServiceError
	require.ErrorAs(t, err, &se)
}
