// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultConnTimeout         = time.Second * 60
	defaultIdleConnTimeout     = time.Second * 100
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 100
)

// Environment variables recognized by NewClientFromEnv.
const (
	EnvKeyId         = "ALIYUN_KEY_ID"
	EnvKeySecret     = "ALIYUN_KEY_SECRET"
	EnvEndPoint      = "ALIYUN_ENDPOINT"
	EnvBucket        = "ALIYUN_BUCKET"
	EnvInternal      = "ALIYUN_OSS_INTERNAL"
	EnvSecurityToken = "ALIYUN_SECURITY_TOKEN"
)

// Client holds credentials and the default endpoint/bucket. It is read-only
// after construction and safe for concurrent use.
type Client struct {
	keyID         KeyId
	keySecret     KeySecret
	securityToken string
	endpoint      EndPoint
	bucket        BucketName // optional default bucket
	partSize      int64
	httpClient    *http.Client
	middleware    Middleware
	now           func() time.Time
}

// NewClientOptions configures NewClient. EndPoint accepts either a region id
// ("cn-hangzhou") or a full host ("oss-cn-hangzhou-internal.aliyuncs.com").
type NewClientOptions struct {
	KeyId         string
	KeySecret     string
	SecurityToken string // optional STS token
	EndPoint      string
	Internal      bool
	Bucket        string // optional default bucket
	PartSize      int64  // multipart part size, default 5 MiB
	Middleware    Middleware
	HTTPClient    *http.Client // optional transport override
	Clock         func() time.Time
}

func NewClient(opts *NewClientOptions) (*Client, error) {
	keyID, err := ParseKeyId(opts.KeyId)
	if err != nil {
		return nil, err
	}
	keySecret, err := ParseKeySecret(opts.KeySecret)
	if err != nil {
		return nil, err
	}
	endpoint, err := ParseEndPoint(opts.EndPoint)
	if err != nil {
		if endpoint, err = ParseEndPointHost(opts.EndPoint); err != nil {
			return nil, err
		}
	}
	if opts.Internal {
		endpoint = endpoint.Internal()
	}
	c := &Client{
		keyID:         keyID,
		keySecret:     keySecret,
		securityToken: opts.SecurityToken,
		endpoint:      endpoint,
		partSize:      opts.PartSize,
		httpClient:    opts.HTTPClient,
		middleware:    opts.Middleware,
		now:           opts.Clock,
	}
	if len(opts.Bucket) != 0 {
		if c.bucket, err = ParseBucketName(opts.Bucket); err != nil {
			return nil, err
		}
	}
	if c.partSize == 0 {
		c.partSize = defaultPartSize
	}
	if c.partSize < minPartSize || c.partSize > maxPartSize {
		return nil, ErrOverflowPartSize
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.httpClient == nil {
		dialer := net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         dialer.DialContext,
				ForceAttemptHTTP2:   true,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
			Timeout: defaultConnTimeout,
		}
	}
	return c, nil
}

func isTruthy(s string) bool {
	return s == "1" || strings.EqualFold(s, "true") || strings.EqualFold(s, "yes") || strings.EqualFold(s, "y")
}

// NewClientFromEnv builds a client from the ALIYUN_* environment variables.
func NewClientFromEnv() (*Client, error) {
	return NewClient(&NewClientOptions{
		KeyId:         os.Getenv(EnvKeyId),
		KeySecret:     os.Getenv(EnvKeySecret),
		SecurityToken: os.Getenv(EnvSecurityToken),
		EndPoint:      os.Getenv(EnvEndPoint),
		Internal:      isTruthy(os.Getenv(EnvInternal)),
		Bucket:        os.Getenv(EnvBucket),
	})
}

// EndPoint returns the client's endpoint.
func (c *Client) EndPoint() EndPoint { return c.endpoint }

// Bucket returns a handle on the named bucket. The handle shares the client.
func (c *Client) Bucket(name string) (*Bucket, error) {
	bn, err := ParseBucketName(name)
	if err != nil {
		return nil, err
	}
	return &Bucket{client: c, name: bn}, nil
}

// DefaultBucket returns a handle on the bucket configured at construction.
func (c *Client) DefaultBucket() (*Bucket, error) {
	if len(c.bucket) == 0 {
		return nil, &ValidationError{Kind: "bucket name", Value: "", Reason: "no default bucket configured"}
	}
	return &Bucket{client: c, name: c.bucket}, nil
}

// serviceURL addresses the service root: https://oss-<region>.aliyuncs.com/.
func (c *Client) serviceURL() *url.URL {
	return &url.URL{Scheme: "https", Host: c.endpoint.Host(), Path: "/"}
}

// ListBuckets lists all buckets owned by the credentials.
func (c *Client) ListBuckets(ctx context.Context) (*BucketsPage, error) {
	pr, err := c.newRequest(ctx, http.MethodGet, c.serviceURL(), "/", nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.doExpectSuccess(pr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint
	page := &BucketsPage{}
	if err := DecodeListBuckets(resp.Body, page); err != nil {
		return nil, err
	}
	return page, nil
}

// Bucket is a handle on one bucket; it shares the client by reference.
type Bucket struct {
	client *Client
	name   BucketName
}

// Name returns the bucket name.
func (b *Bucket) Name() BucketName { return b.name }

// url builds the virtual-host URL for an object (or the bucket root when
// object is empty) with the given query.
func (b *Bucket) url(object ObjectPath, query url.Values) *url.URL {
	u := &url.URL{
		Scheme: "https",
		Host:   string(b.name) + "." + b.client.endpoint.Host(),
	}
	if len(object) != 0 {
		u.Path = "/" + string(object)
	}
	if len(query) != 0 {
		u.RawQuery = query.Encode()
	}
	return u
}

// BucketInfo describes a bucket as reported by ?bucketInfo.
type BucketInfo struct {
	Name               string
	Location           string
	CreationDate       time.Time
	ExtranetEndpoint   string
	IntranetEndpoint   string
	StorageClass       StorageClass
	DataRedundancyType string
}

type bucketInfoXML struct {
	XMLName xml.Name `xml:"BucketInfo"`
	Bucket  struct {
		Name               string `xml:"Name"`
		Location           string `xml:"Location"`
		CreationDate       string `xml:"CreationDate"`
		ExtranetEndpoint   string `xml:"ExtranetEndpoint"`
		IntranetEndpoint   string `xml:"IntranetEndpoint"`
		StorageClass       string `xml:"StorageClass"`
		DataRedundancyType string `xml:"DataRedundancyType"`
	} `xml:"Bucket"`
}

// Info fetches bucket metadata via the ?bucketInfo sub-resource.
func (b *Bucket) Info(ctx context.Context) (*BucketInfo, error) {
	query := url.Values{"bucketInfo": {""}}
	resource := CanonicalizedResource(b.name, "", query)
	u := b.url("", nil)
	u.RawQuery = "bucketInfo"
	pr, err := b.client.newRequest(ctx, http.MethodGet, u, resource, nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.doExpectSuccess(pr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint
	var raw bucketInfoXML
	if err := xml.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &DecodeError{Element: "BucketInfo", Err: err}
	}
	if len(raw.Bucket.CreationDate) == 0 {
		return nil, &ProtocolError{Op: "bucket info", Missing: "CreationDate"}
	}
	created, err := time.Parse(time.RFC3339, raw.Bucket.CreationDate)
	if err != nil {
		return nil, &DecodeError{Element: "CreationDate", Text: raw.Bucket.CreationDate, Err: err}
	}
	if len(raw.Bucket.StorageClass) == 0 {
		return nil, &ProtocolError{Op: "bucket info", Missing: "StorageClass"}
	}
	sc, err := ParseStorageClass(raw.Bucket.StorageClass)
	if err != nil {
		return nil, &DecodeError{Element: "StorageClass", Text: raw.Bucket.StorageClass, Err: err}
	}
	if len(raw.Bucket.DataRedundancyType) == 0 {
		return nil, &ProtocolError{Op: "bucket info", Missing: "DataRedundancyType"}
	}
	return &BucketInfo{
		Name:               raw.Bucket.Name,
		Location:           raw.Bucket.Location,
		CreationDate:       created,
		ExtranetEndpoint:   raw.Bucket.ExtranetEndpoint,
		IntranetEndpoint:   raw.Bucket.IntranetEndpoint,
		StorageClass:       sc,
		DataRedundancyType: raw.Bucket.DataRedundancyType,
	}, nil
}

// PutObject uploads the reader's bytes as object. size < 0 streams with
// chunked encoding; otherwise Content-Length is set.
func (b *Bucket) PutObject(ctx context.Context, object ObjectPath, r io.Reader, size int64, mime string) error {
	resource := CanonicalizedResource(b.name, object, nil)
	pr, err := b.client.newRequest(ctx, http.MethodPut, b.url(object, nil), resource, r, nil)
	if err != nil {
		return err
	}
	if size >= 0 {
		pr.req.ContentLength = size
	}
	if len(mime) != 0 {
		pr.req.Header.Set("Content-Type", mime)
	}
	resp, err := b.client.doExpectSuccess(pr)
	if err != nil {
		return err
	}
	discardBody(resp)
	return nil
}

// GetObject opens object for reading. start/length select a byte range in
// HTTP Range header terms:
//
//	start >= 0, length > 0  -> bytes=start-(start+length-1)
//	start >= 0, length <= 0 -> bytes=start-        (to the end)
//	start < 0               -> bytes=-start        (suffix)
//	start == 0, length <= 0 -> whole object, no Range header
func (b *Bucket) GetObject(ctx context.Context, object ObjectPath, start, length int64) (RangeReader, error) {
	resource := CanonicalizedResource(b.name, object, nil)
	pr, err := b.client.newRequest(ctx, http.MethodGet, b.url(object, nil), resource, nil, nil)
	if err != nil {
		return nil, err
	}
	switch {
	case start < 0:
		pr.req.Header.Set("Range", fmt.Sprintf("bytes=%d", start))
	case start >= 0 && length > 0:
		pr.req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, start+length-1))
	case start > 0:
		pr.req.Header.Set("Range", fmt.Sprintf("bytes=%d-", start))
	default: // NO RANGE
	}
	resp, err := b.client.doExpectSuccess(pr)
	if err != nil {
		return nil, err
	}
	size, err := b.checkSize(ctx, object, resp)
	if err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	return NewRangeReader(resp.Body, size, resp.Header.Get("Content-Range")), nil
}

func (b *Bucket) checkSize(ctx context.Context, object ObjectPath, resp *http.Response) (int64, error) {
	if rangeHdr := resp.Header.Get("Content-Range"); len(rangeHdr) != 0 {
		if size, err := parseSizeFromRange(rangeHdr); err == nil {
			return size, nil
		}
		meta, err := b.HeadObject(ctx, object)
		if err != nil {
			return 0, err
		}
		return meta.Size, nil
	}
	if size, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64); err == nil {
		return size, nil
	}
	meta, err := b.HeadObject(ctx, object)
	if err != nil {
		return -1, err
	}
	return meta.Size, nil
}

// CopyObject performs a server-side copy from src in srcBucket to object.
func (b *Bucket) CopyObject(ctx context.Context, object ObjectPath, srcBucket BucketName, src ObjectPath) error {
	resource := CanonicalizedResource(b.name, object, nil)
	pr, err := b.client.newRequest(ctx, http.MethodPut, b.url(object, nil), resource, nil, nil)
	if err != nil {
		return err
	}
	pr.req.Header.Set("x-oss-copy-source", "/"+string(srcBucket)+"/"+string(src))
	resp, err := b.client.doExpectSuccess(pr)
	if err != nil {
		return err
	}
	discardBody(resp)
	return nil
}

// DeleteObject removes object. A 404 still surfaces as a *ServiceError;
// idempotent-delete semantics belong to the caller.
func (b *Bucket) DeleteObject(ctx context.Context, object ObjectPath) error {
	resource := CanonicalizedResource(b.name, object, nil)
	pr, err := b.client.newRequest(ctx, http.MethodDelete, b.url(object, nil), resource, nil, nil)
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

// ObjectMeta is the result of HeadObject.
type ObjectMeta struct {
	LastModified time.Time
	ETag         string
	Size         int64
	ContentType  string
	Crc64        string
}

// HeadObject fetches object metadata without the body, via the ?objectMeta
// sub-resource.
func (b *Bucket) HeadObject(ctx context.Context, object ObjectPath) (*ObjectMeta, error) {
	query := url.Values{"objectMeta": {""}}
	resource := CanonicalizedResource(b.name, object, query)
	u := b.url(object, nil)
	u.RawQuery = "objectMeta"
	pr, err := b.client.newRequest(ctx, http.MethodHead, u, resource, nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.doExpectSuccess(pr)
	if err != nil {
		return nil, err
	}
	defer discardBody(resp)
	cl := resp.Header.Get("Content-Length")
	if len(cl) == 0 {
		return nil, &ProtocolError{Op: "head object", Missing: "Content-Length"}
	}
	size, err := strconv.ParseInt(cl, 10, 64)
	if err != nil {
		return nil, &ProtocolError{Op: "head object", Missing: "parseable Content-Length"}
	}
	etag := resp.Header.Get("ETag")
	if len(etag) == 0 {
		return nil, &ProtocolError{Op: "head object", Missing: "ETag"}
	}
	lm := resp.Header.Get("Last-Modified")
	if len(lm) == 0 {
		return nil, &ProtocolError{Op: "head object", Missing: "Last-Modified"}
	}
	modified, err := http.ParseTime(lm)
	if err != nil {
		return nil, &ProtocolError{Op: "head object", Missing: "parseable Last-Modified"}
	}
	return &ObjectMeta{
		LastModified: modified,
		ETag:         strings.Trim(etag, `"`),
		Size:         size,
		ContentType:  resp.Header.Get("Content-Type"),
		Crc64:        resp.Header.Get("X-Oss-Hash-Crc64ecma"),
	}, nil
}
