// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// MaxKeys is the server-side page size ceiling.
const MaxKeys = 1000

// Object is one listing item from a <Contents> block.
type Object struct {
	Path         string
	LastModified time.Time
	ETag         string // surrounding quotes stripped
	Type         string
	Size         int64
	StorageClass StorageClass
}

var _ ObjectVisitor = (*Object)(nil)

func (o *Object) SetKey(s string) error {
	o.Path = s
	return nil
}

func (o *Object) SetLastModified(s string) error {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("bad LastModified: %w", err)
	}
	o.LastModified = t
	return nil
}

func (o *Object) SetETag(s string) error {
	o.ETag = s
	return nil
}

func (o *Object) SetType(s string) error {
	o.Type = s
	return nil
}

func (o *Object) SetSize(s string) error {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("bad Size: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("negative Size %d", n)
	}
	o.Size = n
	return nil
}

func (o *Object) SetStorageClass(s string) error {
	sc, err := ParseStorageClass(s)
	if err != nil {
		return err
	}
	o.StorageClass = sc
	return nil
}

// ObjectsPage is one page of a ListObjectsV2 response.
type ObjectsPage struct {
	Name                  string
	Prefix                string
	MaxKeys               int
	KeyCount              int
	NextContinuationToken string
	CommonPrefixes        []string
	Objects               []*Object
}

var _ ObjectListVisitor = (*ObjectsPage)(nil)

func (p *ObjectsPage) SetName(s string) error {
	p.Name = s
	return nil
}

func (p *ObjectsPage) SetPrefix(s string) error {
	p.Prefix = s
	return nil
}

func (p *ObjectsPage) SetMaxKeys(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("bad MaxKeys: %w", err)
	}
	p.MaxKeys = n
	return nil
}

func (p *ObjectsPage) SetKeyCount(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("bad KeyCount: %w", err)
	}
	p.KeyCount = n
	return nil
}

func (p *ObjectsPage) SetNextContinuationToken(s string) error {
	p.NextContinuationToken = s
	return nil
}

func (p *ObjectsPage) AppendCommonPrefix(s string) error {
	p.CommonPrefixes = append(p.CommonPrefixes, s)
	return nil
}

func (p *ObjectsPage) AppendObject() ObjectVisitor {
	o := &Object{}
	p.Objects = append(p.Objects, o)
	return o
}

// BucketProperties is one <Bucket> block of a service listing.
type BucketProperties struct {
	Name             string
	CreationDate     time.Time
	Location         string
	ExtranetEndpoint string
	IntranetEndpoint string
	StorageClass     StorageClass
}

var _ BucketVisitor = (*BucketProperties)(nil)

func (b *BucketProperties) SetName(s string) error {
	b.Name = s
	return nil
}

func (b *BucketProperties) SetCreationDate(s string) error {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("bad CreationDate: %w", err)
	}
	b.CreationDate = t
	return nil
}

func (b *BucketProperties) SetLocation(s string) error {
	b.Location = s
	return nil
}

func (b *BucketProperties) SetExtranetEndpoint(s string) error {
	b.ExtranetEndpoint = s
	return nil
}

func (b *BucketProperties) SetIntranetEndpoint(s string) error {
	b.IntranetEndpoint = s
	return nil
}

func (b *BucketProperties) SetStorageClass(s string) error {
	sc, err := ParseStorageClass(s)
	if err != nil {
		return err
	}
	b.StorageClass = sc
	return nil
}

// BucketsPage is the decoded ListAllMyBucketsResult.
type BucketsPage struct {
	Prefix           string
	Marker           string
	MaxKeys          int
	IsTruncated      bool
	NextMarker       string
	OwnerID          string
	OwnerDisplayName string
	Buckets          []*BucketProperties
}

var _ BucketListVisitor = (*BucketsPage)(nil)

func (p *BucketsPage) SetPrefix(s string) error {
	p.Prefix = s
	return nil
}

func (p *BucketsPage) SetMarker(s string) error {
	p.Marker = s
	return nil
}

func (p *BucketsPage) SetMaxKeys(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("bad MaxKeys: %w", err)
	}
	p.MaxKeys = n
	return nil
}

func (p *BucketsPage) SetIsTruncated(v bool) error {
	p.IsTruncated = v
	return nil
}

func (p *BucketsPage) SetNextMarker(s string) error {
	p.NextMarker = s
	return nil
}

func (p *BucketsPage) SetOwnerID(s string) error {
	p.OwnerID = s
	return nil
}

func (p *BucketsPage) SetOwnerDisplayName(s string) error {
	p.OwnerDisplayName = s
	return nil
}

func (p *BucketsPage) AppendBucket() BucketVisitor {
	b := &BucketProperties{}
	p.Buckets = append(p.Buckets, b)
	return b
}

// ListObjectsOptions tunes one ListObjectsV2 request. All fields are
// optional.
type ListObjectsOptions struct {
	Prefix            string
	Delimiter         string
	MaxKeys           int // <= 0 means the server default
	StartAfter        string
	ContinuationToken string
	FetchOwner        bool
}

func (o *ListObjectsOptions) query() url.Values {
	q := make(url.Values)
	q.Set("list-type", "2")
	if len(o.Prefix) != 0 {
		q.Set("prefix", o.Prefix)
	}
	if len(o.Delimiter) != 0 {
		q.Set("delimiter", o.Delimiter)
	}
	if o.MaxKeys > 0 {
		q.Set("max-keys", strconv.Itoa(o.MaxKeys))
	}
	if len(o.StartAfter) != 0 {
		q.Set("start-after", o.StartAfter)
	}
	if len(o.ContinuationToken) != 0 {
		q.Set("continuation-token", o.ContinuationToken)
	}
	if o.FetchOwner {
		q.Set("fetch-owner", "true")
	}
	return q
}

// ListObjects fetches one page of the bucket listing.
// https://www.alibabacloud.com/help/zh/oss/developer-reference/listobjectsv2
func (b *Bucket) ListObjects(ctx context.Context, opts *ListObjectsOptions) (*ObjectsPage, error) {
	if opts == nil {
		opts = &ListObjectsOptions{}
	}
	query := opts.query()
	resource := CanonicalizedResource(b.name, "", query)
	u := b.url("", query)
	pr, err := b.client.newRequest(ctx, http.MethodGet, u, resource, nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.doExpectSuccess(pr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint
	page := &ObjectsPage{}
	if err := DecodeListObjects(resp.Body, page); err != nil {
		return nil, err
	}
	return page, nil
}

// ObjectStream walks a listing across pages. Each advance past the current
// page issues the next request with the previous NextContinuationToken; the
// stream ends with io.EOF on the first page without one. Not safe for
// concurrent use.
type ObjectStream struct {
	bucket *Bucket
	opts   ListObjectsOptions
	page   *ObjectsPage
	idx    int
	done   bool
}

// Objects returns a pagination stream over the bucket listing.
func (b *Bucket) Objects(opts *ListObjectsOptions) *ObjectStream {
	s := &ObjectStream{bucket: b}
	if opts != nil {
		s.opts = *opts
	}
	return s
}

// Next returns the next listing item, fetching pages on demand. It returns
// io.EOF at exhaustion. Cancelling ctx aborts the in-flight request.
func (s *ObjectStream) Next(ctx context.Context) (*Object, error) {
	for {
		if s.page != nil && s.idx < len(s.page.Objects) {
			o := s.page.Objects[s.idx]
			s.idx++
			return o, nil
		}
		if s.done {
			return nil, io.EOF
		}
		if s.page != nil {
			if len(s.page.NextContinuationToken) == 0 {
				s.done = true
				return nil, io.EOF
			}
			s.opts.ContinuationToken = s.page.NextContinuationToken
		}
		page, err := s.bucket.ListObjects(ctx, &s.opts)
		if err != nil {
			return nil, err
		}
		s.page, s.idx = page, 0
		if len(page.Objects) == 0 && len(page.NextContinuationToken) == 0 {
			s.done = true
			return nil, io.EOF
		}
	}
}
