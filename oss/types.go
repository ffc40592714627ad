// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"net/http"
	"strings"
	"time"
)

const (
	endPointSuffix         = ".aliyuncs.com"
	endPointPrefix         = "oss-"
	endPointInternalSuffix = "-internal"
)

// EndPoint identifies the region-specific host address of the service.
// The zero value is invalid; build one with ParseEndPoint or use the
// region constants below.
type EndPoint struct {
	id       string
	internal bool
}

// Known region endpoints.
var (
	CnHangzhou    = EndPoint{id: "cn-hangzhou"}
	CnShanghai    = EndPoint{id: "cn-shanghai"}
	CnQingdao     = EndPoint{id: "cn-qingdao"}
	CnBeijing     = EndPoint{id: "cn-beijing"}
	CnZhangjiakou = EndPoint{id: "cn-zhangjiakou"}
	CnHongkong    = EndPoint{id: "cn-hongkong"}
	CnShenzhen    = EndPoint{id: "cn-shenzhen"}
	CnChengdu     = EndPoint{id: "cn-chengdu"}
	UsWest1       = EndPoint{id: "us-west-1"}
	UsEast1       = EndPoint{id: "us-east-1"}
	ApSouthEast1  = EndPoint{id: "ap-southeast-1"}
	EuCentral1    = EndPoint{id: "eu-central-1"}
	EuWest1       = EndPoint{id: "eu-west-1"}
)

func isLowerAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

// ParseEndPoint validates a region id such as "cn-hangzhou". The id must be
// lowercase alphanumerics plus '-', must not start with '-', and must not
// carry the "oss" prefix: that belongs to the rendered host, not the region.
func ParseEndPoint(id string) (EndPoint, error) {
	if len(id) == 0 {
		return EndPoint{}, &ValidationError{Kind: "endpoint", Value: id, Reason: "empty region id"}
	}
	if id[0] == '-' {
		return EndPoint{}, &ValidationError{Kind: "endpoint", Value: id, Reason: "leading '-'"}
	}
	if strings.HasPrefix(id, "oss") {
		return EndPoint{}, &ValidationError{Kind: "endpoint", Value: id, Reason: "region id must not carry the oss host prefix"}
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; !isLowerAlnum(c) && c != '-' {
			return EndPoint{}, &ValidationError{Kind: "endpoint", Value: id, Reason: "region id must match [a-z0-9-]"}
		}
	}
	return EndPoint{id: id}, nil
}

// ParseEndPointHost inverts Host: "oss-cn-shanghai-internal.aliyuncs.com"
// round-trips to CnShanghai.Internal().
func ParseEndPointHost(host string) (EndPoint, error) {
	s, ok := strings.CutSuffix(host, endPointSuffix)
	if !ok {
		return EndPoint{}, &ValidationError{Kind: "endpoint", Value: host, Reason: "host must end with " + endPointSuffix}
	}
	s, ok = strings.CutPrefix(s, endPointPrefix)
	if !ok {
		return EndPoint{}, &ValidationError{Kind: "endpoint", Value: host, Reason: "host must start with " + endPointPrefix}
	}
	var internal bool
	if t, ok := strings.CutSuffix(s, endPointInternalSuffix); ok {
		s, internal = t, true
	}
	e, err := ParseEndPoint(s)
	if err != nil {
		return EndPoint{}, err
	}
	e.internal = internal
	return e, nil
}

// ID returns the bare region id, e.g. "cn-qingdao".
func (e EndPoint) ID() string { return e.id }

// IsInternal reports whether the endpoint addresses the intranet host.
func (e EndPoint) IsInternal() bool { return e.internal }

// Internal returns a copy of the endpoint addressing the intranet host,
// reachable only from ECS instances in the same region.
func (e EndPoint) Internal() EndPoint {
	e.internal = true
	return e
}

// Host renders the service host: oss-<id>[-internal].aliyuncs.com.
func (e EndPoint) Host() string {
	if e.internal {
		return endPointPrefix + e.id + endPointInternalSuffix + endPointSuffix
	}
	return endPointPrefix + e.id + endPointSuffix
}

func (e EndPoint) String() string { return e.Host() }

// BucketName is a validated bucket name. Build one with ParseBucketName.
type BucketName string

// ParseBucketName enforces the service naming rules: 3..63 characters from
// [a-z0-9-], first and last alphanumeric, and not an IPv4 literal.
func ParseBucketName(s string) (BucketName, error) {
	if isIPv4Literal(s) {
		return "", &ValidationError{Kind: "bucket name", Value: s, Reason: "must not be an IPv4 literal"}
	}
	if len(s) < 3 || len(s) > 63 {
		return "", &ValidationError{Kind: "bucket name", Value: s, Reason: "length must be 3..63"}
	}
	if !isLowerAlnum(s[0]) || !isLowerAlnum(s[len(s)-1]) {
		return "", &ValidationError{Kind: "bucket name", Value: s, Reason: "must start and end with a lowercase letter or digit"}
	}
	for i := 0; i < len(s); i++ {
		if c := s[i]; !isLowerAlnum(c) && c != '-' {
			return "", &ValidationError{Kind: "bucket name", Value: s, Reason: "must match [a-z0-9-]"}
		}
	}
	return BucketName(s), nil
}

func isIPv4Literal(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if len(p) == 0 || len(p) > 3 {
			return false
		}
		for i := 0; i < len(p); i++ {
			if p[i] < '0' || p[i] > '9' {
				return false
			}
		}
	}
	return true
}

// ObjectPath is a validated object key. Build one with ParseObjectPath.
type ObjectPath string

// ParseObjectPath rejects keys the service would refuse or silently
// reinterpret: empty, leading '/' or '.', trailing '/', and backslashes.
func ParseObjectPath(s string) (ObjectPath, error) {
	if len(s) == 0 {
		return "", &ValidationError{Kind: "object path", Value: s, Reason: "empty"}
	}
	if s[0] == '/' || s[0] == '.' {
		return "", &ValidationError{Kind: "object path", Value: s, Reason: "must not start with '/' or '.'"}
	}
	if s[len(s)-1] == '/' {
		return "", &ValidationError{Kind: "object path", Value: s, Reason: "must not end with '/'"}
	}
	if strings.ContainsRune(s, '\\') {
		return "", &ValidationError{Kind: "object path", Value: s, Reason: "must not contain '\\'"}
	}
	return ObjectPath(s), nil
}

// ObjectDir is a validated directory-like prefix: an object path that MUST
// end with '/'.
type ObjectDir string

func ParseObjectDir(s string) (ObjectDir, error) {
	if len(s) == 0 {
		return "", &ValidationError{Kind: "object dir", Value: s, Reason: "empty"}
	}
	if s[len(s)-1] != '/' {
		return "", &ValidationError{Kind: "object dir", Value: s, Reason: "must end with '/'"}
	}
	if s[0] == '/' || s[0] == '.' {
		return "", &ValidationError{Kind: "object dir", Value: s, Reason: "must not start with '/' or '.'"}
	}
	if strings.ContainsRune(s, '\\') {
		return "", &ValidationError{Kind: "object dir", Value: s, Reason: "must not contain '\\'"}
	}
	return ObjectDir(s), nil
}

// StorageClass enumerates the service storage tiers.
type StorageClass int

const (
	Standard StorageClass = iota
	IA
	Archive
	ColdArchive
)

// ParseStorageClass is case-insensitive.
func ParseStorageClass(s string) (StorageClass, error) {
	switch {
	case strings.EqualFold(s, "Standard"):
		return Standard, nil
	case strings.EqualFold(s, "IA"):
		return IA, nil
	case strings.EqualFold(s, "Archive"):
		return Archive, nil
	case strings.EqualFold(s, "ColdArchive"):
		return ColdArchive, nil
	}
	return Standard, &ValidationError{Kind: "storage class", Value: s, Reason: "unknown storage class"}
}

func (sc StorageClass) String() string {
	switch sc {
	case IA:
		return "IA"
	case Archive:
		return "Archive"
	case ColdArchive:
		return "ColdArchive"
	}
	return "Standard"
}

// httpDate renders t the way the signature scheme expects the Date header:
// RFC 1123 with the GMT zone literal.
func httpDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
