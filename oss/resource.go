// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"net/url"
	"sort"
	"strings"
)

// subResources lists the query keys that participate in the canonicalized
// resource. The service signs only these; listing modifiers such as
// list-type, max-keys, prefix, delimiter, encoding-type, fetch-owner and
// start-after stay out. Keep the table sorted: new sub-resources (?lifecycle,
// ?referer, ...) append here as operations grow.
var subResources = []string{
	"acl",
	"bucketInfo",
	"continuation-token",
	"delete",
	"objectMeta",
	"partNumber",
	"uploadId",
	"uploads",
}

func isSubResource(key string) bool {
	for _, k := range subResources {
		if k == key {
			return true
		}
	}
	return false
}

// CanonicalizedResource derives the resource string the server binds the
// signature to. It is total: any bucket/object/query combination yields a
// well-formed string.
//
//   - no bucket            -> "/"
//   - bucket only          -> "/<bucket>/" [?sub-resources]
//   - bucket + object key  -> "/<bucket>/<object>" [?sub-resources]
//
// Whitelisted query keys are sorted ascending and joined with '&' after a
// leading '?'. Value-less keys (uploads, bucketInfo, acl) render bare.
func CanonicalizedResource(bucket BucketName, object ObjectPath, query url.Values) string {
	var b strings.Builder
	b.WriteByte('/')
	if len(bucket) == 0 {
		return b.String()
	}
	b.WriteString(string(bucket))
	b.WriteByte('/')
	b.WriteString(string(object))

	keys := make([]string, 0, len(query))
	for k := range query {
		if isSubResource(k) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return b.String()
	}
	sort.Strings(keys)
	b.WriteByte('?')
	for i, k := range keys {
		if i != 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		if v := query.Get(k); len(v) != 0 {
			b.WriteByte('=')
			b.WriteString(v)
		}
	}
	return b.String()
}
