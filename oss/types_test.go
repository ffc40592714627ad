// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndPointHost(t *testing.T) {
	assert.Equal(t, "oss-cn-shanghai.aliyuncs.com", CnShanghai.Host())
	assert.Equal(t, "oss-cn-shanghai-internal.aliyuncs.com", CnShanghai.Internal().Host())
	assert.Equal(t, "oss-cn-qingdao.aliyuncs.com", CnQingdao.Host())
}

func TestEndPointRoundTrip(t *testing.T) {
	for _, e := range []EndPoint{CnHangzhou, CnQingdao.Internal(), UsWest1, EuCentral1.Internal()} {
		got, err := ParseEndPointHost(e.Host())
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}
}

func TestParseEndPointRejects(t *testing.T) {
	for _, s := range []string{"", "-cn-hangzhou", "oss-cn-hangzhou", "CN-hangzhou", "cn hangzhou", "cn_hangzhou"} {
		_, err := ParseEndPoint(s)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "input %q", s)
	}
}

func TestParseEndPointAccepts(t *testing.T) {
	e, err := ParseEndPoint("cn-wulanchabu")
	require.NoError(t, err)
	assert.Equal(t, "oss-cn-wulanchabu.aliyuncs.com", e.Host())
	assert.False(t, e.IsInternal())
}

func TestParseBucketName(t *testing.T) {
	for _, s := range []string{"abc", "foo-bar-1", "0a0"} {
		_, err := ParseBucketName(s)
		assert.NoError(t, err, "input %q", s)
	}
	for _, s := range []string{"", "ab", "-abc", "abc-", "Abc", "a_b_c", "192.168.0.1", "a.b.c", "verylongname" + string(make([]byte, 64))} {
		_, err := ParseBucketName(s)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "input %q", s)
	}
}

func TestParseObjectPathRejects(t *testing.T) {
	for _, s := range []string{"/abc", "abc/", ".abc", `a\b`, ""} {
		_, err := ParseObjectPath(s)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "input %q", s)
	}
}

func TestParseObjectPathAccepts(t *testing.T) {
	for _, s := range []string{"abc", "a/b/c.txt", "img.png", "with space.bin"} {
		_, err := ParseObjectPath(s)
		assert.NoError(t, err, "input %q", s)
	}
}

func TestParseObjectDir(t *testing.T) {
	_, err := ParseObjectDir("photos/")
	require.NoError(t, err)
	for _, s := range []string{"photos", "/photos/", "", `a\b/`} {
		_, err := ParseObjectDir(s)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "input %q", s)
	}
}

func TestParseStorageClass(t *testing.T) {
	for in, want := range map[string]StorageClass{
		"Standard":    Standard,
		"standard":    Standard,
		"IA":          IA,
		"ia":          IA,
		"ARCHIVE":     Archive,
		"coldarchive": ColdArchive,
	} {
		got, err := ParseStorageClass(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got)
	}
	_, err := ParseStorageClass("Glacier")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestKeySecretRedacted(t *testing.T) {
	secret, err := ParseKeySecret("super-secret")
	require.NoError(t, err)
	assert.NotContains(t, secret.String(), "super-secret")
	assert.NotContains(t, secret.GoString(), "super-secret")
	assert.Equal(t, "super-secret", secret.reveal())
}

func TestParseKeyId(t *testing.T) {
	_, err := ParseKeyId("LTAI4Fxxxx")
	require.NoError(t, err)
	for _, s := range []string{"", "with space", "tab\there"} {
		_, err := ParseKeyId(s)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "input %q", s)
	}
}
