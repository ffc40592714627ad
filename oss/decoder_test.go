// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listObjectsFixture = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://doc.oss-cn-hangzhou.aliyuncs.com">
  <Name>examplebucket</Name>
  <Prefix>photos/</Prefix>
  <MaxKeys>100</MaxKeys>
  <Delimiter>/</Delimiter>
  <IsTruncated>true</IsTruncated>
  <KeyCount>2</KeyCount>
  <NextContinuationToken>tok-next</NextContinuationToken>
  <Contents>
    <Key>photos/cat.jpg</Key>
    <LastModified>2020-05-18T05:45:43.000Z</LastModified>
    <ETag>"5B3C1A2E053D763E1B002CC607C5A0FE"</ETag>
    <Type>Normal</Type>
    <Size>344606</Size>
    <StorageClass>Standard</StorageClass>
    <Owner><ID>0022012****</ID><DisplayName>user-example</DisplayName></Owner>
  </Contents>
  <Contents>
    <Key>photos/dog.jpg</Key>
    <LastModified>2020-06-22T11:42:32.000Z</LastModified>
    <ETag>"9B3C1A2E053D763E1B002CC607C5A0FE"</ETag>
    <Type>Normal</Type>
    <Size>356</Size>
    <StorageClass>IA</StorageClass>
  </Contents>
  <CommonPrefixes><Prefix>photos/2020/</Prefix></CommonPrefixes>
  <CommonPrefixes><Prefix>photos/2021/</Prefix></CommonPrefixes>
</ListBucketResult>`

func TestDecodeListObjects(t *testing.T) {
	page := &ObjectsPage{}
	require.NoError(t, DecodeListObjects(strings.NewReader(listObjectsFixture), page))

	assert.Equal(t, "examplebucket", page.Name)
	assert.Equal(t, "photos/", page.Prefix)
	assert.Equal(t, 100, page.MaxKeys)
	assert.Equal(t, 2, page.KeyCount)
	assert.Equal(t, "tok-next", page.NextContinuationToken)
	assert.Equal(t, []string{"photos/2020/", "photos/2021/"}, page.CommonPrefixes)

	require.Len(t, page.Objects, 2)
	first := page.Objects[0]
	assert.Equal(t, "photos/cat.jpg", first.Path)
	assert.Equal(t, "5B3C1A2E053D763E1B002CC607C5A0FE", first.ETag, "quotes stripped")
	assert.Equal(t, "Normal", first.Type)
	assert.Equal(t, int64(344606), first.Size)
	assert.Equal(t, Standard, first.StorageClass)
	assert.Equal(t, time.Date(2020, time.May, 18, 5, 45, 43, 0, time.UTC), first.LastModified)
	assert.Equal(t, IA, page.Objects[1].StorageClass)
}

func TestDecodeListObjectsUnknownElements(t *testing.T) {
	const doc = `<ListBucketResult>
	  <Name>b</Name>
	  <FutureThing><Deep><Deeper>x</Deeper></Deep></FutureThing>
	  <Contents><Key>k</Key><Mystery>y</Mystery><Size>1</Size></Contents>
	</ListBucketResult>`
	page := &ObjectsPage{}
	require.NoError(t, DecodeListObjects(strings.NewReader(doc), page))
	assert.Equal(t, "b", page.Name)
	require.Len(t, page.Objects, 1)
	assert.Equal(t, int64(1), page.Objects[0].Size)
}

func TestDecodeListObjectsSinkError(t *testing.T) {
	const doc = `<ListBucketResult><Contents><Key>k</Key><Size>not-a-number</Size></Contents></ListBucketResult>`
	err := DecodeListObjects(strings.NewReader(doc), &ObjectsPage{})
	var serr *SinkError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Size", serr.Element)
	assert.Equal(t, "not-a-number", serr.Text)
	var derr *DecodeError
	assert.False(t, errors.As(err, &derr), "sink errors are not decode errors")
}

func TestDecodeListObjectsParseError(t *testing.T) {
	const doc = `<ListBucketResult><Contents><Key>k</Key>` // truncated
	err := DecodeListObjects(strings.NewReader(doc), &ObjectsPage{})
	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
	var serr *SinkError
	assert.False(t, errors.As(err, &serr))
}

const listBucketsFixture = `<?xml version="1.0" encoding="UTF-8"?>
<ListAllMyBucketsResult>
  <Owner>
    <ID>51264</ID>
    <DisplayName>51264</DisplayName>
  </Owner>
  <IsTruncated>true</IsTruncated>
  <NextMarker>bucket-b</NextMarker>
  <Buckets>
    <Bucket>
      <CreationDate>2014-02-17T18:12:43.000Z</CreationDate>
      <ExtranetEndpoint>oss-cn-shanghai.aliyuncs.com</ExtranetEndpoint>
      <IntranetEndpoint>oss-cn-shanghai-internal.aliyuncs.com</IntranetEndpoint>
      <Location>oss-cn-shanghai</Location>
      <Name>app-base-oss</Name>
      <StorageClass>Standard</StorageClass>
    </Bucket>
    <Bucket>
      <CreationDate>2014-02-25T11:21:04.000Z</CreationDate>
      <ExtranetEndpoint>oss-cn-hangzhou.aliyuncs.com</ExtranetEndpoint>
      <IntranetEndpoint>oss-cn-hangzhou-internal.aliyuncs.com</IntranetEndpoint>
      <Location>oss-cn-hangzhou</Location>
      <Name>mybucket</Name>
      <StorageClass>IA</StorageClass>
    </Bucket>
  </Buckets>
</ListAllMyBucketsResult>`

func TestDecodeListBuckets(t *testing.T) {
	page := &BucketsPage{}
	require.NoError(t, DecodeListBuckets(strings.NewReader(listBucketsFixture), page))

	assert.Equal(t, "51264", page.OwnerID)
	assert.Equal(t, "51264", page.OwnerDisplayName)
	assert.True(t, page.IsTruncated)
	assert.Equal(t, "bucket-b", page.NextMarker)

	require.Len(t, page.Buckets, 2)
	first := page.Buckets[0]
	assert.Equal(t, "app-base-oss", first.Name)
	assert.Equal(t, "oss-cn-shanghai", first.Location)
	assert.Equal(t, "oss-cn-shanghai.aliyuncs.com", first.ExtranetEndpoint)
	assert.Equal(t, "oss-cn-shanghai-internal.aliyuncs.com", first.IntranetEndpoint)
	assert.Equal(t, Standard, first.StorageClass)
	assert.Equal(t, time.Date(2014, time.February, 17, 18, 12, 43, 0, time.UTC), first.CreationDate)
	assert.Equal(t, IA, page.Buckets[1].StorageClass)
}

func TestDecodeListBucketsSinkError(t *testing.T) {
	const doc = `<ListAllMyBucketsResult><Buckets><Bucket><Name>b</Name><StorageClass>Weird</StorageClass></Bucket></Buckets></ListAllMyBucketsResult>`
	err := DecodeListBuckets(strings.NewReader(doc), &BucketsPage{})
	var serr *SinkError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "StorageClass", serr.Element)
	assert.Equal(t, "Weird", serr.Text)
}
