// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentParts bounds the parallel part uploads of UploadFile.
const maxConcurrentParts = 4

type chunk struct {
	number int   // chunk number
	offset int64 // chunk offset
	size   int64 // chunk size
}

func calculateChunks(size, partSize int64) ([]chunk, error) {
	n := int(size / partSize)
	if size%partSize != 0 {
		n++
	}
	if n > maxPartsCount {
		return nil, ErrOverflowMaxPartsCount
	}
	chunks := make([]chunk, 0, n)
	var offset int64
	for i := 0; i < n; i++ {
		cs := min(partSize, size-offset)
		chunks = append(chunks, chunk{number: i + 1, offset: offset, size: cs})
		offset += cs
	}
	return chunks, nil
}

// Upload stores size bytes from r under object, choosing between a plain PUT
// and a sequential multipart session: anything that fits one part skips the
// multipart overhead entirely.
func (b *Bucket) Upload(ctx context.Context, object ObjectPath, r io.Reader, size int64, mime string) error {
	partSize := b.client.partSize
	if size <= partSize {
		return b.PutObject(ctx, object, r, size, mime)
	}
	chunks, err := calculateChunks(size, partSize)
	if err != nil {
		return err
	}
	uploadID, err := b.initiateMultipartUpload(ctx, object, mime)
	if err != nil {
		return err
	}
	parts := make([]UploadPart, len(chunks))
	for i, k := range chunks {
		part, err := b.uploadPart(ctx, object, uploadID, k.number, io.LimitReader(r, k.size), k.size)
		if err != nil {
			b.bestEffortAbort(object, uploadID)
			return fmt.Errorf("upload part-%d error: %w", k.number, err)
		}
		parts[i] = part
	}
	if err := b.completeMultipartUpload(ctx, object, uploadID, parts); err != nil {
		b.bestEffortAbort(object, uploadID)
		return fmt.Errorf("complete upload error: %w", err)
	}
	return nil
}

func (b *Bucket) uploadFilePart(ctx context.Context, object ObjectPath, filePath, uploadID string, k chunk) (UploadPart, error) {
	fd, err := os.Open(filePath)
	if err != nil {
		return UploadPart{PartNumber: k.number}, err
	}
	defer fd.Close() // nolint
	if _, err := fd.Seek(k.offset, io.SeekStart); err != nil {
		return UploadPart{PartNumber: k.number}, err
	}
	return b.uploadPart(ctx, object, uploadID, k.number, io.LimitReader(fd, k.size), k.size)
}

// UploadFile stores a local file under object. Large files upload their
// parts in parallel, bounded by maxConcurrentParts; the complete request
// still carries the parts in ascending order, and any failure aborts the
// session covering every part already shipped.
func (b *Bucket) UploadFile(ctx context.Context, object ObjectPath, filePath, mime string) error {
	si, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("stat file error: %w", err)
	}
	size := si.Size()
	partSize := b.client.partSize
	if size <= partSize {
		fd, err := os.Open(filePath)
		if err != nil {
			return err
		}
		defer fd.Close() // nolint
		return b.PutObject(ctx, object, fd, size, mime)
	}
	chunks, err := calculateChunks(size, partSize)
	if err != nil {
		return err
	}
	uploadID, err := b.initiateMultipartUpload(ctx, object, mime)
	if err != nil {
		return err
	}
	parts := make([]UploadPart, len(chunks))
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentParts)
	for _, k := range chunks {
		k := k
		g.Go(func() error {
			part, err := b.uploadFilePart(groupCtx, object, filePath, uploadID, k)
			if err != nil {
				return fmt.Errorf("upload part-%d error: %w", k.number, err)
			}
			parts[k.number-1] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		b.bestEffortAbort(object, uploadID)
		return err
	}
	if err := b.completeMultipartUpload(ctx, object, uploadID, parts); err != nil {
		b.bestEffortAbort(object, uploadID)
		return fmt.Errorf("complete upload error: %w", err)
	}
	return nil
}
