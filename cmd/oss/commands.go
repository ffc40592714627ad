// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/cloudbeam/oss-go/oss"
)

func newClient(g *Globals) (*oss.Client, error) {
	return oss.NewClient(&oss.NewClientOptions{
		KeyId:     g.KeyID,
		KeySecret: g.KeySecret,
		EndPoint:  g.Endpoint,
		Internal:  g.Internal,
		Bucket:    g.Bucket,
	})
}

func openBucket(g *Globals, name string) (*oss.Bucket, error) {
	c, err := newClient(g)
	if err != nil {
		return nil, err
	}
	if len(name) != 0 {
		return c.Bucket(name)
	}
	return c.DefaultBucket()
}

// progressBar wraps r with a terminal transfer bar.
func progressBar(p *mpb.Progress, name string, total int64, r io.Reader) io.ReadCloser {
	bar := p.New(total,
		mpb.BarStyle(),
		mpb.PrependDecorators(decor.Name(name)),
		mpb.AppendDecorators(decor.CountersKibiByte("% .2f / % .2f")),
	)
	return bar.ProxyReader(r)
}

type Ls struct {
	Prefix    string `name:"prefix" help:"Key prefix filter."`
	Delimiter string `name:"delimiter" help:"Group keys by delimiter."`
	Limit     int    `name:"limit" default:"0" help:"Stop after N items (0: all)."`
}

func (c *Ls) Run(g *Globals) error {
	b, err := openBucket(g, "")
	if err != nil {
		return err
	}
	stream := b.Objects(&oss.ListObjectsOptions{Prefix: c.Prefix, Delimiter: c.Delimiter})
	shown := 0
	for {
		o, err := stream.Next(context.Background())
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s\t%10s\t%s\t%s\n",
			o.LastModified.Format(time.DateTime), humanize.IBytes(uint64(o.Size)), o.StorageClass, o.Path)
		if shown++; c.Limit > 0 && shown >= c.Limit {
			return nil
		}
	}
}

type Lsb struct{}

func (c *Lsb) Run(g *Globals) error {
	client, err := newClient(g)
	if err != nil {
		return err
	}
	page, err := client.ListBuckets(context.Background())
	if err != nil {
		return err
	}
	for _, b := range page.Buckets {
		fmt.Fprintf(os.Stdout, "%s\t%s\t%s\t%s\n",
			b.CreationDate.Format(time.DateTime), b.Location, b.StorageClass, b.Name)
	}
	return nil
}

type Stat struct {
	Path string `arg:"" name:"path" help:"Object path."`
}

func (c *Stat) Run(g *Globals) error {
	b, err := openBucket(g, "")
	if err != nil {
		return err
	}
	object, err := oss.ParseObjectPath(c.Path)
	if err != nil {
		return err
	}
	meta, err := b.HeadObject(context.Background(), object)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Path:          %s\n", object)
	fmt.Fprintf(os.Stdout, "Size:          %s (%d bytes)\n", humanize.IBytes(uint64(meta.Size)), meta.Size)
	fmt.Fprintf(os.Stdout, "ETag:          %s\n", meta.ETag)
	fmt.Fprintf(os.Stdout, "Last-Modified: %s\n", meta.LastModified.Format(time.RFC1123))
	if len(meta.ContentType) != 0 {
		fmt.Fprintf(os.Stdout, "Content-Type:  %s\n", meta.ContentType)
	}
	if len(meta.Crc64) != 0 {
		fmt.Fprintf(os.Stdout, "CRC64:         %s\n", meta.Crc64)
	}
	return nil
}

type Get struct {
	Path string `arg:"" name:"path" help:"Object path."`
	Out  string `arg:"" name:"out" optional:"" help:"Destination file (default: basename of path)."`
}

func (c *Get) Run(g *Globals) error {
	b, err := openBucket(g, "")
	if err != nil {
		return err
	}
	object, err := oss.ParseObjectPath(c.Path)
	if err != nil {
		return err
	}
	r, err := b.GetObject(context.Background(), object, 0, 0)
	if err != nil {
		return err
	}
	defer r.Close() // nolint
	out := c.Out
	if len(out) == 0 {
		out = baseName(c.Path)
	}
	fd, err := os.Create(out)
	if err != nil {
		return err
	}
	defer fd.Close() // nolint
	p := mpb.New(mpb.WithOutput(os.Stderr))
	body := progressBar(p, out, r.Size(), r)
	defer body.Close() // nolint
	if _, err := io.Copy(fd, body); err != nil {
		return err
	}
	p.Wait()
	return nil
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

type Put struct {
	File     string `arg:"" name:"file" help:"Local file to upload."`
	Path     string `arg:"" name:"path" help:"Destination object path."`
	Mime     string `name:"mime" help:"Content type."`
	PartSize string `name:"part-size" default:"5MiB" help:"Multipart part size."`
}

func (c *Put) Run(g *Globals) error {
	partSize, err := humanize.ParseBytes(c.PartSize)
	if err != nil {
		return fmt.Errorf("bad part size %q: %w", c.PartSize, err)
	}
	client, err := oss.NewClient(&oss.NewClientOptions{
		KeyId:     g.KeyID,
		KeySecret: g.KeySecret,
		EndPoint:  g.Endpoint,
		Internal:  g.Internal,
		Bucket:    g.Bucket,
		PartSize:  int64(partSize),
	})
	if err != nil {
		return err
	}
	b, err := client.DefaultBucket()
	if err != nil {
		return err
	}
	object, err := oss.ParseObjectPath(c.Path)
	if err != nil {
		return err
	}
	fd, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer fd.Close() // nolint
	si, err := fd.Stat()
	if err != nil {
		return err
	}
	p := mpb.New(mpb.WithOutput(os.Stderr))
	body := progressBar(p, c.File, si.Size(), fd)
	defer body.Close() // nolint
	if err := b.Upload(context.Background(), object, body, si.Size(), c.Mime); err != nil {
		return err
	}
	p.Wait()
	return nil
}

type Rm struct {
	Paths []string `arg:"" name:"paths" help:"Object paths to delete."`
}

func (c *Rm) Run(g *Globals) error {
	b, err := openBucket(g, "")
	if err != nil {
		return err
	}
	objects := make([]oss.ObjectPath, 0, len(c.Paths))
	for _, p := range c.Paths {
		object, err := oss.ParseObjectPath(p)
		if err != nil {
			return err
		}
		objects = append(objects, object)
	}
	if len(objects) == 1 {
		return b.DeleteObject(context.Background(), objects[0])
	}
	return b.DeleteMultipleObjects(context.Background(), objects)
}

type Cp struct {
	SrcBucket string `name:"src-bucket" help:"Source bucket (default: target bucket)."`
	Src       string `arg:"" name:"src" help:"Source object path."`
	Dst       string `arg:"" name:"dst" help:"Destination object path."`
}

func (c *Cp) Run(g *Globals) error {
	b, err := openBucket(g, "")
	if err != nil {
		return err
	}
	src, err := oss.ParseObjectPath(c.Src)
	if err != nil {
		return err
	}
	dst, err := oss.ParseObjectPath(c.Dst)
	if err != nil {
		return err
	}
	srcBucket := b.Name()
	if len(c.SrcBucket) != 0 {
		if srcBucket, err = oss.ParseBucketName(c.SrcBucket); err != nil {
			return err
		}
	}
	return b.CopyObject(context.Background(), dst, srcBucket, src)
}

type Presign struct {
	Path    string        `arg:"" name:"path" help:"Object path."`
	Expires time.Duration `name:"expires" default:"1h" help:"Validity window."`
}

func (c *Presign) Run(g *Globals) error {
	b, err := openBucket(g, "")
	if err != nil {
		return err
	}
	object, err := oss.ParseObjectPath(c.Path)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, b.PresignGet(object, time.Now().Add(c.Expires).Unix()))
	return nil
}
