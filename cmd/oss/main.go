// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
)

type Globals struct {
	KeyID     string `name:"key-id" env:"ALIYUN_KEY_ID" help:"Access key id."`
	KeySecret string `name:"key-secret" env:"ALIYUN_KEY_SECRET" help:"Access key secret."`
	Endpoint  string `name:"endpoint" env:"ALIYUN_ENDPOINT" help:"Region id or endpoint host."`
	Internal  bool   `name:"internal" env:"ALIYUN_OSS_INTERNAL" help:"Use the intranet endpoint."`
	Bucket    string `name:"bucket" env:"ALIYUN_BUCKET" help:"Default bucket."`
	Verbose   bool   `name:"verbose" short:"v" help:"Enable verbose logging."`
}

type App struct {
	Globals
	Ls      Ls      `cmd:"ls" help:"List objects in a bucket"`
	Lsb     Lsb     `cmd:"lsb" help:"List buckets"`
	Stat    Stat    `cmd:"stat" help:"Show object metadata"`
	Get     Get     `cmd:"get" help:"Download an object"`
	Put     Put     `cmd:"put" help:"Upload a file"`
	Rm      Rm      `cmd:"rm" help:"Delete objects"`
	Cp      Cp      `cmd:"cp" help:"Server-side copy"`
	Presign Presign `cmd:"presign" help:"Generate a presigned GET URL"`
}

func main() {
	var app App
	ctx := kong.Parse(&app,
		kong.Name("oss"),
		kong.Description("oss - command line client for S3-compatible object storage"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.WarnLevel)
	if app.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if err := ctx.Run(&app.Globals); err != nil {
		logrus.Errorf("%v", err)
		os.Exit(1)
	}
}
