package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/xref"
	"github.com/hupe1980/xref/blobstore"
	"github.com/hupe1980/xref/blobstore/minio"
	"github.com/hupe1980/xref/blobstore/s3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("XREF")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "xref",
		Short:         "Build and query identifier cross references",
		Version:       version,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.String("store", "local", "blob store: local, s3 or minio")
	pf.String("root", ".", "local directory, or key prefix for s3 and minio")
	pf.String("s3-bucket", "", "S3 bucket")
	pf.String("s3-region", "", "S3 region")
	pf.String("s3-endpoint", "", "S3 endpoint override")
	pf.Bool("s3-path-style", false, "use path-style S3 addressing")
	pf.String("minio-endpoint", "", "MinIO endpoint (host:port)")
	pf.String("minio-bucket", "", "MinIO bucket")
	pf.String("minio-access-key", "", "MinIO access key")
	pf.String("minio-secret-key", "", "MinIO secret key")
	pf.Bool("minio-secure", true, "use TLS for MinIO")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("log-format", "text", "log format: text or json")

	cmd.AddCommand(newBuildCmd(v), newLookupCmd(v))
	return cmd
}

// bind makes flags of cmd visible to v so that environment variables fill
// the flags that were not set on the command line.
func bind(v *viper.Viper, cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if e := v.BindPFlag(f.Name, f); e != nil && err == nil {
			err = e
		}
	})
	return err
}

func newLogger(v *viper.Viper) (*xref.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		return nil, fmt.Errorf("log-level: %w", err)
	}
	switch v.GetString("log-format") {
	case "json":
		return xref.NewJSONLogger(level), nil
	case "text", "":
		return xref.NewTextLogger(level), nil
	default:
		return nil, fmt.Errorf("log-format: unknown format %q", v.GetString("log-format"))
	}
}

func openStore(ctx context.Context, v *viper.Viper) (blobstore.BlobStore, error) {
	root := v.GetString("root")
	switch v.GetString("store") {
	case "local", "":
		return blobstore.NewLocalStore(root), nil
	case "s3":
		bucket := v.GetString("s3-bucket")
		if bucket == "" {
			return nil, fmt.Errorf("s3: --s3-bucket is required")
		}
		opts := []s3.Option{s3.WithPrefix(strings.TrimPrefix(root, "."))}
		if r := v.GetString("s3-region"); r != "" {
			opts = append(opts, s3.WithRegion(r))
		}
		if e := v.GetString("s3-endpoint"); e != "" {
			opts = append(opts, s3.WithEndpoint(e))
		}
		if v.GetBool("s3-path-style") {
			opts = append(opts, s3.WithPathStyle())
		}
		return s3.New(ctx, bucket, opts...)
	case "minio":
		endpoint, bucket := v.GetString("minio-endpoint"), v.GetString("minio-bucket")
		if endpoint == "" || bucket == "" {
			return nil, fmt.Errorf("minio: --minio-endpoint and --minio-bucket are required")
		}
		return minio.Connect(endpoint, bucket, minio.Credentials{
			AccessKey: v.GetString("minio-access-key"),
			SecretKey: v.GetString("minio-secret-key"),
			Secure:    v.GetBool("minio-secure"),
		}, strings.TrimPrefix(root, "."))
	default:
		return nil, fmt.Errorf("unknown store %q", v.GetString("store"))
	}
}
