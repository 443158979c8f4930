// Package objstore reads and writes dataset files in S3-compatible buckets.
package objstore

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Options configures the S3 connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// Client wraps a minio client.
type Client struct {
	mc     *minio.Client
	region string
}

// New connects to an S3-compatible endpoint.
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" || opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, eris.New("objstore: endpoint, access key and secret key are required")
	}
	mc, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, eris.Wrap(err, "objstore: create client")
	}
	zap.L().Debug("objstore: client ready", zap.String("endpoint", opts.Endpoint))
	return &Client{mc: mc, region: opts.Region}, nil
}

// ParseURI splits s3://bucket/key/path into bucket and key.
func ParseURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", eris.Wrap(err, "objstore: parse uri")
	}
	if u.Scheme != "s3" {
		return "", "", eris.Errorf("objstore: expected s3 scheme, got %q", u.Scheme)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", eris.Errorf("objstore: uri %q needs a bucket and a key", uri)
	}
	return u.Host, key, nil
}

// Download implements fetcher.Fetcher for s3:// URIs.
func (c *Client) Download(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	obj, err := c.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, eris.Wrapf(err, "objstore: get %s", uri)
	}
	// GetObject is lazy; Stat surfaces missing keys before the caller reads.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, eris.Wrapf(err, "objstore: stat %s", uri)
	}
	return obj, nil
}

// Upload writes size bytes from r to the s3:// URI, creating the bucket if
// needed.
func (c *Client) Upload(ctx context.Context, uri string, r io.Reader, size int64, contentType string) error {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return err
	}
	if err := c.ensureBucket(ctx, bucket); err != nil {
		return err
	}
	info, err := c.mc.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return eris.Wrapf(err, "objstore: put %s", uri)
	}
	zap.L().Info("objstore: uploaded",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int64("bytes", info.Size),
	)
	return nil
}

func (c *Client) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := c.mc.BucketExists(ctx, bucket)
	if err != nil {
		return eris.Wrapf(err, "objstore: check bucket %s", bucket)
	}
	if exists {
		return nil
	}
	if err := c.mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
		return eris.Wrapf(err, "objstore: make bucket %s", bucket)
	}
	return nil
}
