package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// Stager places a staging file and returns the URI the bulk-load
// statement reads it from.
type Stager interface {
	Stage(ctx context.Context, key string, body io.Reader, size int64) (string, error)
}

// S3Config holds object storage connection settings. Empty credentials
// fall back to the AWS environment, shared credentials file and instance role.
type S3Config struct {
	Endpoint        string `yaml:"s3-endpoint" json:"endpoint"`
	Region          string `yaml:"s3-region" json:"region"`
	AccessKeyID     string `yaml:"-" json:"access_key_id"`
	SecretAccessKey string `yaml:"-" json:"-"`
	SessionToken    string `yaml:"-" json:"-"`
	UseSSL          bool   `yaml:"s3-use-ssl" json:"use_ssl"`
}

// NewStager returns an S3Stager for s3:// locations and a FileStager
// otherwise.
func NewStager(location string, cfg S3Config, logger zerolog.Logger) (Stager, error) {
	if location == "" {
		return nil, errors.New("staging location is empty")
	}
	if strings.HasPrefix(location, "s3://") {
		return NewS3Stager(location, cfg, logger)
	}
	return &FileStager{Dir: location, logger: logger}, nil
}

// FileStager writes staging files below a local directory. It serves
// engines that read from the local filesystem.
type FileStager struct {
	Dir    string
	logger zerolog.Logger
}

// Stage implements Stager.
func (s *FileStager) Stage(_ context.Context, key string, body io.Reader, _ int64) (string, error) {
	dir, err := filepath.Abs(strings.TrimRight(s.Dir, "/"))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", s.Dir, err)
	}
	target := filepath.Join(dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", target, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", target, err)
	}

	s.logger.Debug().Str("path", target).Msg("Staging file written")
	return target, nil
}

// S3Stager uploads staging files to an S3 bucket.
type S3Stager struct {
	mc     *minio.Client
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Stager creates a stager for an s3://bucket/prefix location.
func NewS3Stager(location string, cfg S3Config, logger zerolog.Logger) (*S3Stager, error) {
	bucket, prefix, err := ParseS3URI(location)
	if err != nil {
		return nil, err
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}

	var creds *credentials.Credentials
	if cfg.AccessKeyID != "" {
		creds = credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{},
		})
	}

	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &S3Stager{mc: mc, bucket: bucket, prefix: prefix, logger: logger}, nil
}

// Stage implements Stager.
func (s *S3Stager) Stage(ctx context.Context, key string, body io.Reader, size int64) (string, error) {
	objectKey := path.Join(s.prefix, key)
	info, err := s.mc.PutObject(ctx, s.bucket, objectKey, body, size, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload s3://%s/%s: %w", s.bucket, objectKey, err)
	}

	s.logger.Debug().
		Str("bucket", s.bucket).
		Str("key", objectKey).
		Int64("size", info.Size).
		Msg("Staging file uploaded")
	return fmt.Sprintf("s3://%s/%s", s.bucket, objectKey), nil
}

// ParseS3URI splits s3://bucket/prefix into its bucket and prefix.
func ParseS3URI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 uri: %s", uri)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 uri has no bucket: %s", uri)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}
