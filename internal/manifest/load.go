package manifest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/caarlos0/env/v6"
	"github.com/vango-dev/wayfinder/internal/errors"
)

// maxManifestSize bounds how much of a manifest object is read.
const maxManifestSize = 4 << 20

// ObjectGetter is the part of the S3 client the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config configures the S3 client built by NewS3Client. Values come from
// the standard AWS environment variables.
type S3Config struct {
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	SessionToken    string `env:"AWS_SESSION_TOKEN"`

	// Endpoint overrides the S3 endpoint, for MinIO and similar servers.
	Endpoint string `env:"WAYFINDER_S3_ENDPOINT"`

	// PathStyle addresses buckets as endpoint/bucket instead of bucket.endpoint.
	PathStyle bool `env:"WAYFINDER_S3_PATH_STYLE"`
}

// S3ConfigFromEnv reads S3Config from the environment.
func S3ConfigFromEnv() (S3Config, error) {
	var cfg S3Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.New("M001").WithDetail("Invalid S3 environment: " + err.Error())
	}
	return cfg, nil
}

// NewS3Client builds an S3 client from cfg. Without an access key requests
// are sent anonymously, which works for public buckets.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.PathStyle,
		Credentials:  aws.AnonymousCredentials{},
	}
	if cfg.AccessKeyID != "" {
		static := aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			SessionToken:    cfg.SessionToken,
			Source:          "wayfinder-env",
		}
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return static, nil },
		))
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Loader reads manifests from local files and S3.
type Loader struct {
	// S3 serves s3:// sources. When nil, a client is built from the
	// environment on first use.
	S3 ObjectGetter

	Logger *slog.Logger
}

// Load reads and parses the manifest at source with a default Loader.
func Load(ctx context.Context, source string) (*Manifest, error) {
	var l Loader
	return l.Load(ctx, source)
}

// Load reads and parses the manifest at source: a local path or
// s3://bucket/key.
func (l *Loader) Load(ctx context.Context, source string) (*Manifest, error) {
	data, name, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}
	m, err := Parse(name, data)
	if err != nil {
		return nil, err
	}
	l.logger().Debug("manifest loaded", "source", source, "pages", len(m.Pages))
	return m, nil
}

func (l *Loader) read(ctx context.Context, source string) (data []byte, name string, err error) {
	if !strings.HasPrefix(source, "s3://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, "", errors.New("M001").
				WithDetailf("Cannot read %s", source).
				Wrap(err)
		}
		return data, source, nil
	}

	bucket, key, err := ParseS3URL(source)
	if err != nil {
		return nil, "", err
	}
	if _, err := FormatOf(key); err != nil {
		return nil, "", err
	}

	client := l.S3
	if client == nil {
		cfg, err := S3ConfigFromEnv()
		if err != nil {
			return nil, "", err
		}
		client = NewS3Client(cfg)
		l.S3 = client
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", errors.New("M001").
			WithDetailf("GetObject %s failed", source).
			Wrap(err)
	}
	defer out.Body.Close()

	data, err = io.ReadAll(io.LimitReader(out.Body, maxManifestSize+1))
	if err != nil {
		return nil, "", errors.New("M001").Wrap(err)
	}
	if len(data) > maxManifestSize {
		return nil, "", errors.New("M002").
			WithDetailf("%s is larger than %d bytes", source, maxManifestSize)
	}
	return data, key, nil
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(source string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(source, "s3://")
	if !ok {
		return "", "", errors.New("M003").WithDetailf("%q is not an s3:// URL", source)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", errors.New("M003").
			WithDetailf("%q must name a bucket and a key", source).
			WithSuggestion("Use s3://bucket/path/to/pages.yaml")
	}
	return bucket, key, nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
