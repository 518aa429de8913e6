package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cryostore/internal/freezer"
	"cryostore/pkg/domain"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/ulikunitz/xz"
	"go.uber.org/zap"
)

const (
	datasetPrefix = "databases/"
	rawPrefix     = "raw/"
	xzSuffix      = ".xz"
)

// S3Config holds explicit construction parameters for the S3 backend
// (AWS S3 or any compatible endpoint such as MinIO).
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional; enables a custom endpoint
	AccessKeyID     string // optional (falls back to default credentials chain)
	SecretAccessKey string // optional
	SessionToken    string // optional
	PathStyle       bool
}

// S3Store implements Store against a single S3 bucket. Dataset pushes
// stage a tar archive of the namespace directory in the manager's
// shared scratch area before upload.
type S3Store struct {
	client *s3.Client
	bucket string
	mgr    *freezer.Manager
	logger *zap.Logger
}

// S3Option configures optional S3Store collaborators.
type S3Option func(*S3Store)

// WithS3Logger installs a structured logger. Default is a no-op logger.
func WithS3Logger(l *zap.Logger) S3Option {
	return func(s *S3Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewS3 creates an S3-backed sync store over the given namespace manager.
func NewS3(ctx context.Context, cfg S3Config, mgr *freezer.Manager, opts ...S3Option) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	s := &S3Store{client: client, bucket: cfg.Bucket, mgr: mgr, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Push uploads a packaged dataset, or with opts.Raw a single local file
// (optionally xz-compressed), keyed by {dtype}.{name}.
func (s *S3Store) Push(ctx context.Context, dtype, name string, opts PushOptions) error {
	if opts.Raw {
		return s.pushRaw(ctx, dtype, name, opts.Compress)
	}
	key := fmt.Sprintf("%s.%s", dtype, name)
	dataPath := s.mgr.DatasetPath(dtype, name)
	if _, err := os.Stat(dataPath); err != nil {
		return fmt.Errorf("no dataset named %s: %w", key, domain.ErrNotFound)
	}

	tmp, err := s.mgr.TempFile(key + "-*.tar")
	if err != nil {
		return fmt.Errorf("stage archive: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if err := tarDirectory(tmp, dataPath, key); err != nil {
		return err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return err
	}
	s.logger.Info("pushing dataset", zap.String("key", key), zap.String("bucket", s.bucket))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    aws.String(datasetPrefix + key),
		Body:   tmp,
	})
	if err != nil {
		return fmt.Errorf("upload dataset %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) pushRaw(ctx context.Context, dtype, path string, compress bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open raw file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	key := rawPrefix + fmt.Sprintf("%s.%s", dtype, filepath.Base(path))
	var body io.ReadSeeker = f
	if compress {
		tmp, err := s.mgr.TempFile(uuid.NewString() + xzSuffix)
		if err != nil {
			return fmt.Errorf("stage compressed file: %w", err)
		}
		defer func() {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}()
		xw, err := xz.NewWriter(tmp)
		if err != nil {
			return fmt.Errorf("compress %s: %w", path, err)
		}
		if _, err := io.Copy(xw, f); err != nil {
			return fmt.Errorf("compress %s: %w", path, err)
		}
		if err := xw.Close(); err != nil {
			return fmt.Errorf("compress %s: %w", path, err)
		}
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return err
		}
		key += xzSuffix
		body = tmp
	}
	s.logger.Info("pushing raw file", zap.String("key", key), zap.Bool("compressed", compress))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("upload raw file %s: %w", path, err)
	}
	return nil
}

// Pull downloads and restores by key. Datasets are unpacked back into
// the manager's databases tree; raw files are written to opts.Output
// (default: the file's base name), transparently decompressing objects
// stored with xz.
func (s *S3Store) Pull(ctx context.Context, dtype, name string, opts PullOptions) error {
	if opts.Raw {
		return s.pullRaw(ctx, dtype, name, opts.Output)
	}
	key := fmt.Sprintf("%s.%s", dtype, name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    aws.String(datasetPrefix + key),
	})
	if err != nil {
		return fmt.Errorf("download dataset %s: %w", key, wrapMissing(err))
	}
	defer func() { _ = out.Body.Close() }()
	destDir := filepath.Join(s.mgr.Base(), "databases")
	if err := untar(out.Body, destDir); err != nil {
		return fmt.Errorf("restore dataset %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) pullRaw(ctx context.Context, dtype, name, output string) error {
	base := filepath.Base(name)
	key := rawPrefix + fmt.Sprintf("%s.%s", dtype, base)
	if output == "" {
		output = name
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	compressed := false
	if err != nil && isMissing(err) {
		out, err = s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: aws.String(key + xzSuffix)})
		compressed = err == nil
	}
	if err != nil {
		return fmt.Errorf("download raw file %s: %w", key, wrapMissing(err))
	}
	defer func() { _ = out.Body.Close() }()

	var src io.Reader = out.Body
	if compressed {
		xr, err := xz.NewReader(out.Body)
		if err != nil {
			return fmt.Errorf("decompress %s: %w", key, err)
		}
		src = xr
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	_, copyErr := io.Copy(f, src)
	closeErr := f.Close()
	if copyErr != nil {
		return fmt.Errorf("write %s: %w", output, copyErr)
	}
	return closeErr
}

// List enumerates stored names grouped by dtype, filtered by the options.
func (s *S3Store) List(ctx context.Context, opts ListOptions) (map[string][]string, error) {
	prefix := datasetPrefix
	if opts.Raw {
		prefix = rawPrefix
	}
	items := make(map[string][]string)
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.bucket,
			Prefix:            &prefix,
			ContinuationToken: token,
		})
		if err != nil {
			return nil, err
		}
		for _, obj := range out.Contents {
			key := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			dtype, name, ok := strings.Cut(key, ".")
			if !ok {
				continue
			}
			if opts.Dtype != "" && dtype != opts.Dtype {
				continue
			}
			if opts.Name != "" && !strings.HasPrefix(name, opts.Name) {
				continue
			}
			items[dtype] = append(items[dtype], name)
		}
		if out.IsTruncated != nil && *out.IsTruncated && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	for dtype := range items {
		sort.Strings(items[dtype])
	}
	return items, nil
}

// Remove deletes the remote object for {dtype}.{name}.
func (s *S3Store) Remove(ctx context.Context, dtype, name string, raw bool) error {
	prefix := datasetPrefix
	if raw {
		prefix = rawPrefix
	}
	key := prefix + fmt.Sprintf("%s.%s", dtype, name)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func isMissing(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

func wrapMissing(err error) error {
	if isMissing(err) {
		return fmt.Errorf("%v: %w", err, domain.ErrNotFound)
	}
	return err
}
