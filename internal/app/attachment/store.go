package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"ichats/internal/pkg/logx"
)

// PublicPathPrefix is the fixed path segment under which every stored
// attachment is addressable: <public base>/uploads/<key>.
const PublicPathPrefix = "/uploads/"

// StoreConfig holds the configuration required to connect to the blob storage service.
type StoreConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// PublicBaseURL is the origin serving the bucket's uploads path.
	PublicBaseURL string
}

// BlobStore defines the public interface for attachment blob storage.
type BlobStore interface {
	// Save writes the blob under the given key and returns its durable public URL.
	Save(ctx context.Context, key string, mimeType string, body io.Reader) (string, error)

	// Delete removes the blob addressed by the given public URL. A blob that is
	// already gone is not an error.
	Delete(ctx context.Context, url string) error
}

// NewBlobStore is the factory function for BlobStore. Currently only
// S3-compatible implementations are supported.
func NewBlobStore(cfg StoreConfig) (BlobStore, error) {
	return newS3Store(cfg)
}

// s3Store implements BlobStore against S3-compatible storage.
type s3Store struct {
	cfg      StoreConfig
	client   *s3.Client
	uploader *manager.Uploader
}

// newS3Store initializes the S3 client using a custom configuration that supports S3-compatible endpoints.
func newS3Store(cfg StoreConfig) (*s3Store, error) {
	sdkCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		logx.Error(err, "Failed to load AWS SDK config")
		return nil, errors.New("failed to initialize S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &s3Store{
		cfg:      cfg,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

// Save uploads the blob and returns the public URL under the fixed uploads prefix.
func (s *s3Store) Save(ctx context.Context, key string, mimeType string, body io.Reader) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &s.cfg.S3BucketName,
		Key:         &key,
		ContentType: &mimeType,
		Body:        body,
	})

	if err != nil {
		logx.Error(err, "S3 upload failed", "key", key)
		return "", errors.New("failed to store attachment")
	}

	return s.cfg.PublicBaseURL + PublicPathPrefix + key, nil
}

// Delete removes the blob addressed by the given public URL.
func (s *s3Store) Delete(ctx context.Context, url string) error {
	key, err := keyFromURL(url)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.cfg.S3BucketName,
		Key:    &key,
	})

	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil
		}

		logx.Error(err, "S3 delete failed", "key", key)
		return errors.New("failed to delete attachment")
	}

	return nil
}

// keyFromURL recovers the storage key from a public attachment URL.
func keyFromURL(url string) (string, error) {
	idx := strings.LastIndex(url, PublicPathPrefix)
	if idx < 0 {
		return "", fmt.Errorf("url %q is not under the uploads prefix", url)
	}

	key := url[idx+len(PublicPathPrefix):]
	if key == "" {
		return "", fmt.Errorf("url %q carries no storage key", url)
	}

	return key, nil
}
