package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	cfg "github.com/dailyspark/dailyspark/configs"
	"github.com/dailyspark/dailyspark/internal/models"
)

// MediaStore is the media lifecycle surface the rest of the system
// depends on: store a blob, resolve its public URL, delete it once the
// owning post has resolved.
type MediaStore interface {
	Upload(ctx context.Context, file []byte) (*models.MediaRef, error)
	DeleteByURL(ctx context.Context, fileURL string) error
	Exists(ctx context.Context, fileURL string) (bool, error)
}

// R2Service stores media blobs in Cloudflare R2.
type R2Service struct {
	config cfg.Config
}

func NewR2Service(cfg cfg.Config) *R2Service {
	return &R2Service{config: cfg}
}

func (r *R2Service) R2Client() (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r.config.R2.AccessKey, r.config.R2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.config.R2.AccountID))
	}), nil
}

var allowedMediaTypes = map[string]string{
	"jpg":  models.MediaKindImage,
	"jpeg": models.MediaKindImage,
	"png":  models.MediaKindImage,
	"mp4":  models.MediaKindVideo,
	"mov":  models.MediaKindVideo,
}

// Upload sniffs the file type, stores the blob under a fresh key and
// returns a MediaRef carrying its public URL and kind.
func (r *R2Service) Upload(ctx context.Context, file []byte) (*models.MediaRef, error) {
	fileType, err := filetype.Match(file)
	if err != nil {
		return nil, fmt.Errorf("sniffing file type: %w", err)
	}
	if fileType == types.Unknown {
		return nil, errors.New("unsupported file type")
	}

	kind, ok := allowedMediaTypes[fileType.Extension]
	if !ok {
		return nil, fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	client, err := r.R2Client()
	if err != nil {
		return nil, err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(fileType.MIME.Value),
	}

	if _, err := client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &models.MediaRef{
		URL:  fmt.Sprintf("%s/%s", strings.TrimSuffix(r.config.R2.PublicURL, "/"), key),
		Kind: kind,
	}, nil
}

// DeleteByURL removes the blob backing a public URL.
func (r *R2Service) DeleteByURL(ctx context.Context, fileURL string) error {
	key, err := r.keyFromURL(fileURL)
	if err != nil {
		return err
	}

	client, err := r.R2Client()
	if err != nil {
		return err
	}

	_, err = client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.config.R2.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Exists reports whether the blob behind a public URL is still stored.
// The repost flow uses it to fall back to text-only once the original
// media has been cleaned up.
func (r *R2Service) Exists(ctx context.Context, fileURL string) (bool, error) {
	key, err := r.keyFromURL(fileURL)
	if err != nil {
		return false, err
	}

	client, err := r.R2Client()
	if err != nil {
		return false, err
	}

	_, err = client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.config.R2.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *R2Service) keyFromURL(fileURL string) (string, error) {
	base := strings.TrimSuffix(r.config.R2.PublicURL, "/") + "/"
	if base == "/" || !strings.HasPrefix(fileURL, base) {
		return "", errors.New("media URL is not managed by this bucket")
	}
	key := strings.TrimPrefix(fileURL, base)
	if key == "" {
		return "", errors.New("media URL has no object key")
	}
	return key, nil
}
