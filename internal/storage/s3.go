// Package storage загружает вложения заявок в S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/senyabanana/bid-tracker/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Config - параметры бакета.
type Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// ObjectPutter - часть клиента S3, которая нужна загрузчику.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader кладёт файлы заявок в бакет и строит публичные ссылки.
type Uploader struct {
	Client        ObjectPutter
	Bucket        string
	Region        string
	PublicBaseURL string
}

// NewUploader создаёт загрузчик. Без ключей используется стандартная цепочка учётных данных AWS.
func NewUploader(ctx context.Context, cfg Config) (*Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	sdkConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Uploader{
		Client:        s3.NewFromConfig(sdkConfig),
		Bucket:        cfg.Bucket,
		Region:        cfg.Region,
		PublicBaseURL: cfg.PublicBaseURL,
	}, nil
}

// ObjectKey строит ключ объекта: owner/bid/uuid-имя.
func ObjectKey(ownerID, bidID, filename string) string {
	return fmt.Sprintf("%s/%s/%s-%s", ownerID, bidID, uuid.New().String(), baseName(filename))
}

func baseName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return "file"
	}
	return name
}

// Upload загружает файл и возвращает вложение со ссылкой на него.
func (u *Uploader) Upload(ctx context.Context, ownerID, bidID, filename, contentType string, body io.Reader) (models.Attachment, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := ObjectKey(ownerID, bidID, filename)
	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return models.Attachment{
		Name: baseName(filename),
		URL:  u.URL(key),
		Key:  key,
	}, nil
}

// URL возвращает публичную ссылку на объект.
func (u *Uploader) URL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if u.PublicBaseURL != "" {
		return strings.TrimRight(u.PublicBaseURL, "/") + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.Bucket, u.Region, escaped)
}
