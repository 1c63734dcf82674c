package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"goodfit-api/internal/config"
	"goodfit-api/internal/models"

	"github.com/aws/aws-sdk-go/aws"
	awscredentials "github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	miniocredentials "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// ObjectStore keeps uploaded media and hands back a public URL.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

// URLSigner turns a stored object URL into a time limited download link.
type URLSigner interface {
	SignURL(ctx context.Context, fileURL string, ttl time.Duration) (string, error)
}

// PhotoSigner swaps stored photo URLs for presigned links when photos live in
// a private bucket. A nil *PhotoSigner leaves URLs as stored.
type PhotoSigner struct {
	signer URLSigner
	ttl    time.Duration
}

// NewPhotoSigner returns nil when signer is nil or ttl is not positive.
func NewPhotoSigner(signer URLSigner, ttl time.Duration) *PhotoSigner {
	if signer == nil || ttl <= 0 {
		return nil
	}
	return &PhotoSigner{signer: signer, ttl: ttl}
}

// Sign rewrites profile.PhotoURL in place. On failure the stored URL is kept.
func (p *PhotoSigner) Sign(ctx context.Context, profile *models.Profile) {
	if p == nil || profile == nil || profile.PhotoURL == "" {
		return
	}
	signed, err := p.signer.SignURL(ctx, profile.PhotoURL, p.ttl)
	if err != nil {
		logrus.WithError(err).WithField("user_id", profile.UserID).Warn("failed to sign photo URL")
		return
	}
	profile.PhotoURL = signed
}

// StorageService writes profile media to MinIO when an endpoint is
// configured and to S3 otherwise.
type StorageService struct {
	cfg         *config.Config
	s3Client    *s3.S3
	uploader    *s3manager.Uploader
	minioClient *minio.Client
	useMinIO    bool
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	service := &StorageService{cfg: cfg}

	if cfg.MinIOEndpoint != "" {
		service.useMinIO = true
		minioClient, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
			Creds:  miniocredentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: cfg.MinIOUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create MinIO client: %w", err)
		}
		service.minioClient = minioClient
		return service, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWSRegion),
		Credentials: awscredentials.NewStaticCredentials(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	service.s3Client = s3.New(sess)
	service.uploader = s3manager.NewUploaderWithClient(service.s3Client)
	return service, nil
}

func (s *StorageService) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if s.useMinIO {
		_, err := s.minioClient.PutObject(ctx, s.cfg.S3Bucket, key, body, size, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return "", fmt.Errorf("failed to upload to MinIO: %w", err)
		}
		protocol := "http"
		if s.cfg.MinIOUseSSL {
			protocol = "https"
		}
		return fmt.Sprintf("%s://%s/%s/%s", protocol, s.cfg.MinIOEndpoint, s.cfg.S3Bucket, key), nil
	}

	input := &s3manager.UploadInput{
		Bucket:      aws.String(s.cfg.S3Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if s.cfg.PhotoURLTTL <= 0 {
		input.ACL = aws.String("public-read")
	}
	_, err := s.uploader.UploadWithContext(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.S3Bucket, s.cfg.AWSRegion, key), nil
}

func (s *StorageService) Delete(ctx context.Context, fileURL string) error {
	key := s.keyFromURL(fileURL)
	if key == "" {
		return fmt.Errorf("invalid file URL %q", fileURL)
	}

	if s.useMinIO {
		if err := s.minioClient.RemoveObject(ctx, s.cfg.S3Bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete from MinIO: %w", err)
		}
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// EnsureBucket creates the media bucket if it does not exist yet.
func (s *StorageService) EnsureBucket(ctx context.Context) error {
	if s.useMinIO {
		exists, err := s.minioClient.BucketExists(ctx, s.cfg.S3Bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket existence: %w", err)
		}
		if !exists {
			if err := s.minioClient.MakeBucket(ctx, s.cfg.S3Bucket, minio.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("failed to create MinIO bucket: %w", err)
			}
		}
		return nil
	}

	_, err := s.s3Client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.cfg.S3Bucket),
	})
	if err != nil && !strings.Contains(err.Error(), s3.ErrCodeBucketAlreadyOwnedByYou) {
		return fmt.Errorf("failed to create S3 bucket: %w", err)
	}
	return nil
}

// PresignedURL returns a time limited download link for key.
func (s *StorageService) PresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	if s.useMinIO {
		u, err := s.minioClient.PresignedGetObject(ctx, s.cfg.S3Bucket, key, expiration, nil)
		if err != nil {
			return "", fmt.Errorf("failed to generate presigned URL: %w", err)
		}
		return u.String(), nil
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.cfg.S3Bucket),
		Key:    aws.String(key),
	})
	u, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u, nil
}

// SignURL presigns the object behind a URL returned by Upload.
func (s *StorageService) SignURL(ctx context.Context, fileURL string, ttl time.Duration) (string, error) {
	key := s.keyFromURL(fileURL)
	if key == "" {
		return "", fmt.Errorf("invalid file URL %q", fileURL)
	}
	return s.PresignedURL(ctx, key, ttl)
}

// keyFromURL strips the host and, for path-style MinIO URLs, the bucket.
func (s *StorageService) keyFromURL(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil || u.Path == "" {
		return ""
	}
	key := strings.TrimPrefix(u.Path, "/")
	if s.useMinIO {
		key = strings.TrimPrefix(key, s.cfg.S3Bucket+"/")
	}
	return key
}

// PhotoKey builds a unique object key for a user's photo, keeping the
// original extension.
func PhotoKey(userID uint, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return path.Join("profiles", fmt.Sprint(userID), uuid.NewString()+ext)
}
