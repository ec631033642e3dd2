package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/aussiebroadwan/greenbite/internal/shop/store"
	"github.com/aussiebroadwan/greenbite/pkg/slogx"
)

const UploadURLTTL = 15 * time.Minute

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Presigner signs S3 PUT requests. *s3.PresignClient implements it.
type Presigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // empty for AWS, set for MinIO and friends
	AccessKey string
	SecretKey string

	// PublicBaseURL prefixes object keys to build the stored image URL.
	// Defaults to the endpoint (or AWS virtual host) plus bucket.
	PublicBaseURL string
}

func (c S3Config) Enabled() bool { return c.Bucket != "" }

func (c S3Config) publicBase() string {
	if c.PublicBaseURL != "" {
		return strings.TrimSuffix(c.PublicBaseURL, "/")
	}
	if c.Endpoint != "" {
		return strings.TrimSuffix(c.Endpoint, "/") + "/" + c.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
}

var loadAWSConfig = config.LoadDefaultConfig

// NewS3Presigner builds a presign client from static credentials. A custom
// endpoint switches to path-style addressing.
func NewS3Presigner(ctx context.Context, c S3Config) (*s3.PresignClient, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	cfg, err := loadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})
	return s3.NewPresignClient(client), nil
}

type UploadTicket struct {
	UploadURL string
	ObjectKey string
	ImageURL  string
	ExpiresAt time.Time
}

// ProfileImageService hands out presigned upload URLs for profile pictures
// and records the resulting image URL on the user.
type ProfileImageService struct {
	Store        store.Store
	Presigner    Presigner // nil disables uploads
	Config       S3Config
	StoreTimeout time.Duration
}

func (s *ProfileImageService) CreateUploadURL(ctx context.Context, userID, contentType string) (UploadTicket, error) {
	if s.Presigner == nil || !s.Config.Enabled() {
		return UploadTicket{}, ErrUploadsDisabled
	}
	if !slices.Contains(allowedImageTypes, contentType) {
		return UploadTicket{}, ErrValidation
	}

	key := fmt.Sprintf("users/%s/%s", userID, uuid.NewString())
	req, err := s.Presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Config.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(UploadURLTTL))
	if err != nil {
		slogx.FromContext(ctx).Error("presign profile image upload failed", "user_id", userID, "error", err)
		return UploadTicket{}, classify("presign upload", err)
	}

	now := time.Now().UTC()
	ticket := UploadTicket{
		UploadURL: req.URL,
		ObjectKey: key,
		ImageURL:  s.Config.publicBase() + "/" + key,
		ExpiresAt: now.Add(UploadURLTTL),
	}

	sctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	if err := s.Store.Users().UpdateProfileImageURL(sctx, userID, ticket.ImageURL, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return UploadTicket{}, ErrUserNotFound
		}
		return UploadTicket{}, classify("store profile image", err)
	}

	slogx.FromContext(ctx).Info("profile image upload issued", "user_id", userID, "object_key", key)
	return ticket, nil
}
