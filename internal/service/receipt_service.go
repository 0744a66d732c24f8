package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReceiptUpload is a presigned slot for a student to PUT a receipt image.
// ImageURL is the value to submit with the enrollment.
type ReceiptUpload struct {
	UploadURL   string
	ImageURL    string
	Key         string
	ContentType string
	ExpiresAt   time.Time
}

type ReceiptService interface {
	UploadURL(ctx context.Context, userID, filename string) (*ReceiptUpload, error)
	// ViewURL returns a short-lived GET URL for a receipt stored in the
	// bucket. URLs outside the bucket are returned unchanged.
	ViewURL(ctx context.Context, imageURL string) (string, error)
}

type presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var receiptContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

type receiptService struct {
	presignClient presigner
	bucketName    string
	publicBaseURL string
	ttl           time.Duration
	now           func() time.Time
	logger        zerolog.Logger
}

// NewReceiptService presigns receipt uploads against bucketName. publicBaseURL
// is the prefix under which stored objects are addressed; it defaults to the
// path-style endpoint URL.
func NewReceiptService(s3Client *s3.Client, endpoint, bucketName, publicBaseURL string, ttl time.Duration, logger zerolog.Logger) ReceiptService {
	return newReceiptService(s3.NewPresignClient(s3Client), endpoint, bucketName, publicBaseURL, ttl, logger)
}

func newReceiptService(p presigner, endpoint, bucketName, publicBaseURL string, ttl time.Duration, logger zerolog.Logger) *receiptService {
	if publicBaseURL == "" {
		publicBaseURL = strings.TrimRight(endpoint, "/") + "/" + bucketName
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &receiptService{
		presignClient: p,
		bucketName:    bucketName,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		ttl:           ttl,
		now:           time.Now,
		logger:        logger.With().Str("service", "ReceiptService").Logger(),
	}
}

func (s *receiptService) UploadURL(ctx context.Context, userID, filename string) (*ReceiptUpload, error) {
	ext := strings.ToLower(path.Ext(filename))
	contentType, ok := receiptContentTypes[ext]
	if !ok {
		return nil, ErrUnsupportedReceipt
	}
	key := receiptKey(userID, ext)

	request, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		s.logger.Error().Err(err).Str("object_key", key).Msg("Failed to generate presigned PUT URL")
		return nil, fmt.Errorf("failed to generate presigned PUT URL: %w", err)
	}

	return &ReceiptUpload{
		UploadURL:   request.URL,
		ImageURL:    s.publicBaseURL + "/" + key,
		Key:         key,
		ContentType: contentType,
		ExpiresAt:   s.now().Add(s.ttl),
	}, nil
}

func (s *receiptService) ViewURL(ctx context.Context, imageURL string) (string, error) {
	key, ok := s.objectKey(imageURL)
	if !ok {
		return imageURL, nil
	}
	resp, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		s.logger.Error().Err(err).Str("object_key", key).Msg("Failed to generate presigned URL")
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return resp.URL, nil
}

func (s *receiptService) objectKey(imageURL string) (string, bool) {
	prefix := s.publicBaseURL + "/"
	if !strings.HasPrefix(imageURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(imageURL, prefix)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	return key, key != ""
}

func receiptKey(userID, ext string) string {
	return fmt.Sprintf("receipts/%s/%s%s", userID, uuid.NewString(), ext)
}
