package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/facturaIA/invoice-ai-service/internal/config"
)

const pdfContentType = "application/pdf"

// PDFArchive stores rendered invoice PDFs
type PDFArchive interface {
	Upload(ctx context.Context, objectName string, data []byte) (string, error)
	PresignedURL(ctx context.Context, objectPath string) (string, error)
	Delete(ctx context.Context, objectPath string) error
}

// Archive is a MinIO bucket holding invoice PDFs
type Archive struct {
	client     *minio.Client
	bucket     string
	presignTTL time.Duration
}

// NewArchive connects to MinIO and verifies the bucket exists
func NewArchive(ctx context.Context, cfg config.StorageConfig) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", cfg.Bucket)
	}

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Archive{client: client, bucket: cfg.Bucket, presignTTL: ttl}, nil
}

// ObjectName builds the per-user path for an invoice PDF.
// Path format: {userId}/YYYY/MM/{invoiceNumber}_{rand}.pdf
func ObjectName(userID uuid.UUID, invoiceNumber string, now time.Time) string {
	return fmt.Sprintf("%s/%d/%02d/%s_%s.pdf",
		userID,
		now.Year(),
		now.Month(),
		safeName(invoiceNumber),
		uuid.NewString()[:8],
	)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "invoice"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '-'
	}, s)
}

// Upload stores a PDF and returns "{bucket}/{objectName}" for the invoice record
func (a *Archive) Upload(ctx context.Context, objectName string, data []byte) (string, error) {
	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: pdfContentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload PDF: %w", err)
	}
	return fmt.Sprintf("%s/%s", a.bucket, objectName), nil
}

// PresignedURL generates a time-limited download URL
func (a *Archive) PresignedURL(ctx context.Context, objectPath string) (string, error) {
	url, err := a.client.PresignedGetObject(ctx, a.bucket, stripBucket(a.bucket, objectPath), a.presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}

// Delete removes a PDF from the bucket
func (a *Archive) Delete(ctx context.Context, objectPath string) error {
	return a.client.RemoveObject(ctx, a.bucket, stripBucket(a.bucket, objectPath), minio.RemoveObjectOptions{})
}

// Remove bucket prefix if present
func stripBucket(bucket, objectPath string) string {
	return strings.TrimPrefix(objectPath, bucket+"/")
}
