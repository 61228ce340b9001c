package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/ikkim/storefront-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(baseURL string) *S3Storage {
	return NewS3Storage(context.Background(), config.S3Config{
		Region:          "us-east-1",
		Bucket:          "catalog-images",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		BaseURL:         baseURL,
	})
}

func TestS3Storage_GeneratePresignedURL(t *testing.T) {
	s := newTestStorage("")

	resp, err := s.GeneratePresignedURL(context.Background(), "Lamp.PNG", "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.Key, "products/"))
	assert.True(t, strings.HasSuffix(resp.Key, ".png"))
	assert.Equal(t, "https://catalog-images.s3.us-east-1.amazonaws.com/"+resp.Key, resp.FileURL)

	uploadURL, err := url.Parse(resp.UploadURL)
	require.NoError(t, err)
	assert.Contains(t, uploadURL.Host, "catalog-images")
	assert.NotEmpty(t, uploadURL.Query().Get("X-Amz-Signature"))
}

func TestS3Storage_GeneratePresignedURL_BaseURL(t *testing.T) {
	s := newTestStorage("https://cdn.example.com/")

	resp, err := s.GeneratePresignedURL(context.Background(), "lamp.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+resp.Key, resp.FileURL)
}

func TestS3Storage_GeneratePresignedURL_RejectsNonImages(t *testing.T) {
	s := newTestStorage("")

	_, err := s.GeneratePresignedURL(context.Background(), "notes.pdf", "application/pdf")
	assert.ErrorIs(t, err, ErrContentTypeNotAllowed)
}
