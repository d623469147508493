package app

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/frugalprotein-backend/internal/platform/gcp"
	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
)

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	cases := []struct {
		field string
		want  StorageProviderBootstrapErrorCode
	}{
		{"OBJECT_STORAGE_MODE", StorageProviderBootstrapErrorInvalidMode},
		{"PRODUCT_IMAGE_BUCKET", StorageProviderBootstrapErrorMissingBucket},
		{"STORAGE_EMULATOR_HOST", StorageProviderBootstrapErrorInvalidEmulatorHost},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			err := classifyStorageProviderBootstrapError(
				gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCSEmulator},
				&gcp.ObjectStorageConfigError{Field: tc.field},
			)
			var got *StorageProviderBootstrapError
			if !errors.As(err, &got) {
				t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
			}
			if got.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got.Code)
			}
		})
	}
}

func TestClassifyStorageProviderBootstrapErrorConnectFailed(t *testing.T) {
	err := classifyStorageProviderBootstrapError(gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCS}, errors.New("dial tcp: refused"))
	if code := storageProviderBootstrapErrorCode(err); code != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorConnectFailed, code)
	}
}

func TestResolveBucketServiceDisabled(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "disabled")
	t.Setenv("PRODUCT_IMAGE_BUCKET", "")

	bucket, err := resolveBucketService(context.Background(), logger.NewNop())
	if err != nil {
		t.Fatalf("resolveBucketService: %v", err)
	}
	if bucket != nil {
		t.Fatalf("expected no bucket when storage is disabled")
	}
}

func TestResolveBucketServiceWrapsBootstrapFailure(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "gcs")
	t.Setenv("PRODUCT_IMAGE_BUCKET", "frugal-images")

	prev := newBucketServiceWithConfig
	t.Cleanup(func() { newBucketServiceWithConfig = prev })
	newBucketServiceWithConfig = func(context.Context, *logger.Logger, gcp.ObjectStorageConfig) (gcp.BucketService, error) {
		return nil, errors.New("credentials not found")
	}

	_, err := resolveBucketService(context.Background(), logger.NewNop())
	var got *StorageProviderBootstrapError
	if !errors.As(err, &got) || got.Code != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("expected connect_failed bootstrap error, got=%v", err)
	}
}
