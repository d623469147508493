package gcp

import (
	"errors"
	"testing"
)

func TestResolveObjectStorageConfigFromEnvDisabledWithoutBucket(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("PRODUCT_IMAGE_BUCKET", "")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeDisabled {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeDisabled, cfg.Mode)
	}
	if cfg.Enabled() {
		t.Fatalf("enabled: want=false got=true")
	}
}

func TestResolveObjectStorageConfigFromEnvDefaultGCS(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("PRODUCT_IMAGE_BUCKET", "frugal-images")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCS, cfg.Mode)
	}
}

func TestResolveObjectStorageConfigFromEnvEmulatorFallback(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443/")
	t.Setenv("PRODUCT_IMAGE_BUCKET", "frugal-images")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCSEmulator {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCSEmulator, cfg.Mode)
	}
	if cfg.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("emulator host: got=%q", cfg.EmulatorHost)
	}
}

func TestResolveObjectStorageConfigFromEnvRejectsUnknownMode(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "s3")
	t.Setenv("PRODUCT_IMAGE_BUCKET", "frugal-images")

	_, err := ResolveObjectStorageConfigFromEnv()
	var cfgErr *ObjectStorageConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want ObjectStorageConfigError, got %v", err)
	}
	if cfgErr.Field != "OBJECT_STORAGE_MODE" {
		t.Fatalf("field: got=%q", cfgErr.Field)
	}
}

func TestValidateObjectStorageConfigRequiresBucket(t *testing.T) {
	err := ValidateObjectStorageConfig(ObjectStorageConfig{Mode: ObjectStorageModeGCS})
	if err == nil {
		t.Fatalf("expected error for missing bucket")
	}
}

func TestValidateObjectStorageConfigRejectsRelativeEmulatorHost(t *testing.T) {
	err := ValidateObjectStorageConfig(ObjectStorageConfig{
		Mode:         ObjectStorageModeGCSEmulator,
		Bucket:       "b",
		EmulatorHost: "fake-gcs:4443",
	})
	if err == nil {
		t.Fatalf("expected error for relative emulator host")
	}
}

func TestPublicURL(t *testing.T) {
	b := &bucketService{cfg: ObjectStorageConfig{Mode: ObjectStorageModeGCS, Bucket: "imgs"}}
	if got := b.PublicURL("/product_images/1.jpg"); got != "https://storage.googleapis.com/imgs/product_images/1.jpg" {
		t.Fatalf("gcs url: got=%q", got)
	}
	b.cfg.CDNDomain = "cdn.example.com"
	if got := b.PublicURL("product_images/1.jpg"); got != "https://cdn.example.com/product_images/1.jpg" {
		t.Fatalf("cdn url: got=%q", got)
	}
	b.cfg = ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, Bucket: "imgs", EmulatorHost: "http://fake-gcs:4443"}
	if got := b.PublicURL("a.jpg"); got != "http://fake-gcs:4443/storage/v1/b/imgs/o/a.jpg?alt=media" {
		t.Fatalf("emulator url: got=%q", got)
	}
}
