package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path"
	"path/filepath"

	_ "image/gif"
	_ "image/png"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/yungbote/frugalprotein-backend/internal/platform/gcp"
	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
)

const (
	ProductImageDir = "product_images"
	jpegQuality     = 95
	maxImageSide    = 1200
)

// ProductImageSink stores scraped product images as JPEG under mediaRoot and
// mirrors them to object storage when a bucket is configured.
type ProductImageSink struct {
	log       *logger.Logger
	mediaRoot string
	bucket    gcp.BucketService
}

// NewProductImageSink accepts a nil bucket; images then stay local only.
func NewProductImageSink(baseLog *logger.Logger, mediaRoot string, bucket gcp.BucketService) *ProductImageSink {
	return &ProductImageSink{
		log:       baseLog.With("service", "ProductImageSink"),
		mediaRoot: mediaRoot,
		bucket:    bucket,
	}
}

// Save re-encodes data and returns the relative key stored on the product,
// product_images/<id>.jpg.
func (s *ProductImageSink) Save(ctx context.Context, productID uuid.UUID, data []byte) (string, error) {
	if productID == uuid.Nil {
		return "", fmt.Errorf("save image: nil product id")
	}
	encoded, err := NormalizeJPEG(data)
	if err != nil {
		return "", err
	}

	key := path.Join(ProductImageDir, productID.String()+".jpg")
	local := filepath.Join(s.mediaRoot, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(local, encoded, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", local, err)
	}

	if s.bucket != nil {
		if err := s.bucket.UploadFile(ctx, key, bytes.NewReader(encoded)); err != nil {
			return "", fmt.Errorf("upload %s: %w", key, err)
		}
	}
	s.log.Debug("Product image saved", "product_id", productID, "key", key, "bytes", len(encoded))
	return key, nil
}

// NormalizeJPEG decodes any registered format, bounds the longer side and
// re-encodes as JPEG.
func NormalizeJPEG(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	img = fit(img, maxImageSide)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}

func fit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return img
	}
	nw, nh := maxSide, h*maxSide/w
	if h > w {
		nw, nh = w*maxSide/h, maxSide
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
