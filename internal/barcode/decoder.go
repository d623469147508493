package barcode

import (
	"bytes"
	"fmt"
	"image"
	"regexp"

	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	_ "golang.org/x/image/webp"
)

// Decoder turns a photo into the numeric barcodes found in it, best first.
type Decoder interface {
	Decode(image []byte) ([]string, error)
}

var digits = regexp.MustCompile(`\d+`)

// ZXingDecoder reads 1D retail symbologies (EAN-13, EAN-8, UPC-A/E, Code 128).
type ZXingDecoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

func NewZXingDecoder() *ZXingDecoder {
	return &ZXingDecoder{hints: map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
		gozxing.DecodeHintType_POSSIBLE_FORMATS: []gozxing.BarcodeFormat{
			gozxing.BarcodeFormat_EAN_13,
			gozxing.BarcodeFormat_EAN_8,
			gozxing.BarcodeFormat_UPC_A,
			gozxing.BarcodeFormat_UPC_E,
			gozxing.BarcodeFormat_CODE_128,
		},
	}}
}

// Decode returns an empty slice when the image holds no readable barcode.
// Only undecodable image bytes are an error.
func (d *ZXingDecoder) Decode(raw []byte) ([]string, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("binarize image: %w", err)
	}

	reader := oned.NewMultiFormatOneDReader(d.hints)
	result, err := reader.Decode(bmp, d.hints)
	if err != nil {
		return []string{}, nil
	}
	if code := FirstNumericRun(result.GetText()); code != "" {
		return []string{code}, nil
	}
	return []string{}, nil
}

// FirstNumericRun returns the first run of digits in s, or "".
func FirstNumericRun(s string) string {
	return digits.FindString(s)
}
