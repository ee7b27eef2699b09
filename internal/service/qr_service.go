package service

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultQRSize is the pixel size of generated QR images.
const DefaultQRSize = 200

// QRService renders a URL into an opaque base64 PNG data URI.
type QRService struct{}

func (QRService) MakeBase64(text string, size int) (string, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return "", err
	}
	b64 := base64.StdEncoding.EncodeToString(png)
	return "data:image/png;base64," + b64, nil
}
