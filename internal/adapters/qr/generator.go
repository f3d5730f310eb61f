package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"eventinvites/internal/domain"
)

// qrSize is the pixel width and height of generated QR images.
const qrSize = 300

type generator struct{}

// NewGenerator returns a QRGenerator producing 300px PNG codes with high
// error correction, so printed or re-photographed invitations still scan.
func NewGenerator() domain.QRGenerator {
	return &generator{}
}

func (g *generator) Generate(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.High, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
