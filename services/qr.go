package services

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRRenderer turns a URL into an image the staff screen can display.
type QRRenderer interface {
	Render(content string) (string, error)
}

// PNGQRRenderer renders PNG data URLs.
type PNGQRRenderer struct {
	Size  int
	Level qrcode.RecoveryLevel
}

func NewPNGQRRenderer() PNGQRRenderer {
	return PNGQRRenderer{Size: 256, Level: qrcode.Medium}
}

func (r PNGQRRenderer) Render(content string) (string, error) {
	png, err := qrcode.Encode(content, r.Level, r.Size)
	if err != nil {
		return "", fmt.Errorf("render qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
