// Package qr wraps the QR-image collaborator: given a URL, it yields an
// embeddable image reference.
package qr

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

// Provider returns an embeddable image reference for a URL.
type Provider interface {
	ImageRef(url string) (string, error)
}

// DataURIProvider renders the QR code inline as a base64 PNG data URI.
type DataURIProvider struct {
	size int
}

// NewDataURIProvider creates a provider rendering PNGs of the given pixel size.
func NewDataURIProvider(size int) *DataURIProvider {
	if size <= 0 {
		size = 256
	}
	return &DataURIProvider{size: size}
}

// ImageRef encodes the URL as a QR PNG data URI.
func (p *DataURIProvider) ImageRef(url string) (string, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, p.size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
