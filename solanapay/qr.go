package solanapay

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRCode renders a payment-request URI as a PNG of the given pixel size.
func QRCode(url string, size int) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("cannot render an empty payment url")
	}
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment qr: %w", err)
	}
	return png, nil
}
