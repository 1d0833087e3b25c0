package overlay

import (
	qrcode "github.com/skip2/go-qrcode"
)

// BuildQRMatrix encodes data into a QR module matrix with medium error
// correction. The returned matrix includes the quiet-zone border, so
// callers can paint it edge to edge.
func BuildQRMatrix(data string) ([][]bool, error) {
	code, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	return code.Bitmap(), nil
}
