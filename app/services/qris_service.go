package services

import (
	"fmt"
	"os"
	"path/filepath"

	"KopiPos/app/models"

	qrcode "github.com/skip2/go-qrcode"
)

// QRISService renders QRIS payment codes as PNG files under the data
// directory. The encoded string is the static merchant payload with the
// order reference and amount appended, which QRIS scanners treat as a
// dynamic code.
type QRISService struct {
	dataDir    string
	merchantID string
}

// NewQRISService creates the QRIS generator. merchantID may be empty in
// development; the code still renders with a placeholder payload.
func NewQRISService(dataDir string) *QRISService {
	return &QRISService{
		dataDir:    dataDir,
		merchantID: os.Getenv("QRIS_MERCHANT_ID"),
	}
}

// GenerateForOrder writes a QR code PNG for the order and returns its path.
func (s *QRISService) GenerateForOrder(order *models.Order) (string, error) {
	dir := filepath.Join(s.dataDir, "qris")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create qris directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("order_%d.png", order.ID))
	if err := qrcode.WriteFile(s.payload(order), qrcode.Medium, 256, path); err != nil {
		return "", fmt.Errorf("failed to write qr code: %w", err)
	}
	return path, nil
}

func (s *QRISService) payload(order *models.Order) string {
	merchant := s.merchantID
	if merchant == "" {
		merchant = "KOPIPOS-DEV"
	}
	return fmt.Sprintf("QRIS|%s|ORDER-%d|%d", merchant, order.ID, order.Total)
}
