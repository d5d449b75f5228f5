package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// ReceiptRenderer draws payment receipts as single-page A4 PDFs with a QR
// code linking to the public tracking page.
type ReceiptRenderer struct {
	publicURL string
}

func NewReceiptRenderer(publicURL string) *ReceiptRenderer {
	return &ReceiptRenderer{publicURL: strings.TrimRight(publicURL, "/")}
}

// TrackingURL is the public tracking link encoded in the receipt QR code.
func (r *ReceiptRenderer) TrackingURL(trackingID string) string {
	return fmt.Sprintf("%s/api/track/%s", r.publicURL, trackingID)
}

// Render returns the receipt PDF.
func (r *ReceiptRenderer) Render(receipt *Receipt) ([]byte, error) {
	if receipt == nil || receipt.Payment == nil || receipt.Request == nil {
		return nil, fmt.Errorf("%w: incomplete receipt", ErrInvalidInput)
	}
	payment, sr := receipt.Payment, receipt.Request

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, "SMART SERVICE", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, "Payment Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	row := func(label, value string) {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(55, 8, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 8, value, "", 1, "L", false, 0, "")
	}

	// Core fonts are cp1252, so amounts use "Rs." instead of the rupee sign.
	row("Receipt No.", payment.ReceiptNumber)
	row("Tracking ID", sr.TrackingID)
	if sr.Customer != nil {
		row("Customer", sr.Customer.Name)
		row("Mobile", sr.Customer.Mobile)
	}
	if sr.Vehicle != nil {
		row("Vehicle", strings.TrimSpace(fmt.Sprintf("%s %s %s", sr.Vehicle.VehicleNumber, sr.Vehicle.Brand, sr.Vehicle.ModelName)))
	}
	row("Service", sr.ServiceType.Label())
	row("Status", sr.Status.Label())
	row("Amount", "Rs. "+payment.Amount.StringFixed(2))
	row("Method", string(payment.Method))
	if payment.TransactionID != "" {
		row("Transaction ID", payment.TransactionID)
	}
	if payment.PaidAt != nil {
		row("Paid At", payment.PaidAt.Format("02 Jan 2006 15:04"))
	}

	qrPng, err := qrcode.Encode(r.TrackingURL(sr.TrackingID), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode tracking qr: %w", err)
	}
	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("tracking_qr", imgOptions, bytes.NewReader(qrPng))
	pdf.Ln(6)
	pdf.ImageOptions("tracking_qr", 80, pdf.GetY(), 50, 50, false, imgOptions, 0, "")
	pdf.SetY(pdf.GetY() + 52)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 5, "Scan to track your service", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "Thank you for choosing Smart Service!", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
