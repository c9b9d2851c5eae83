package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phpdave11/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"busticket/internal/domain/models"
	"busticket/internal/repositories"
	"busticket/internal/utils"
)

// TicketService renders the ticket artifacts for a booking: a QR PNG
// stored under the public storage dir (its URL recorded on the
// booking) and a downloadable PDF e-ticket.
type TicketService struct {
	Bookings   repositories.BookingRepository
	StorageDir string
	PublicURL  string
	RequestID  string
}

// Issue writes the QR image for a booking reference and stores its
// public URL on the booking. Idempotent: a booking that already has an
// artifact gets the recorded URL back.
func (s TicketService) Issue(b models.Booking) (string, error) {
	if b.QRCodePath != "" {
		return b.QRCodePath, nil
	}

	fileName := strings.ToLower(b.Reference) + ".png"
	dir := filepath.Join(s.StorageDir, "qr")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create qr dir: %w", err)
	}
	if err := qrcode.WriteFile(b.Reference, qrcode.Medium, 300, filepath.Join(dir, fileName)); err != nil {
		return "", fmt.Errorf("write qr image: %w", err)
	}

	url := strings.TrimRight(s.PublicURL, "/") + "/qr/" + fileName
	if err := s.Bookings.SetQRCodePath(nil, b.ID, url); err != nil {
		return "", err
	}
	utils.LogEvent(s.RequestID, "tickets", "issue", fmt.Sprintf("booking_id=%d reference=%s", b.ID, b.Reference))
	return url, nil
}

// BuildPDF renders the e-ticket PDF for a booking.
func (s TicketService) BuildPDF(b models.Booking) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BUS E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Reference      : %s", b.Reference),
		fmt.Sprintf("Customer       : %s", orDash(b.CustomerName)),
		fmt.Sprintf("Phone          : %s", orDash(b.CustomerPhone)),
		fmt.Sprintf("Channel        : %s", b.Channel),
		fmt.Sprintf("Status         : %s / %s", b.Status, b.PaymentStatus),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Seats:")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for _, seat := range b.Seats {
		pdf.Cell(0, 6, fmt.Sprintf("  %s (%s)  %s", seat.Label, orDash(seat.SeatClass), utils.FormatMoney(seat.Fare)))
		pdf.Ln(6)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total: "+utils.FormatMoney(b.TotalAmount))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Present this ticket with the QR code at boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("ETICKET_%s.pdf", b.Reference), nil
}

func orDash(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "-"
	}
	return v
}
