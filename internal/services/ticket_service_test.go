package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	intconfig "busticket/internal/config"
	"busticket/internal/domain/models"
	"busticket/internal/repositories"
)

func TestTicketIssueWritesQRAndRecordsURL(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	intconfig.DB = db

	dir := t.TempDir()
	svc := TicketService{
		Bookings:   repositories.BookingRepository{DB: db},
		StorageDir: dir,
		PublicURL:  "http://localhost:8080/storage/",
	}

	mock.ExpectExec("UPDATE bookings SET qr_code_path").
		WillReturnResult(sqlmock.NewResult(0, 1))

	booking := models.Booking{ID: 42, Reference: "BTABCDEF1234"}
	url, err := svc.Issue(booking)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if url != "http://localhost:8080/storage/qr/btabcdef1234.png" {
		t.Fatalf("url = %q", url)
	}
	if _, err := os.Stat(filepath.Join(dir, "qr", "btabcdef1234.png")); err != nil {
		t.Fatalf("qr image not written: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTicketIssueIdempotent(t *testing.T) {
	svc := TicketService{StorageDir: t.TempDir()}

	booking := models.Booking{ID: 42, Reference: "BTABCDEF1234", QRCodePath: "http://x/qr/existing.png"}
	url, err := svc.Issue(booking)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if url != booking.QRCodePath {
		t.Fatalf("url = %q, want recorded path back", url)
	}
}

func TestBuildPDF(t *testing.T) {
	svc := TicketService{}
	booking := models.Booking{
		ID:            42,
		Reference:     "BTABCDEF1234",
		CustomerName:  "Abel Tesfaye",
		CustomerPhone: "0911000000",
		Channel:       models.ChannelOnline,
		Status:        models.BookingConfirmed,
		PaymentStatus: models.PaymentPaid,
		Seats: []models.BookingSeat{
			{Label: "A1", SeatClass: "standard", Fare: 780},
			{Label: "A2", SeatClass: "standard", Fare: 780},
		},
		TotalAmount: 1560,
	}

	data, name, err := svc.BuildPDF(booking)
	if err != nil {
		t.Fatalf("build pdf error: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty pdf output")
	}
	if name != "ETICKET_BTABCDEF1234.pdf" {
		t.Fatalf("file name = %q", name)
	}
}
