package services

import (
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	intconfig "busticket/internal/config"
	"busticket/internal/domain"
	"busticket/internal/domain/models"
	"busticket/internal/repositories"
)

func bookingServiceFor(t *testing.T) (BookingService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	intconfig.DB = db

	svc := BookingService{
		DB:        db,
		Seats:     repositories.SeatRepository{DB: db},
		Locks:     repositories.SeatLockRepository{DB: db},
		Bookings:  repositories.BookingRepository{DB: db},
		Schedules: repositories.ScheduleRepository{DB: db},
		Now:       func() time.Time { return testNow },
	}
	return svc, mock
}

func bookingRows(id int64, status, paymentStatus, seatsJSON string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "reference", "user_id", "schedule_id", "channel",
		"customer_name", "customer_phone", "customer_email",
		"seats", "subtotal", "fees", "total_amount", "status", "payment_status",
		"qr_code_path", "created_at",
	}).AddRow(
		id, "BTTESTREF001", 7, 10, models.ChannelOnline,
		"Abel Tesfaye", "0911000000", "abel@example.com",
		[]byte(seatsJSON), 1560.0, 0.0, 1560.0, status, paymentStatus,
		"", testNow,
	)
}

const twoSeatSnapshot = `[{"label":"A1","seat_class":"standard","fare":780},{"label":"A2","seat_class":"standard","fare":780}]`

func TestCreateBookingPricesSeats(t *testing.T) {
	svc, mock := bookingServiceFor(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM schedules WHERE id=. LIMIT 1 FOR UPDATE").
		WillReturnRows(scheduleRows(models.ScheduleScheduled, 0))
	mock.ExpectExec("DELETE FROM seat_locks WHERE schedule_id=. AND locked_until").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM seats WHERE bus_id=. AND label IN").
		WillReturnRows(seatRows(
			models.Seat{ID: 1, BusID: 3, Label: "A1", SeatClass: "standard", Status: models.SeatAvailable},
			models.Seat{ID: 2, BusID: 3, Label: "A2", SeatClass: "standard", Status: models.SeatAvailable},
		))
	mock.ExpectQuery("SELECT seats FROM bookings").
		WillReturnRows(seatSnapshotRows())
	mock.ExpectQuery("FROM seat_locks WHERE schedule_id=. AND seat_label IN").
		WillReturnRows(seatLockRows(
			models.SeatLock{ID: 1, ScheduleID: 10, SeatLabel: "A1", LockToken: "tok-1", UserID: 7, LockedUntil: testNow.Add(time.Minute)},
			models.SeatLock{ID: 2, ScheduleID: 10, SeatLabel: "A2", LockToken: "tok-1", UserID: 7, LockedUntil: testNow.Add(time.Minute)},
		))
	mock.ExpectQuery("SELECT seat_label FROM seat_locks").
		WillReturnRows(sqlmock.NewRows([]string{"seat_label"}).AddRow("A1").AddRow("A2"))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(`booked_seat_count = booked_seat_count \+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM seat_locks WHERE lock_token").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	booking, err := svc.Create(CreateBookingInput{
		ScheduleID:    10,
		SeatLabels:    []string{"A1", "A2"},
		CustomerName:  "Abel Tesfaye",
		CustomerPhone: "0911000000",
		Channel:       models.ChannelOnline,
		LockToken:     "tok-1",
		Actor:         domain.Actor{UserID: 7, Role: domain.RoleCustomer},
	})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	// 650 base fare at a 1.2 factor is 780 per seat.
	if booking.Subtotal != 1560 || booking.TotalAmount != 1560 || booking.Fees != 0 {
		t.Fatalf("subtotal=%v fees=%v total=%v, want 1560/0/1560", booking.Subtotal, booking.Fees, booking.TotalAmount)
	}
	for _, seat := range booking.Seats {
		if seat.Fare != 780 {
			t.Fatalf("seat %s fare = %v, want 780", seat.Label, seat.Fare)
		}
	}
	if booking.Status != models.BookingPending || booking.PaymentStatus != models.PaymentUnpaid {
		t.Fatalf("status=%s payment=%s, want pending/unpaid", booking.Status, booking.PaymentStatus)
	}
	if !strings.HasPrefix(booking.Reference, "BT") || len(booking.Reference) != 12 {
		t.Fatalf("reference = %q, want BT prefix with 10 random chars", booking.Reference)
	}
	if booking.ID != 42 {
		t.Fatalf("id = %d, want 42", booking.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingLockMismatch(t *testing.T) {
	svc, mock := bookingServiceFor(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM schedules WHERE id=. LIMIT 1 FOR UPDATE").
		WillReturnRows(scheduleRows(models.ScheduleScheduled, 0))
	mock.ExpectExec("DELETE FROM seat_locks WHERE schedule_id=. AND locked_until").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM seats WHERE bus_id=. AND label IN").
		WillReturnRows(seatRows(
			models.Seat{ID: 1, BusID: 3, Label: "A1", SeatClass: "standard", Status: models.SeatAvailable},
			models.Seat{ID: 2, BusID: 3, Label: "A2", SeatClass: "standard", Status: models.SeatAvailable},
		))
	mock.ExpectQuery("SELECT seats FROM bookings").
		WillReturnRows(seatSnapshotRows())
	mock.ExpectQuery("FROM seat_locks WHERE schedule_id=. AND seat_label IN").
		WillReturnRows(seatLockRows(
			models.SeatLock{ID: 1, ScheduleID: 10, SeatLabel: "A1", LockToken: "tok-1", UserID: 7, LockedUntil: testNow.Add(time.Minute)},
			models.SeatLock{ID: 2, ScheduleID: 10, SeatLabel: "A2", LockToken: "tok-2", UserID: 9, LockedUntil: testNow.Add(time.Minute)},
		))
	// The token only holds A1, the request claims A1+A2.
	mock.ExpectQuery("SELECT seat_label FROM seat_locks").
		WillReturnRows(sqlmock.NewRows([]string{"seat_label"}).AddRow("A1"))
	mock.ExpectRollback()

	_, err := svc.Create(CreateBookingInput{
		ScheduleID:    10,
		SeatLabels:    []string{"A1", "A2"},
		CustomerName:  "Abel Tesfaye",
		CustomerPhone: "0911000000",
		Channel:       models.ChannelOnline,
		LockToken:     "tok-1",
		Actor:         domain.Actor{UserID: 7, Role: domain.RoleCustomer},
	})
	if !domain.IsLockMismatch(err) {
		t.Fatalf("err = %v, want lock mismatch", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingRejectsBookedSeat(t *testing.T) {
	svc, mock := bookingServiceFor(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM schedules WHERE id=. LIMIT 1 FOR UPDATE").
		WillReturnRows(scheduleRows(models.ScheduleScheduled, 2))
	mock.ExpectExec("DELETE FROM seat_locks WHERE schedule_id=. AND locked_until").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM seats WHERE bus_id=. AND label IN").
		WillReturnRows(seatRows(
			models.Seat{ID: 1, BusID: 3, Label: "A1", SeatClass: "standard", Status: models.SeatAvailable},
		))
	mock.ExpectQuery("SELECT seats FROM bookings").
		WillReturnRows(seatSnapshotRows(`[{"label":"A1","seat_class":"standard","fare":780}]`))
	mock.ExpectRollback()

	_, err := svc.Create(CreateBookingInput{
		ScheduleID:    10,
		SeatLabels:    []string{"A1"},
		CustomerName:  "Abel Tesfaye",
		CustomerPhone: "0911000000",
		Channel:       models.ChannelOnline,
		LockToken:     "tok-1",
		Actor:         domain.Actor{UserID: 7, Role: domain.RoleCustomer},
	})
	if !domain.IsSeatConflict(err) {
		t.Fatalf("err = %v, want seat conflict", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingRejectsForeignHoldWithoutToken(t *testing.T) {
	svc, mock := bookingServiceFor(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM schedules WHERE id=. LIMIT 1 FOR UPDATE").
		WillReturnRows(scheduleRows(models.ScheduleScheduled, 0))
	mock.ExpectExec("DELETE FROM seat_locks WHERE schedule_id=. AND locked_until").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM seats WHERE bus_id=. AND label IN").
		WillReturnRows(seatRows(
			models.Seat{ID: 1, BusID: 3, Label: "A1", SeatClass: "standard", Status: models.SeatAvailable},
		))
	mock.ExpectQuery("SELECT seats FROM bookings").
		WillReturnRows(seatSnapshotRows())
	mock.ExpectQuery("FROM seat_locks WHERE schedule_id=. AND seat_label IN").
		WillReturnRows(seatLockRows(
			models.SeatLock{ID: 1, ScheduleID: 10, SeatLabel: "A1", LockToken: "tok-other", UserID: 9, LockedUntil: testNow.Add(time.Minute)},
		))
	mock.ExpectRollback()

	_, err := svc.Create(CreateBookingInput{
		ScheduleID:    10,
		SeatLabels:    []string{"A1"},
		CustomerName:  "Walk In",
		CustomerPhone: "0911000001",
		Channel:       models.ChannelOnline,
		Actor:         domain.Actor{UserID: 7, Role: domain.RoleCustomer},
	})
	if !domain.IsSeatLocked(err) {
		t.Fatalf("err = %v, want seat locked", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingCashierOverridesForeignHold(t *testing.T) {
	svc, mock := bookingServiceFor(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM schedules WHERE id=. LIMIT 1 FOR UPDATE").
		WillReturnRows(scheduleRows(models.ScheduleScheduled, 0))
	mock.ExpectExec("DELETE FROM seat_locks WHERE schedule_id=. AND locked_until").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM seats WHERE bus_id=. AND label IN").
		WillReturnRows(seatRows(
			models.Seat{ID: 1, BusID: 3, Label: "A1", SeatClass: "standard", Status: models.SeatAvailable},
		))
	mock.ExpectQuery("SELECT seats FROM bookings").
		WillReturnRows(seatSnapshotRows())
	mock.ExpectQuery("FROM seat_locks WHERE schedule_id=. AND seat_label IN").
		WillReturnRows(seatLockRows(
			models.SeatLock{ID: 1, ScheduleID: 10, SeatLabel: "A1", LockToken: "tok-other", UserID: 9, LockedUntil: testNow.Add(time.Minute)},
		))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(43, 1))
	mock.ExpectExec(`booked_seat_count = booked_seat_count \+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM seat_locks WHERE schedule_id=. AND seat_label IN").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	booking, err := svc.Create(CreateBookingInput{
		ScheduleID:    10,
		SeatLabels:    []string{"A1"},
		CustomerName:  "Walk In",
		CustomerPhone: "0911000001",
		Channel:       models.ChannelCashier,
		AutoConfirm:   true,
		Actor:         domain.Actor{UserID: 3, Role: domain.RoleCashier},
	})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if booking.Status != models.BookingConfirmed || booking.PaymentStatus != models.PaymentPaid {
		t.Fatalf("status=%s payment=%s, want confirmed/paid", booking.Status, booking.PaymentStatus)
	}
	// Counter sales are not tied to the cashier's own account.
	if booking.UserID != 0 {
		t.Fatalf("user_id = %d, want 0", booking.UserID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConfirmIdempotent(t *testing.T) {
	svc, mock := bookingServiceFor(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id=. LIMIT 1 FOR UPDATE").
		WillReturnRows(bookingRows(42, models.BookingConfirmed, models.PaymentPaid, twoSeatSnapshot))
	mock.ExpectRollback()

	booking, err := svc.Confirm(42)
	if err != nil {
		t.Fatalf("confirm error: %v", err)
	}
	if booking.Status != models.BookingConfirmed || booking.PaymentStatus != models.PaymentPaid {
		t.Fatalf("status=%s payment=%s, want confirmed/paid", booking.Status, booking.PaymentStatus)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConfirmCancelledBookingFails(t *testing.T) {
	svc, mock := bookingServiceFor(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id=. LIMIT 1 FOR UPDATE").
		WillReturnRows(bookingRows(42, models.BookingCancelled, models.PaymentUnpaid, twoSeatSnapshot))
	mock.ExpectRollback()

	_, err := svc.Confirm(42)
	if !domain.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConfirmPendingBooking(t *testing.T) {
	svc, mock := bookingServiceFor(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id=. LIMIT 1 FOR UPDATE").
		WillReturnRows(bookingRows(42, models.BookingPending, models.PaymentUnpaid, twoSeatSnapshot))
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	booking, err := svc.Confirm(42)
	if err != nil {
		t.Fatalf("confirm error: %v", err)
	}
	if booking.Status != models.BookingConfirmed || booking.PaymentStatus != models.PaymentPaid {
		t.Fatalf("status=%s payment=%s, want confirmed/paid", booking.Status, booking.PaymentStatus)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelPaidBookingRefunds(t *testing.T) {
	svc, mock := bookingServiceFor(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id=. LIMIT 1 FOR UPDATE").
		WillReturnRows(bookingRows(42, models.BookingConfirmed, models.PaymentPaid, twoSeatSnapshot))
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("LEAST").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	booking, err := svc.Cancel(42)
	if err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if booking.Status != models.BookingCancelled || booking.PaymentStatus != models.PaymentRefunded {
		t.Fatalf("status=%s payment=%s, want cancelled/refunded", booking.Status, booking.PaymentStatus)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelIdempotent(t *testing.T) {
	svc, mock := bookingServiceFor(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id=. LIMIT 1 FOR UPDATE").
		WillReturnRows(bookingRows(42, models.BookingCancelled, models.PaymentRefunded, twoSeatSnapshot))
	mock.ExpectRollback()

	booking, err := svc.Cancel(42)
	if err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if booking.Status != models.BookingCancelled {
		t.Fatalf("status = %s, want cancelled", booking.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingRejectsEmptySeats(t *testing.T) {
	svc, _ := bookingServiceFor(t)

	_, err := svc.Create(CreateBookingInput{
		ScheduleID:    10,
		SeatLabels:    []string{"  ", ""},
		CustomerName:  "Abel Tesfaye",
		CustomerPhone: "0911000000",
		Channel:       models.ChannelOnline,
	})
	if !domain.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}
