package repositories

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"busticket/internal/domain"
)

func TestActiveSeatLabelsUnionsSnapshots(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"seats"}).
		AddRow([]byte(`[{"label":"A1","seat_class":"standard","fare":780}]`)).
		AddRow([]byte(`[{"label":"A2","seat_class":"standard","fare":780},{"label":"A3","seat_class":"vip","fare":900}]`))
	mock.ExpectQuery("SELECT seats FROM bookings").
		WithArgs(int64(10), "pending", "confirmed").
		WillReturnRows(rows)

	repo := BookingRepository{DB: db}
	labels, err := repo.ActiveSeatLabels(nil, 10)
	if err != nil {
		t.Fatalf("active seat labels error: %v", err)
	}
	for _, want := range []string{"A1", "A2", "A3"} {
		if _, ok := labels[want]; !ok {
			t.Fatalf("missing label %s in %v", want, labels)
		}
	}
	if len(labels) != 3 {
		t.Fatalf("got %d labels, want 3", len(labels))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestActiveSeatLabelsCorruptSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT seats FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"seats"}).AddRow([]byte(`not-json`)))

	repo := BookingRepository{DB: db}
	if _, err := repo.ActiveSeatLabels(nil, 10); err == nil {
		t.Fatal("expected an error for a corrupt snapshot")
	}
}

func TestListLimitBounds(t *testing.T) {
	cases := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"default", 0, 15},
		{"negative", -5, 15},
		{"passthrough", 30, 30},
		{"clamped to maximum", 500, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock init error: %v", err)
			}
			defer db.Close()

			mock.ExpectQuery("FROM bookings ORDER BY id DESC").
				WithArgs(tc.wantLimit, 0).
				WillReturnRows(sqlmock.NewRows([]string{"seats"}))

			repo := BookingRepository{DB: db}
			if _, err := repo.List(BookingFilter{Limit: tc.limit}); err != nil {
				t.Fatalf("list error: %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM bookings WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := BookingRepository{DB: db}
	_, err = repo.GetByID(nil, 42)
	if !domain.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}
