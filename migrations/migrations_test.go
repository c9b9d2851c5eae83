package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
)

func TestCollectEmbeddedMigrations(t *testing.T) {
	goose.SetBaseFS(FS)
	t.Cleanup(func() { goose.SetBaseFS(nil) })

	if err := goose.SetDialect("mysql"); err != nil {
		t.Fatalf("goose dialect err: %v", err)
	}
	files, err := goose.CollectMigrations(".", 0, (1<<63)-1)
	if err != nil {
		t.Fatalf("collect error: %v", err)
	}
	if len(files) != 6 {
		t.Fatalf("collected %d migrations, want 6", len(files))
	}
}

func readMigration(t *testing.T, name string) string {
	t.Helper()
	data, err := fs.ReadFile(FS, name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

// Locks, bookings and payments are owned rows: removing a schedule (or
// a booking) must take them along, and deleting a user account must
// not strand or delete the rows it touched.
func TestOwnedRowsCascade(t *testing.T) {
	cases := []struct {
		file string
		want []string
	}{
		{"00004_create_seat_locks.sql", []string{
			"REFERENCES schedules (id) ON DELETE CASCADE",
			"REFERENCES users (id) ON DELETE SET NULL",
		}},
		{"00005_create_bookings.sql", []string{
			"REFERENCES schedules (id) ON DELETE CASCADE",
			"REFERENCES users (id) ON DELETE SET NULL",
		}},
		{"00006_create_payments.sql", []string{
			"REFERENCES bookings (id) ON DELETE CASCADE",
		}},
	}
	for _, tc := range cases {
		ddl := readMigration(t, tc.file)
		for _, want := range tc.want {
			if !strings.Contains(ddl, want) {
				t.Errorf("%s: missing %q", tc.file, want)
			}
		}
	}
}
