package utils

import (
	"strings"
	"testing"
)

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{650 * 1.2, 780},
		{10.004, 10.0},
		{10.016, 10.02},
		{0, 0},
		{99.999, 100},
	}
	for _, c := range cases {
		if got := Round2(c.in); got != c.want {
			t.Errorf("Round2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	if got := FormatMoney(780); got != "780.00" {
		t.Fatalf("FormatMoney(780) = %q", got)
	}
	if got := FormatMoney(1560.5); got != "1560.50" {
		t.Fatalf("FormatMoney(1560.5) = %q", got)
	}
}

func TestNormalizeSeatLabels(t *testing.T) {
	got := NormalizeSeatLabels([]string{" a1 ", "A2", "a1", "", "  "})
	if len(got) != 2 || got[0] != "A1" || got[1] != "A2" {
		t.Fatalf("NormalizeSeatLabels = %v, want [A1 A2]", got)
	}
}

func TestSameLabelSet(t *testing.T) {
	if !SameLabelSet([]string{"A1", "A2"}, []string{"A2", "A1"}) {
		t.Fatal("same sets in different order should match")
	}
	if SameLabelSet([]string{"A1"}, []string{"A1", "A2"}) {
		t.Fatal("subset should not match")
	}
	if SameLabelSet([]string{"A1", "A3"}, []string{"A1", "A2"}) {
		t.Fatal("different sets should not match")
	}
}

func TestReferenceFormats(t *testing.T) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		ref := NewBookingReference()
		if !strings.HasPrefix(ref, "BT") || len(ref) != 12 {
			t.Fatalf("booking reference = %q, want BT + 10 chars", ref)
		}
		for _, ch := range ref[2:] {
			if !strings.ContainsRune(alphabet, ch) {
				t.Fatalf("booking reference %q contains %q outside the alphabet", ref, ch)
			}
		}
		if seen[ref] {
			t.Fatalf("duplicate reference %q after %d draws", ref, i)
		}
		seen[ref] = true
	}

	tr := NewTransactionReference()
	if !strings.HasPrefix(tr, "TB") || len(tr) != 14 {
		t.Fatalf("transaction reference = %q, want TB + 12 chars", tr)
	}
}
