package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
)

func TestRespondDomainErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", domain.ValidationError{Field: "seat_labels", Msg: "required"}, http.StatusBadRequest, "validation_error"},
		{"not found", domain.NotFoundError{Resource: "booking"}, http.StatusNotFound, "not_found"},
		{"forbidden", domain.ForbiddenError{Msg: "nope"}, http.StatusForbidden, "forbidden"},
		{"gate", domain.ScheduleNotBookableError{ScheduleID: 10, Status: "completed"}, http.StatusUnprocessableEntity, "schedule_not_bookable"},
		{"unknown seat", domain.UnknownSeatError{Labels: []string{"Z9"}}, http.StatusUnprocessableEntity, "unknown_seat"},
		{"seat unavailable", domain.SeatUnavailableError{Labels: []string{"A3"}}, http.StatusUnprocessableEntity, "seat_unavailable"},
		{"seat conflict", domain.SeatConflictError{Labels: []string{"A1"}}, http.StatusConflict, "seat_conflict"},
		{"seat locked", domain.SeatLockedError{Labels: []string{"A1"}}, http.StatusConflict, "seat_locked"},
		{"lock mismatch", domain.LockMismatchError{Token: "tok-1"}, http.StatusConflict, "lock_mismatch"},
		{"already paid", domain.AlreadyPaidError{BookingID: 42}, http.StatusUnprocessableEntity, "already_paid"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RespondDomainError(c, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json body: %v", err)
			}
			if body["code"] != tc.wantCode {
				t.Fatalf("code = %v, want %s", body["code"], tc.wantCode)
			}
		})
	}
}

func TestConflictResponsesCarrySeatLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	RespondDomainError(c, domain.SeatConflictError{Labels: []string{"A1", "A2"}})

	var body struct {
		Details struct {
			Conflicts []string `json:"conflicts"`
		} `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if len(body.Details.Conflicts) != 2 || body.Details.Conflicts[0] != "A1" {
		t.Fatalf("conflicts = %v, want [A1 A2]", body.Details.Conflicts)
	}
}
