package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/clinic-api/internal/middleware"
	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/repository/memory"
	"github.com/harentsoaR/clinic-api/internal/services"
	"github.com/harentsoaR/clinic-api/internal/utils"
)

type noopNotifier struct{}

func (noopNotifier) AppointmentBooked(*models.Patient, *models.Appointment)    {}
func (noopNotifier) AppointmentCancelled(*models.Patient, *models.Appointment) {}

type testAPI struct {
	t   *testing.T
	r   *gin.Engine
	svc *services.Services
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	signer := utils.NewTokenSigner("handlers-test-secret-0123456789abcdef", 0)
	svc := services.New(memory.New(), signer, noopNotifier{}, zerolog.Nop())
	svc.Booking.Now = func() time.Time { return time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC) }

	r := gin.New()
	NewHandler(svc, zerolog.Nop()).Register(r, middleware.NewRateLimiter(1000, 1000))
	return &testAPI{t: t, r: r, svc: svc}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}

func (a *testAPI) login(path, identifier, password string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, path, "", gin.H{"identifier": identifier, "password": password})
	expectStatus(a.t, w, http.StatusOK)
	return decode[struct{ Token string }](a.t, w).Token
}

func TestAppointmentLifecycle(t *testing.T) {
	api := newTestAPI(t)
	if _, err := api.svc.Accounts.SeedAdmin(context.Background(), "root", "rootpass"); err != nil {
		t.Fatal(err)
	}
	adminTok := api.login("/auth/admin/login", "root", "rootpass")

	w := api.do(http.MethodPost, "/api/admin/doctors", adminTok, gin.H{
		"name":           "Dr. Lee",
		"specialty":      "Cardiology",
		"email":          "lee@clinic.test",
		"password":       "leepass",
		"availableTimes": []string{"09:00-10:00", "10:00-11:00"},
	})
	expectStatus(t, w, http.StatusCreated)
	doctorID := decode[struct{ ID string }](t, w).ID

	w = api.do(http.MethodPost, "/auth/patient/register", "", gin.H{
		"name": "Ann Smith", "email": "ann@mail.test", "password": "annpass", "phone": "5550000001",
	})
	expectStatus(t, w, http.StatusCreated)
	w = api.do(http.MethodPost, "/auth/patient/register", "", gin.H{
		"name": "Ann Again", "email": "ann@mail.test", "password": "annpass", "phone": "5550000009",
	})
	expectStatus(t, w, http.StatusConflict)

	patientTok := api.login("/auth/patient/login", "ann@mail.test", "annpass")

	availability := func() []string {
		t.Helper()
		w := api.do(http.MethodGet, "/api/availability/patient/"+doctorID+"/2025-06-01", patientTok, nil)
		expectStatus(t, w, http.StatusOK)
		return decode[struct {
			AvailableTimes []string `json:"availableTimes"`
		}](t, w).AvailableTimes
	}
	if got := availability(); len(got) != 2 {
		t.Fatalf("initial availability = %v", got)
	}

	book := gin.H{"doctorId": doctorID, "startTime": "2025-06-01T09:00:00Z"}
	w = api.do(http.MethodPost, "/api/appointments", patientTok, book)
	expectStatus(t, w, http.StatusCreated)
	apt := decode[struct {
		ID          string
		DoctorName  string `json:"doctorName"`
		EndTime     string `json:"endTime"`
		StatusLabel string `json:"statusLabel"`
	}](t, w)
	if apt.DoctorName != "Dr. Lee" || apt.EndTime != "2025-06-01T10:00:00Z" || apt.StatusLabel != "scheduled" {
		t.Errorf("unexpected appointment %+v", apt)
	}

	expectStatus(t, api.do(http.MethodPost, "/api/appointments", patientTok, book), http.StatusConflict)
	if got := availability(); len(got) != 1 || got[0] != "10:00-11:00" {
		t.Fatalf("availability after booking = %v", got)
	}

	expectStatus(t, api.do(http.MethodPatch, "/api/appointments/"+apt.ID+"/cancel", "not-a-token", nil), http.StatusUnauthorized)
	if got := availability(); len(got) != 1 {
		t.Fatalf("a rejected cancel must not free the slot, availability = %v", got)
	}

	doctorTok := api.login("/auth/doctor/login", "lee@clinic.test", "leepass")
	w = api.do(http.MethodGet, "/api/doctor/appointments/2025-06-01?patientName=smith", doctorTok, nil)
	expectStatus(t, w, http.StatusOK)
	if n := len(decode[struct{ Appointments []json.RawMessage }](t, w).Appointments); n != 1 {
		t.Errorf("doctor sees %d appointments, want 1", n)
	}

	expectStatus(t, api.do(http.MethodPatch, "/api/appointments/"+apt.ID+"/cancel", patientTok, nil), http.StatusOK)
	if got := availability(); len(got) != 2 {
		t.Fatalf("availability after cancel = %v", got)
	}

	w = api.do(http.MethodGet, "/api/appointments?status=cancelled&doctorName=LEE", patientTok, nil)
	expectStatus(t, w, http.StatusOK)
	if n := len(decode[struct{ Appointments []json.RawMessage }](t, w).Appointments); n != 1 {
		t.Errorf("cancelled appointments = %d, want 1", n)
	}
}

func TestRequestErrors(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"no auth header", http.MethodGet, "/api/appointments", "", nil, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/appointments", "garbage", nil, http.StatusUnauthorized},
		{"bad login", http.MethodPost, "/auth/patient/login", "", gin.H{"identifier": "x@y.z", "password": "nope"}, http.StatusUnauthorized},
		{"login without body", http.MethodPost, "/auth/doctor/login", "", nil, http.StatusBadRequest},
		{"bad role", http.MethodGet, "/api/availability/nurse/507f1f77bcf86cd799439011/2025-06-01", "t", nil, http.StatusBadRequest},
		{"bad doctor id", http.MethodGet, "/api/availability/patient/xyz/2025-06-01", "t", nil, http.StatusBadRequest},
		{"bad date", http.MethodGet, "/api/availability/patient/507f1f77bcf86cd799439011/June-1", "t", nil, http.StatusBadRequest},
		{"bad period", http.MethodGet, "/doctors/filter?time=noon", "", nil, http.StatusBadRequest},
		{"bad status", http.MethodGet, "/api/appointments?status=maybe", "t", nil, http.StatusBadRequest},
		{"bad start", http.MethodPost, "/api/appointments", "t", gin.H{"doctorId": "507f1f77bcf86cd799439011", "startTime": "tomorrow"}, http.StatusBadRequest},
		{"register invalid email", http.MethodPost, "/auth/patient/register", "", gin.H{"name": "Ann", "email": "nope", "password": "annpass", "phone": "5550000001"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, api.do(tt.method, tt.path, tt.token, tt.body), tt.want)
		})
	}
}

func TestPublicDoctorDirectory(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodGet, "/doctors", "", nil)
	expectStatus(t, w, http.StatusOK)
	if n := len(decode[struct{ Doctors []json.RawMessage }](t, w).Doctors); n != 0 {
		t.Fatalf("expected an empty directory, got %d", n)
	}
}
