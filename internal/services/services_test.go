package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/repository"
	"github.com/harentsoaR/clinic-api/internal/repository/memory"
	"github.com/harentsoaR/clinic-api/internal/utils"
)

const testSecret = "services-test-secret-0123456789abcdef"

var testNow = time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu        sync.Mutex
	booked    []models.Appointment
	cancelled []models.Appointment
}

func (n *recordingNotifier) AppointmentBooked(_ *models.Patient, apt *models.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.booked = append(n.booked, *apt)
}

func (n *recordingNotifier) AppointmentCancelled(_ *models.Patient, apt *models.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, *apt)
}

type fixture struct {
	svc      *Services
	repos    repository.Repositories
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.New()
	signer := utils.NewTokenSigner(testSecret, 0).WithClock(func() time.Time { return testNow })
	n := &recordingNotifier{}
	svc := New(repos, signer, n, zerolog.Nop())
	svc.Booking.Now = func() time.Time { return testNow }
	return &fixture{svc: svc, repos: repos, notifier: n}
}

func (f *fixture) doctor(t *testing.T, name, email, specialty string, slots ...string) *models.Doctor {
	t.Helper()
	d := &models.Doctor{Name: name, Email: email, Specialty: specialty, AvailableTimes: slots}
	if err := f.repos.Doctors.Create(context.Background(), d); err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	return d
}

func (f *fixture) patient(t *testing.T, name, email, phone string) *models.Patient {
	t.Helper()
	p := &models.Patient{Name: name, Email: email, Phone: phone}
	if err := f.repos.Patients.Create(context.Background(), p); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return p
}

func (f *fixture) admin(t *testing.T, username string) *models.Admin {
	t.Helper()
	a := &models.Admin{Username: username}
	if err := f.repos.Admins.Create(context.Background(), a); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return a
}

func (f *fixture) token(t *testing.T, identifier string, role models.Role) string {
	t.Helper()
	tok, err := f.svc.Tokens.Issue(identifier, role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// seedAppointment stores an appointment directly, bypassing validation.
func (f *fixture) seedAppointment(t *testing.T, d *models.Doctor, p *models.Patient, start time.Time, status models.AppointmentStatus) *models.Appointment {
	t.Helper()
	a := &models.Appointment{
		DoctorID:    d.ID,
		DoctorName:  d.Name,
		PatientID:   p.ID,
		PatientName: p.Name,
		StartTime:   start,
		Status:      status,
	}
	if err := f.repos.Appointments.Create(context.Background(), a); err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return a
}

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 6, day, hour, minute, 0, 0, time.UTC)
}

func ids(apts []models.Appointment) []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(apts))
	for i, a := range apts {
		out[i] = a.ID
	}
	return out
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}
