package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/models"
)

func TestValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lee := f.doctor(t, "Dr. Lee", "lee@clinic.test", "Cardiology", "09:00-10:00", "10:00-11:00")
	ann := f.patient(t, "Ann", "ann@mail.test", "5550000001")
	booked := f.seedAppointment(t, lee, ann, at(1, 9, 0), models.StatusScheduled)

	tests := []struct {
		name string
		apt  models.Appointment
		want ValidationResult
	}{
		{"free slot", models.Appointment{DoctorID: lee.ID, StartTime: at(1, 10, 0)}, Valid},
		{"booked slot", models.Appointment{DoctorID: lee.ID, StartTime: at(1, 9, 0)}, SlotUnavailable},
		{"off template", models.Appointment{DoctorID: lee.ID, StartTime: at(1, 9, 30)}, SlotUnavailable},
		{"not a slot start", models.Appointment{DoctorID: lee.ID, StartTime: at(1, 11, 0)}, SlotUnavailable},
		{"fraction past the boundary", models.Appointment{DoctorID: lee.ID, StartTime: at(1, 10, 0).Add(500 * time.Millisecond)}, SlotUnavailable},
		{"unknown doctor", models.Appointment{DoctorID: primitive.NewObjectID(), StartTime: at(1, 10, 0)}, DoctorNotFound},
		{"own slot", models.Appointment{ID: booked.ID, DoctorID: lee.ID, StartTime: at(1, 9, 0)}, Valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.Booking.Validate(ctx, &tt.apt)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Validate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBookingFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lee := f.doctor(t, "Dr. Lee", "lee@clinic.test", "Cardiology", "09:00-10:00", "10:00-11:00")
	ann := f.patient(t, "Ann", "ann@mail.test", "5550000001")
	bo := f.patient(t, "Bo", "bo@mail.test", "5550000002")
	f.seedAppointment(t, lee, ann, at(1, 9, 0), models.StatusScheduled)
	tok := f.token(t, bo.Email, models.RolePatient)

	if _, err := f.svc.Booking.Book(ctx, tok, lee.ID, at(1, 9, 0)); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("booking a taken slot: got %v, want ErrSlotUnavailable", err)
	}

	apt, err := f.svc.Booking.Book(ctx, tok, lee.ID, at(1, 10, 0))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if apt.DoctorName != "Dr. Lee" || apt.PatientID != bo.ID || apt.PatientName != "Bo" || apt.Status != models.StatusScheduled {
		t.Errorf("unexpected appointment %+v", apt)
	}
	if !apt.EndTime().Equal(at(1, 11, 0)) {
		t.Errorf("EndTime = %v", apt.EndTime())
	}

	free, err := f.svc.Availability.Availability(ctx, lee.ID, at(1, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(free) != 0 {
		t.Errorf("after both bookings availability = %v, want none", free)
	}
	if len(f.notifier.booked) != 1 || f.notifier.booked[0].ID != apt.ID {
		t.Errorf("notifier saw %v", f.notifier.booked)
	}
}

func TestBookRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lee := f.doctor(t, "Dr. Lee", "lee@clinic.test", "Cardiology", "09:00-10:00")
	ann := f.patient(t, "Ann", "ann@mail.test", "5550000001")
	patientTok := f.token(t, ann.Email, models.RolePatient)
	doctorTok := f.token(t, lee.Email, models.RoleDoctor)

	tests := []struct {
		name   string
		token  string
		doctor primitive.ObjectID
		start  string
		want   error
	}{
		{"bad token", "nope", lee.ID, "2025-06-01T09:00:00Z", ErrInvalidToken},
		{"doctor token", doctorTok, lee.ID, "2025-06-01T09:00:00Z", ErrInvalidToken},
		{"unknown doctor", patientTok, primitive.NewObjectID(), "2025-06-01T09:00:00Z", ErrNotFound},
		{"in the past", patientTok, lee.ID, "2025-05-29T09:00:00Z", ErrInvalidInput},
		{"off the slot boundary", patientTok, lee.ID, "2025-06-01T09:00:00.5Z", ErrSlotUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := mustParse(t, tt.start)
			if _, err := f.svc.Booking.Book(ctx, tt.token, tt.doctor, start); !errors.Is(err, tt.want) {
				t.Errorf("Book = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConcurrentBookingsOfOneSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lee := f.doctor(t, "Dr. Lee", "lee@clinic.test", "Cardiology", "09:00-10:00")

	const n = 8
	tokens := make([]string, n)
	for i := range tokens {
		p := f.patient(t, fmt.Sprintf("P%d", i), fmt.Sprintf("p%d@mail.test", i), fmt.Sprintf("555%07d", i))
		tokens[i] = f.token(t, p.Email, models.RolePatient)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		booked  int
		refused int
	)
	for _, tok := range tokens {
		wg.Add(1)
		go func(tok string) {
			defer wg.Done()
			_, err := f.svc.Booking.Book(ctx, tok, lee.ID, at(1, 9, 0))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				booked++
			case errors.Is(err, ErrSlotUnavailable):
				refused++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}(tok)
	}
	wg.Wait()

	if booked != 1 || refused != n-1 {
		t.Fatalf("booked=%d refused=%d, want 1 and %d", booked, refused, n-1)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lee := f.doctor(t, "Dr. Lee", "lee@clinic.test", "Cardiology", "09:00-10:00")
	ann := f.patient(t, "Ann", "ann@mail.test", "5550000001")
	bo := f.patient(t, "Bo", "bo@mail.test", "5550000002")
	apt := f.seedAppointment(t, lee, ann, at(1, 9, 0), models.StatusScheduled)

	t.Run("invalid token leaves it alone", func(t *testing.T) {
		if err := f.svc.Booking.Cancel(ctx, "garbage", apt.ID); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Cancel = %v, want ErrInvalidToken", err)
		}
		stored, err := f.repos.Appointments.GetByID(ctx, apt.ID)
		if err != nil || stored.Status != models.StatusScheduled {
			t.Fatalf("appointment changed: %+v, %v", stored, err)
		}
	})

	t.Run("other patient sees not found", func(t *testing.T) {
		err := f.svc.Booking.Cancel(ctx, f.token(t, bo.Email, models.RolePatient), apt.ID)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Cancel = %v, want ErrNotFound", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		err := f.svc.Booking.Cancel(ctx, f.token(t, ann.Email, models.RolePatient), primitive.NewObjectID())
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Cancel = %v, want ErrNotFound", err)
		}
	})

	t.Run("owner cancels", func(t *testing.T) {
		tok := f.token(t, ann.Email, models.RolePatient)
		if err := f.svc.Booking.Cancel(ctx, tok, apt.ID); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		stored, _ := f.repos.Appointments.GetByID(ctx, apt.ID)
		if stored.Status != models.StatusCancelled {
			t.Errorf("status = %v, want cancelled", stored.Status)
		}
		free, _ := f.svc.Availability.Availability(ctx, lee.ID, at(1, 0, 0))
		if !reflect.DeepEqual(free, []string{"09:00-10:00"}) {
			t.Errorf("slot not released: %v", free)
		}
		if err := f.svc.Booking.Cancel(ctx, tok, apt.ID); err != nil {
			t.Errorf("second cancel: %v", err)
		}
		if len(f.notifier.cancelled) != 1 {
			t.Errorf("cancel notifications = %d, want 1", len(f.notifier.cancelled))
		}
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	setup := func(t *testing.T) (*fixture, *models.Doctor, *models.Patient, *models.Appointment, *models.Appointment) {
		f := newFixture(t)
		lee := f.doctor(t, "Dr. Lee", "lee@clinic.test", "Cardiology", "09:00-10:00", "10:00-11:00", "11:00-12:00")
		ann := f.patient(t, "Ann", "ann@mail.test", "5550000001")
		bo := f.patient(t, "Bo", "bo@mail.test", "5550000002")
		mine := f.seedAppointment(t, lee, ann, at(1, 9, 0), models.StatusScheduled)
		theirs := f.seedAppointment(t, lee, bo, at(1, 10, 0), models.StatusScheduled)
		return f, lee, ann, mine, theirs
	}

	t.Run("move onto a taken slot fails and leaves the record", func(t *testing.T) {
		f, _, ann, mine, _ := setup(t)
		tok := f.token(t, ann.Email, models.RolePatient)
		_, err := f.svc.Booking.Update(ctx, tok, UpdateRequest{ID: mine.ID, StartTime: at(1, 10, 0)})
		if !errors.Is(err, ErrSlotUnavailable) {
			t.Fatalf("Update = %v, want ErrSlotUnavailable", err)
		}
		stored, _ := f.repos.Appointments.GetByID(ctx, mine.ID)
		if !stored.StartTime.Equal(at(1, 9, 0)) {
			t.Errorf("start moved to %v", stored.StartTime)
		}
	})

	t.Run("keeping the same time is valid", func(t *testing.T) {
		f, _, ann, mine, _ := setup(t)
		tok := f.token(t, ann.Email, models.RolePatient)
		if _, err := f.svc.Booking.Update(ctx, tok, UpdateRequest{ID: mine.ID, StartTime: at(1, 9, 0)}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	})

	t.Run("move to a free slot", func(t *testing.T) {
		f, lee, ann, mine, _ := setup(t)
		tok := f.token(t, ann.Email, models.RolePatient)
		got, err := f.svc.Booking.Update(ctx, tok, UpdateRequest{ID: mine.ID, StartTime: at(1, 11, 0)})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if !got.StartTime.Equal(at(1, 11, 0)) {
			t.Errorf("start = %v", got.StartTime)
		}
		free, _ := f.svc.Availability.Availability(ctx, lee.ID, at(1, 0, 0))
		if !reflect.DeepEqual(free, []string{"09:00-10:00"}) {
			t.Errorf("availability = %v", free)
		}
	})

	t.Run("patient cannot change status", func(t *testing.T) {
		f, _, ann, mine, _ := setup(t)
		done := models.StatusCompleted
		tok := f.token(t, ann.Email, models.RolePatient)
		if _, err := f.svc.Booking.Update(ctx, tok, UpdateRequest{ID: mine.ID, Status: &done}); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Update = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("doctor completes", func(t *testing.T) {
		f, lee, _, mine, _ := setup(t)
		done := models.StatusCompleted
		tok := f.token(t, lee.Email, models.RoleDoctor)
		got, err := f.svc.Booking.Update(ctx, tok, UpdateRequest{ID: mine.ID, Status: &done})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.Status != models.StatusCompleted {
			t.Errorf("status = %v", got.Status)
		}
	})

	t.Run("reopening a past appointment fails", func(t *testing.T) {
		f, lee, ann, _, _ := setup(t)
		old := f.seedAppointment(t, lee, ann, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC), models.StatusCancelled)
		scheduled := models.StatusScheduled
		tok := f.token(t, lee.Email, models.RoleDoctor)
		if _, err := f.svc.Booking.Update(ctx, tok, UpdateRequest{ID: old.ID, Status: &scheduled}); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Update = %v, want ErrInvalidInput", err)
		}
		stored, _ := f.repos.Appointments.GetByID(ctx, old.ID)
		if stored.Status != models.StatusCancelled {
			t.Errorf("status = %v, want cancelled", stored.Status)
		}
	})

	t.Run("other patient sees not found", func(t *testing.T) {
		f, _, ann, _, theirs := setup(t)
		tok := f.token(t, ann.Email, models.RolePatient)
		if _, err := f.svc.Booking.Update(ctx, tok, UpdateRequest{ID: theirs.ID, StartTime: at(1, 11, 0)}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Update = %v, want ErrNotFound", err)
		}
	})
}
