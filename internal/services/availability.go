package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/repository"
)

// AvailabilityService derives a doctor's free slots for a date from the
// doctor's daily template minus the starts already booked that day.
type AvailabilityService struct {
	tokens       *TokenService
	doctors      repository.DoctorRepository
	appointments repository.AppointmentRepository
	log          zerolog.Logger
}

func NewAvailabilityService(tokens *TokenService, repos repository.Repositories, log zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{
		tokens:       tokens,
		doctors:      repos.Doctors,
		appointments: repos.Appointments,
		log:          log.With().Str("component", "availability").Logger(),
	}
}

// DayBounds returns [00:00:00, 23:59:59] of date's calendar day in UTC.
func DayBounds(date time.Time) (time.Time, time.Time) {
	y, m, d := date.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.Add(24*time.Hour - time.Second)
}

// Availability returns the template slots of doctorID still free on date, in
// template order. An unknown doctor yields an empty list, not an error.
func (s *AvailabilityService) Availability(ctx context.Context, doctorID primitive.ObjectID, date time.Time) ([]string, error) {
	return s.free(ctx, doctorID, date, primitive.NilObjectID)
}

// AvailabilityFor answers Availability for a caller holding a token valid
// for role.
func (s *AvailabilityService) AvailabilityFor(ctx context.Context, token string, role models.Role, doctorID primitive.ObjectID, date time.Time) ([]string, error) {
	if _, err := s.tokens.Resolve(ctx, token, role); err != nil {
		return nil, err
	}
	return s.Availability(ctx, doctorID, date)
}

// free ignores the appointment with id exclude, so an appointment being
// moved does not block its own slot.
func (s *AvailabilityService) free(ctx context.Context, doctorID primitive.ObjectID, date time.Time, exclude primitive.ObjectID) ([]string, error) {
	doctor, err := s.doctors.GetByID(ctx, doctorID)
	if errors.Is(err, repository.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, storageFailure(s.log, "availability: load doctor", err)
	}

	from, to := DayBounds(date)
	booked, err := s.appointments.FindActiveByDoctorAndRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, storageFailure(s.log, "availability: load appointments", err)
	}

	taken := make(map[string]struct{}, len(booked))
	for _, a := range booked {
		if !exclude.IsZero() && a.ID == exclude {
			continue
		}
		taken[models.TimeOfDay(a.StartTime.UTC())] = struct{}{}
	}

	out := make([]string, 0, len(doctor.AvailableTimes))
	for _, slot := range doctor.AvailableTimes {
		if _, ok := taken[models.SlotStart(slot)]; !ok {
			out = append(out, slot)
		}
	}
	return out, nil
}
