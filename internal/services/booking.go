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

type ValidationResult int

const (
	Valid ValidationResult = iota
	DoctorNotFound
	SlotUnavailable
)

func (r ValidationResult) String() string {
	switch r {
	case Valid:
		return "valid"
	case DoctorNotFound:
		return "doctor not found"
	case SlotUnavailable:
		return "slot unavailable"
	}
	return "unknown"
}

// Notifier is told about bookings and cancellations after they are stored.
type Notifier interface {
	AppointmentBooked(patient *models.Patient, apt *models.Appointment)
	AppointmentCancelled(patient *models.Patient, apt *models.Appointment)
}

type BookingService struct {
	tokens       *TokenService
	availability *AvailabilityService
	doctors      repository.DoctorRepository
	patients     repository.PatientRepository
	appointments repository.AppointmentRepository
	notifier     Notifier
	log          zerolog.Logger

	// Now is the clock used to reject bookings in the past.
	Now func() time.Time
}

func NewBookingService(tokens *TokenService, availability *AvailabilityService, repos repository.Repositories, notifier Notifier, log zerolog.Logger) *BookingService {
	return &BookingService{
		tokens:       tokens,
		availability: availability,
		doctors:      repos.Doctors,
		patients:     repos.Patients,
		appointments: repos.Appointments,
		notifier:     notifier,
		log:          log.With().Str("component", "booking").Logger(),
		Now:          time.Now,
	}
}

// Validate checks that a's doctor exists and that a.StartTime lands exactly on
// one of that doctor's free slot starts for the day. The appointment itself
// (matched by ID) never counts as occupying its own slot.
func (s *BookingService) Validate(ctx context.Context, a *models.Appointment) (ValidationResult, error) {
	exists, err := s.doctors.ExistsByID(ctx, a.DoctorID)
	if err != nil {
		return 0, storageFailure(s.log, "validate: doctor exists", err)
	}
	if !exists {
		return DoctorNotFound, nil
	}

	start := a.StartTime.UTC()
	if start.Nanosecond() != 0 {
		return SlotUnavailable, nil
	}
	free, err := s.availability.free(ctx, a.DoctorID, start, a.ID)
	if err != nil {
		return 0, err
	}
	want := models.TimeOfDay(start)
	for _, slot := range free {
		if models.SlotStart(slot) == want {
			return Valid, nil
		}
	}
	return SlotUnavailable, nil
}

func (s *BookingService) validateOrFail(ctx context.Context, a *models.Appointment) error {
	res, err := s.Validate(ctx, a)
	if err != nil {
		return err
	}
	switch res {
	case Valid:
		return nil
	case DoctorNotFound:
		return ErrNotFound
	case SlotUnavailable:
		return ErrSlotUnavailable
	}
	return ErrSlotUnavailable
}

func (s *BookingService) requireFuture(start time.Time) error {
	if !start.After(s.Now()) {
		return invalidInput("appointment time must be in the future")
	}
	return nil
}

// Book validates and stores a new scheduled appointment for the calling
// patient. The insert is conditional on the slot still being free, so two
// racing bookings cannot both succeed.
func (s *BookingService) Book(ctx context.Context, token string, doctorID primitive.ObjectID, start time.Time) (*models.Appointment, error) {
	caller, err := s.tokens.Resolve(ctx, token, models.RolePatient)
	if err != nil {
		return nil, err
	}
	start = start.UTC()
	if err := s.requireFuture(start); err != nil {
		return nil, err
	}

	apt := &models.Appointment{
		DoctorID:    doctorID,
		PatientID:   caller.ID,
		PatientName: caller.Patient.Name,
		StartTime:   start,
		Status:      models.StatusScheduled,
	}
	if err := s.validateOrFail(ctx, apt); err != nil {
		return nil, err
	}

	doctor, err := s.doctors.GetByID(ctx, doctorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageFailure(s.log, "book: load doctor", err)
	}
	apt.DoctorName = doctor.Name

	if err := s.appointments.Create(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, ErrSlotUnavailable
		}
		return nil, storageFailure(s.log, "book: insert", err)
	}

	s.log.Info().
		Str("appointment_id", apt.ID.Hex()).
		Str("doctor_id", doctorID.Hex()).
		Time("start", start).
		Msg("appointment booked")
	s.notifier.AppointmentBooked(caller.Patient, apt)
	return apt, nil
}

// UpdateRequest carries the proposed state of an existing appointment. Zero
// DoctorID keeps the current doctor; nil Status keeps the current status.
type UpdateRequest struct {
	ID        primitive.ObjectID
	DoctorID  primitive.ObjectID
	StartTime time.Time
	Status    *models.AppointmentStatus
}

// Update re-validates the proposed time before overwriting. On any failure
// the stored appointment is left as it was.
func (s *BookingService) Update(ctx context.Context, token string, req UpdateRequest) (*models.Appointment, error) {
	caller, err := s.tokens.ResolveAny(ctx, token, models.RolePatient, models.RoleDoctor)
	if err != nil {
		return nil, err
	}
	current, err := s.owned(ctx, caller, req.ID)
	if err != nil {
		return nil, err
	}

	if caller.Role == models.RolePatient && req.Status != nil && *req.Status != current.Status {
		return nil, invalidInput("patients cannot change an appointment's status")
	}

	next := *current
	if !req.DoctorID.IsZero() {
		next.DoctorID = req.DoctorID
	}
	if !req.StartTime.IsZero() {
		next.StartTime = req.StartTime.UTC()
	}
	if req.Status != nil {
		next.Status = *req.Status
	}

	moved := next.DoctorID != current.DoctorID || !next.StartTime.Equal(current.StartTime)
	reopened := !current.Status.Active() && next.Status.Active()
	if next.Status.Active() && (moved || reopened) {
		if err := s.requireFuture(next.StartTime); err != nil {
			return nil, err
		}
		if err := s.validateOrFail(ctx, &next); err != nil {
			return nil, err
		}
	}

	if next.DoctorID != current.DoctorID {
		doctor, err := s.doctors.GetByID(ctx, next.DoctorID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, storageFailure(s.log, "update: load doctor", err)
		}
		next.DoctorName = doctor.Name
	}

	if err := s.appointments.Update(ctx, &next); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			return nil, ErrSlotUnavailable
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, storageFailure(s.log, "update: replace", err)
	}
	return &next, nil
}

// Cancel marks an appointment cancelled, freeing its slot. Patients may cancel
// their own appointments, doctors their own, admins any.
func (s *BookingService) Cancel(ctx context.Context, token string, id primitive.ObjectID) error {
	caller, err := s.tokens.ResolveAny(ctx, token, models.RolePatient, models.RoleDoctor, models.RoleAdmin)
	if err != nil {
		return err
	}
	apt, err := s.owned(ctx, caller, id)
	if err != nil {
		return err
	}
	if apt.Status == models.StatusCancelled {
		return nil
	}

	apt.Status = models.StatusCancelled
	if err := s.appointments.Update(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return storageFailure(s.log, "cancel: update", err)
	}
	s.log.Info().Str("appointment_id", id.Hex()).Str("by", caller.Role.String()).Msg("appointment cancelled")

	patient, err := s.patients.GetByID(ctx, apt.PatientID)
	if err == nil {
		s.notifier.AppointmentCancelled(patient, apt)
	}
	return nil
}

// owned loads appointment id if caller may act on it. Appointments of other
// patients or doctors are reported as not found to hide their existence.
func (s *BookingService) owned(ctx context.Context, caller *Principal, id primitive.ObjectID) (*models.Appointment, error) {
	apt, err := s.appointments.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageFailure(s.log, "load appointment", err)
	}

	switch caller.Role {
	case models.RoleAdmin:
		return apt, nil
	case models.RoleDoctor:
		if apt.DoctorID == caller.ID {
			return apt, nil
		}
	case models.RolePatient:
		if apt.PatientID == caller.ID {
			return apt, nil
		}
	}
	return nil, ErrNotFound
}
