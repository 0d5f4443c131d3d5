package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/repository"
)

// AppointmentFilter narrows a patient's appointments. Empty fields match
// everything.
type AppointmentFilter struct {
	DoctorName string
	Status     *models.AppointmentStatus
}

// DoctorFilter narrows the doctor directory. Name is a case-insensitive
// substring, Specialty an exact case-insensitive match and TimeOfDay is "AM"
// or "PM". Empty fields match everything.
type DoctorFilter struct {
	Name      string
	Specialty string
	TimeOfDay string
}

type QueryService struct {
	tokens       *TokenService
	doctors      repository.DoctorRepository
	appointments repository.AppointmentRepository
	log          zerolog.Logger
}

func NewQueryService(tokens *TokenService, repos repository.Repositories, log zerolog.Logger) *QueryService {
	return &QueryService{
		tokens:       tokens,
		doctors:      repos.Doctors,
		appointments: repos.Appointments,
		log:          log.With().Str("component", "query").Logger(),
	}
}

func (s *QueryService) List(ctx context.Context, patientID primitive.ObjectID) ([]models.Appointment, error) {
	out, err := s.appointments.FindByPatientID(ctx, patientID)
	if err != nil {
		return nil, storageFailure(s.log, "list appointments", err)
	}
	return out, nil
}

func (s *QueryService) ListByStatusOrdered(ctx context.Context, patientID primitive.ObjectID, status models.AppointmentStatus) ([]models.Appointment, error) {
	out, err := s.appointments.FindByPatientAndStatus(ctx, patientID, status)
	if err != nil {
		return nil, storageFailure(s.log, "list appointments by status", err)
	}
	return out, nil
}

func (s *QueryService) FilterByDoctorName(ctx context.Context, name string, patientID primitive.ObjectID) ([]models.Appointment, error) {
	out, err := s.appointments.FindByDoctorNameAndPatient(ctx, name, patientID)
	if err != nil {
		return nil, storageFailure(s.log, "filter appointments by doctor", err)
	}
	return out, nil
}

func (s *QueryService) FilterByDoctorNameAndStatus(ctx context.Context, name string, patientID primitive.ObjectID, status models.AppointmentStatus) ([]models.Appointment, error) {
	out, err := s.appointments.FindByDoctorNameAndPatientAndStatus(ctx, name, patientID, status)
	if err != nil {
		return nil, storageFailure(s.log, "filter appointments by doctor and status", err)
	}
	return out, nil
}

// PatientAppointments resolves the calling patient and picks the query that
// matches whichever filter fields are set.
func (s *QueryService) PatientAppointments(ctx context.Context, token string, f AppointmentFilter) ([]models.Appointment, error) {
	caller, err := s.tokens.Resolve(ctx, token, models.RolePatient)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(f.DoctorName)
	switch {
	case name != "" && f.Status != nil:
		return s.FilterByDoctorNameAndStatus(ctx, name, caller.ID, *f.Status)
	case f.Status != nil:
		return s.ListByStatusOrdered(ctx, caller.ID, *f.Status)
	case name != "":
		return s.FilterByDoctorName(ctx, name, caller.ID)
	default:
		return s.List(ctx, caller.ID)
	}
}

// AppointmentsOfPatient lists patientID's appointments for that same patient.
// A token for anyone else is rejected.
func (s *QueryService) AppointmentsOfPatient(ctx context.Context, token string, patientID primitive.ObjectID) ([]models.Appointment, error) {
	caller, err := s.tokens.Resolve(ctx, token, models.RolePatient)
	if err != nil {
		return nil, err
	}
	if caller.ID != patientID {
		return nil, ErrInvalidToken
	}
	return s.List(ctx, patientID)
}

// DoctorAppointments lists the calling doctor's active appointments on date,
// optionally narrowed to patients whose name contains patientName.
func (s *QueryService) DoctorAppointments(ctx context.Context, token string, date time.Time, patientName string) ([]models.Appointment, error) {
	caller, err := s.tokens.Resolve(ctx, token, models.RoleDoctor)
	if err != nil {
		return nil, err
	}
	from, to := DayBounds(date)
	all, err := s.appointments.FindActiveByDoctorAndRange(ctx, caller.ID, from, to)
	if err != nil {
		return nil, storageFailure(s.log, "doctor appointments", err)
	}
	patientName = strings.ToLower(strings.TrimSpace(patientName))
	if patientName == "" {
		return all, nil
	}
	out := make([]models.Appointment, 0, len(all))
	for _, a := range all {
		if strings.Contains(strings.ToLower(a.PatientName), patientName) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *QueryService) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	out, err := s.doctors.FindAll(ctx)
	if err != nil {
		return nil, storageFailure(s.log, "list doctors", err)
	}
	return out, nil
}

// FilterDoctors picks the directory query for the name/specialty fields that
// are set, then keeps doctors with at least one slot in the requested half
// of the day.
func (s *QueryService) FilterDoctors(ctx context.Context, f DoctorFilter) ([]models.Doctor, error) {
	name := strings.TrimSpace(f.Name)
	specialty := strings.TrimSpace(f.Specialty)
	period := strings.ToUpper(strings.TrimSpace(f.TimeOfDay))
	if period != "" && period != "AM" && period != "PM" {
		return nil, invalidInput("time of day must be AM or PM, got %q", f.TimeOfDay)
	}

	var (
		doctors []models.Doctor
		err     error
	)
	switch {
	case name != "" && specialty != "":
		doctors, err = s.doctors.FindByNameAndSpecialty(ctx, name, specialty)
	case name != "":
		doctors, err = s.doctors.FindByNameLike(ctx, name)
	case specialty != "":
		doctors, err = s.doctors.FindBySpecialty(ctx, specialty)
	default:
		doctors, err = s.doctors.FindAll(ctx)
	}
	if err != nil {
		return nil, storageFailure(s.log, "filter doctors", err)
	}
	if period == "" {
		return doctors, nil
	}
	return filterByPeriod(doctors, period == "AM"), nil
}

func filterByPeriod(doctors []models.Doctor, morning bool) []models.Doctor {
	out := make([]models.Doctor, 0, len(doctors))
	for _, d := range doctors {
		for _, slot := range d.AvailableTimes {
			hour, ok := models.SlotStartHour(slot)
			if ok && (hour < 12) == morning {
				out = append(out, d)
				break
			}
		}
	}
	return out
}
