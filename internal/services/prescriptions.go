package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/repository"
)

type PrescriptionService struct {
	tokens        *TokenService
	appointments  repository.AppointmentRepository
	prescriptions repository.PrescriptionRepository
	log           zerolog.Logger
}

func NewPrescriptionService(tokens *TokenService, repos repository.Repositories, log zerolog.Logger) *PrescriptionService {
	return &PrescriptionService{
		tokens:        tokens,
		appointments:  repos.Appointments,
		prescriptions: repos.Prescriptions,
		log:           log.With().Str("component", "prescriptions").Logger(),
	}
}

// Save stores a prescription written by the doctor of the referenced appointment.
func (s *PrescriptionService) Save(ctx context.Context, token string, p *models.Prescription) error {
	caller, err := s.tokens.Resolve(ctx, token, models.RoleDoctor)
	if err != nil {
		return err
	}
	apt, err := s.appointments.GetByID(ctx, p.AppointmentID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storageFailure(s.log, "save prescription: load appointment", err)
	}
	if apt.DoctorID != caller.ID {
		return ErrNotFound
	}

	p.ID = primitive.NilObjectID
	if err := s.prescriptions.Create(ctx, p); err != nil {
		return storageFailure(s.log, "save prescription: insert", err)
	}
	return nil
}

func (s *PrescriptionService) ForAppointment(ctx context.Context, token string, appointmentID primitive.ObjectID) ([]models.Prescription, error) {
	if _, err := s.tokens.Resolve(ctx, token, models.RoleDoctor); err != nil {
		return nil, err
	}
	out, err := s.prescriptions.FindByAppointmentID(ctx, appointmentID)
	if err != nil {
		return nil, storageFailure(s.log, "load prescriptions", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}
