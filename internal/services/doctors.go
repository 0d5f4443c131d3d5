package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/repository"
	"github.com/harentsoaR/clinic-api/internal/utils"
)

// DoctorService is the admin-only doctor directory management.
type DoctorService struct {
	tokens       *TokenService
	accounts     *AccountService
	doctors      repository.DoctorRepository
	appointments repository.AppointmentRepository
	log          zerolog.Logger
}

func NewDoctorService(tokens *TokenService, accounts *AccountService, repos repository.Repositories, log zerolog.Logger) *DoctorService {
	return &DoctorService{
		tokens:       tokens,
		accounts:     accounts,
		doctors:      repos.Doctors,
		appointments: repos.Appointments,
		log:          log.With().Str("component", "doctors").Logger(),
	}
}

// AddDoctor stores d with a hash of password. The email must not belong to
// any existing account.
func (s *DoctorService) AddDoctor(ctx context.Context, token string, d *models.Doctor, password string) error {
	if _, err := s.tokens.Resolve(ctx, token, models.RoleAdmin); err != nil {
		return err
	}
	d.Email = strings.TrimSpace(d.Email)
	taken, err := s.accounts.identifierTaken(ctx, d.Email)
	if err != nil {
		return storageFailure(s.log, "add doctor: identifier", err)
	}
	if taken {
		return ErrAlreadyExists
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	d.ID = primitive.NilObjectID
	d.Password = hash
	if err := s.doctors.Create(ctx, d); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrAlreadyExists
		}
		return storageFailure(s.log, "add doctor: insert", err)
	}
	s.log.Info().Str("doctor_id", d.ID.Hex()).Msg("doctor added")
	return nil
}

// UpdateDoctor replaces the stored doctor. An empty password keeps the
// current one. A renamed doctor is renamed on its appointments too.
func (s *DoctorService) UpdateDoctor(ctx context.Context, token string, d *models.Doctor, password string) error {
	if _, err := s.tokens.Resolve(ctx, token, models.RoleAdmin); err != nil {
		return err
	}
	current, err := s.doctors.GetByID(ctx, d.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storageFailure(s.log, "update doctor: load", err)
	}

	d.Email = strings.TrimSpace(d.Email)
	if d.Email != current.Email {
		taken, err := s.accounts.identifierTaken(ctx, d.Email)
		if err != nil {
			return storageFailure(s.log, "update doctor: identifier", err)
		}
		if taken {
			return ErrAlreadyExists
		}
	}

	d.Password = current.Password
	if password != "" {
		if d.Password, err = utils.HashPassword(password); err != nil {
			return err
		}
	}

	if err := s.doctors.Update(ctx, d); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return ErrAlreadyExists
		}
		return storageFailure(s.log, "update doctor: replace", err)
	}
	if d.Name != current.Name {
		if err := s.appointments.RenameDoctor(ctx, d.ID, d.Name); err != nil {
			return storageFailure(s.log, "update doctor: rename appointments", err)
		}
	}
	return nil
}

// DeleteDoctor removes the doctor's appointments, then the doctor.
func (s *DoctorService) DeleteDoctor(ctx context.Context, token string, id primitive.ObjectID) error {
	if _, err := s.tokens.Resolve(ctx, token, models.RoleAdmin); err != nil {
		return err
	}
	exists, err := s.doctors.ExistsByID(ctx, id)
	if err != nil {
		return storageFailure(s.log, "delete doctor: exists", err)
	}
	if !exists {
		return ErrNotFound
	}
	if err := s.appointments.DeleteByDoctorID(ctx, id); err != nil {
		return storageFailure(s.log, "delete doctor: appointments", err)
	}
	if err := s.doctors.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return storageFailure(s.log, "delete doctor: doctor", err)
	}
	s.log.Info().Str("doctor_id", id.Hex()).Msg("doctor deleted")
	return nil
}
