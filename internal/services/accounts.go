package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/repository"
	"github.com/harentsoaR/clinic-api/internal/utils"
)

// AccountService handles logins, patient registration and admin seeding.
// Identifiers are unique across roles: an email held by a doctor cannot be
// registered by a patient and neither may reuse an admin username.
type AccountService struct {
	tokens   *TokenService
	admins   repository.AdminRepository
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	log      zerolog.Logger
}

func NewAccountService(tokens *TokenService, repos repository.Repositories, log zerolog.Logger) *AccountService {
	return &AccountService{
		tokens:   tokens,
		admins:   repos.Admins,
		doctors:  repos.Doctors,
		patients: repos.Patients,
		log:      log.With().Str("component", "accounts").Logger(),
	}
}

// identifierTaken reports whether any role already owns identifier.
func (s *AccountService) identifierTaken(ctx context.Context, identifier string) (bool, error) {
	probes := []func() error{
		func() error { _, err := s.admins.FindByUsername(ctx, identifier); return err },
		func() error { _, err := s.doctors.FindByEmail(ctx, identifier); return err },
		func() error { _, err := s.patients.FindByEmail(ctx, identifier); return err },
	}
	for _, probe := range probes {
		err := probe()
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return false, err
		}
	}
	return false, nil
}

func (s *AccountService) login(identifier, hash, password string, role models.Role) (string, error) {
	if !utils.CheckPasswordHash(password, hash) {
		return "", ErrInvalidCredentials
	}
	tok, err := s.tokens.Issue(identifier, role)
	if err != nil {
		s.log.Error().Err(err).Str("role", role.String()).Msg("could not sign token")
		return "", err
	}
	return tok, nil
}

func (s *AccountService) AdminLogin(ctx context.Context, username, password string) (string, error) {
	a, err := s.admins.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", storageFailure(s.log, "admin login", err)
	}
	return s.login(a.Username, a.Password, password, models.RoleAdmin)
}

func (s *AccountService) DoctorLogin(ctx context.Context, email, password string) (string, error) {
	d, err := s.doctors.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", storageFailure(s.log, "doctor login", err)
	}
	return s.login(d.Email, d.Password, password, models.RoleDoctor)
}

func (s *AccountService) PatientLogin(ctx context.Context, email, password string) (string, error) {
	p, err := s.patients.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", storageFailure(s.log, "patient login", err)
	}
	return s.login(p.Email, p.Password, password, models.RolePatient)
}

// RegisterPatient stores p with a hash of password. A patient sharing the
// email or the phone, or any account owning the email, is ErrAlreadyExists.
func (s *AccountService) RegisterPatient(ctx context.Context, p *models.Patient, password string) error {
	p.Email = strings.TrimSpace(p.Email)
	_, err := s.patients.FindByEmailOrPhone(ctx, p.Email, p.Phone)
	if err == nil {
		return ErrAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return storageFailure(s.log, "register patient: lookup", err)
	}
	taken, err := s.identifierTaken(ctx, p.Email)
	if err != nil {
		return storageFailure(s.log, "register patient: identifier", err)
	}
	if taken {
		return ErrAlreadyExists
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	p.Password = hash
	if err := s.patients.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrAlreadyExists
		}
		return storageFailure(s.log, "register patient: insert", err)
	}
	s.log.Info().Str("patient_id", p.ID.Hex()).Msg("patient registered")
	return nil
}

func (s *AccountService) PatientDetails(ctx context.Context, token string) (*models.Patient, error) {
	caller, err := s.tokens.Resolve(ctx, token, models.RolePatient)
	if err != nil {
		return nil, err
	}
	return caller.Patient, nil
}

// SeedAdmin creates an admin account. It backs the seed-admin command.
func (s *AccountService) SeedAdmin(ctx context.Context, username, password string) (*models.Admin, error) {
	taken, err := s.identifierTaken(ctx, username)
	if err != nil {
		return nil, storageFailure(s.log, "seed admin: identifier", err)
	}
	if taken {
		return nil, ErrAlreadyExists
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	a := &models.Admin{Username: username, Password: hash}
	if err := s.admins.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyExists
		}
		return nil, storageFailure(s.log, "seed admin: insert", err)
	}
	return a, nil
}
