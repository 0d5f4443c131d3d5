package services

import (
	"context"
	"errors"
	"slices"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/repository"
	"github.com/harentsoaR/clinic-api/internal/utils"
)

// Principal is the caller behind a verified token. Exactly one of Admin,
// Doctor and Patient is set, matching Role.
type Principal struct {
	Role       models.Role
	Identifier string
	ID         primitive.ObjectID

	Admin   *models.Admin
	Doctor  *models.Doctor
	Patient *models.Patient
}

// TokenService turns bearer tokens into principals. A token is accepted for a
// role only when its signed role claim names that role and the identifier
// still exists in that role's store.
type TokenService struct {
	signer   *utils.TokenSigner
	admins   repository.AdminRepository
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	log      zerolog.Logger
}

func NewTokenService(signer *utils.TokenSigner, repos repository.Repositories, log zerolog.Logger) *TokenService {
	return &TokenService{
		signer:   signer,
		admins:   repos.Admins,
		doctors:  repos.Doctors,
		patients: repos.Patients,
		log:      log.With().Str("component", "tokens").Logger(),
	}
}

// Issue signs a token for identifier, valid for the signer's TTL.
func (s *TokenService) Issue(identifier string, role models.Role) (string, error) {
	return s.signer.GenerateJWT(identifier, role)
}

// Identity returns the identifier a token is bound to. Malformed, expired and
// badly signed tokens all come back as ("", false).
func (s *TokenService) Identity(token string) (string, bool) {
	claims, err := s.signer.ValidateJWT(token)
	if err != nil {
		return "", false
	}
	return claims.Subject, true
}

// Authorize reports whether token is currently valid for role.
func (s *TokenService) Authorize(ctx context.Context, token string, role models.Role) bool {
	_, err := s.Resolve(ctx, token, role)
	return err == nil
}

// Resolve verifies token for role and loads the account it names.
func (s *TokenService) Resolve(ctx context.Context, token string, role models.Role) (*Principal, error) {
	return s.ResolveAny(ctx, token, role)
}

// ResolveAny accepts a token whose role is any of allowed.
func (s *TokenService) ResolveAny(ctx context.Context, token string, allowed ...models.Role) (*Principal, error) {
	claims, err := s.signer.ValidateJWT(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	role, err := models.ParseRole(claims.Role)
	if err != nil || !slices.Contains(allowed, role) {
		return nil, ErrInvalidToken
	}

	p, err := s.lookup(ctx, role, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, storageFailure(s.log, "resolve "+role.String(), err)
	}
	return p, nil
}

func (s *TokenService) lookup(ctx context.Context, role models.Role, identifier string) (*Principal, error) {
	p := &Principal{Role: role, Identifier: identifier}
	switch role {
	case models.RoleAdmin:
		a, err := s.admins.FindByUsername(ctx, identifier)
		if err != nil {
			return nil, err
		}
		p.ID, p.Admin = a.ID, a
	case models.RoleDoctor:
		d, err := s.doctors.FindByEmail(ctx, identifier)
		if err != nil {
			return nil, err
		}
		p.ID, p.Doctor = d.ID, d
	case models.RolePatient:
		pt, err := s.patients.FindByEmail(ctx, identifier)
		if err != nil {
			return nil, err
		}
		p.ID, p.Patient = pt.ID, pt
	default:
		return nil, repository.ErrNotFound
	}
	return p, nil
}
