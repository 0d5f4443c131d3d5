// Package services holds the clinic's domain logic: token resolution, slot
// availability, booking, appointment queries and account management.
package services

import (
	"github.com/rs/zerolog"

	"github.com/harentsoaR/clinic-api/internal/repository"
	"github.com/harentsoaR/clinic-api/internal/utils"
)

// Services is everything the HTTP handlers call into.
type Services struct {
	Tokens        *TokenService
	Availability  *AvailabilityService
	Booking       *BookingService
	Queries       *QueryService
	Accounts      *AccountService
	Doctors       *DoctorService
	Prescriptions *PrescriptionService
}

func New(repos repository.Repositories, signer *utils.TokenSigner, notifier Notifier, log zerolog.Logger) *Services {
	tokens := NewTokenService(signer, repos, log)
	availability := NewAvailabilityService(tokens, repos, log)
	accounts := NewAccountService(tokens, repos, log)
	return &Services{
		Tokens:        tokens,
		Availability:  availability,
		Booking:       NewBookingService(tokens, availability, repos, notifier, log),
		Queries:       NewQueryService(tokens, repos, log),
		Accounts:      accounts,
		Doctors:       NewDoctorService(tokens, accounts, repos, log),
		Prescriptions: NewPrescriptionService(tokens, repos, log),
	}
}
