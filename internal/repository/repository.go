// Package repository holds the storage contracts the clinic services depend on
// and their MongoDB implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/models"
)

var (
	ErrNotFound  = errors.New("repository: not found")
	ErrDuplicate = errors.New("repository: duplicate key")
	// ErrSlotTaken is returned when an active appointment already holds the
	// same doctor and start time.
	ErrSlotTaken = errors.New("repository: slot already booked")
)

type DoctorRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Doctor, error)
	ExistsByID(ctx context.Context, id primitive.ObjectID) (bool, error)
	FindByEmail(ctx context.Context, email string) (*models.Doctor, error)
	FindAll(ctx context.Context) ([]models.Doctor, error)
	// Name matching is a case-insensitive substring match.
	FindByNameLike(ctx context.Context, name string) ([]models.Doctor, error)
	// Specialty matching is exact, ignoring case.
	FindBySpecialty(ctx context.Context, specialty string) ([]models.Doctor, error)
	FindByNameAndSpecialty(ctx context.Context, name, specialty string) ([]models.Doctor, error)
	Create(ctx context.Context, d *models.Doctor) error
	Update(ctx context.Context, d *models.Doctor) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type PatientRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Patient, error)
	FindByEmail(ctx context.Context, email string) (*models.Patient, error)
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.Patient, error)
	Create(ctx context.Context, p *models.Patient) error
}

type AdminRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	Create(ctx context.Context, a *models.Admin) error
}

type AppointmentRepository interface {
	// Create inserts a and fails with ErrSlotTaken when the doctor already has
	// an active appointment at a.StartTime. The check and the insert are one
	// atomic operation.
	Create(ctx context.Context, a *models.Appointment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	// Update replaces the stored appointment, with the same ErrSlotTaken rule as Create.
	Update(ctx context.Context, a *models.Appointment) error
	DeleteByDoctorID(ctx context.Context, doctorID primitive.ObjectID) error
	RenameDoctor(ctx context.Context, doctorID primitive.ObjectID, name string) error

	// FindActiveByDoctorAndRange returns non-cancelled appointments with
	// start in [from, to], ascending by start.
	FindActiveByDoctorAndRange(ctx context.Context, doctorID primitive.ObjectID, from, to time.Time) ([]models.Appointment, error)
	FindByPatientID(ctx context.Context, patientID primitive.ObjectID) ([]models.Appointment, error)
	// FindByPatientAndStatus orders by start ascending.
	FindByPatientAndStatus(ctx context.Context, patientID primitive.ObjectID, status models.AppointmentStatus) ([]models.Appointment, error)
	FindByDoctorNameAndPatient(ctx context.Context, doctorName string, patientID primitive.ObjectID) ([]models.Appointment, error)
	FindByDoctorNameAndPatientAndStatus(ctx context.Context, doctorName string, patientID primitive.ObjectID, status models.AppointmentStatus) ([]models.Appointment, error)
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *models.Prescription) error
	FindByAppointmentID(ctx context.Context, appointmentID primitive.ObjectID) ([]models.Prescription, error)
}

// Repositories bundles one implementation of every store.
type Repositories struct {
	Doctors       DoctorRepository
	Patients      PatientRepository
	Admins        AdminRepository
	Appointments  AppointmentRepository
	Prescriptions PrescriptionRepository
}
