// Package memory keeps every repository in process memory. It backs the
// `serve --memory` mode and the service and handler tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/repository"
)

func New() repository.Repositories {
	return repository.Repositories{
		Doctors:       &Doctors{},
		Patients:      &Patients{},
		Admins:        &Admins{},
		Appointments:  &Appointments{},
		Prescriptions: &Prescriptions{},
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

type Doctors struct {
	mu   sync.RWMutex
	rows []models.Doctor
}

func cloneDoctor(d models.Doctor) models.Doctor {
	d.AvailableTimes = slices.Clone(d.AvailableTimes)
	return d
}

func (r *Doctors) filter(keep func(models.Doctor) bool) []models.Doctor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Doctor, 0)
	for _, d := range r.rows {
		if keep(d) {
			out = append(out, cloneDoctor(d))
		}
	}
	return out
}

func (r *Doctors) first(match func(models.Doctor) bool) (*models.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.rows {
		if match(d) {
			c := cloneDoctor(d)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Doctors) GetByID(_ context.Context, id primitive.ObjectID) (*models.Doctor, error) {
	return r.first(func(d models.Doctor) bool { return d.ID == id })
}

func (r *Doctors) ExistsByID(ctx context.Context, id primitive.ObjectID) (bool, error) {
	_, err := r.GetByID(ctx, id)
	return err == nil, nil
}

func (r *Doctors) FindByEmail(_ context.Context, email string) (*models.Doctor, error) {
	return r.first(func(d models.Doctor) bool { return d.Email == email })
}

func (r *Doctors) FindAll(context.Context) ([]models.Doctor, error) {
	return r.filter(func(models.Doctor) bool { return true }), nil
}

func (r *Doctors) FindByNameLike(_ context.Context, name string) ([]models.Doctor, error) {
	return r.filter(func(d models.Doctor) bool { return containsFold(d.Name, name) }), nil
}

func (r *Doctors) FindBySpecialty(_ context.Context, specialty string) ([]models.Doctor, error) {
	return r.filter(func(d models.Doctor) bool { return strings.EqualFold(d.Specialty, specialty) }), nil
}

func (r *Doctors) FindByNameAndSpecialty(_ context.Context, name, specialty string) ([]models.Doctor, error) {
	return r.filter(func(d models.Doctor) bool {
		return containsFold(d.Name, name) && strings.EqualFold(d.Specialty, specialty)
	}), nil
}

func (r *Doctors) Create(_ context.Context, d *models.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Email == d.Email {
			return repository.ErrDuplicate
		}
	}
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	r.rows = append(r.rows, cloneDoctor(*d))
	return nil
}

func (r *Doctors) Update(_ context.Context, d *models.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i, existing := range r.rows {
		if existing.ID == d.ID {
			idx = i
		} else if existing.Email == d.Email {
			return repository.ErrDuplicate
		}
	}
	if idx < 0 {
		return repository.ErrNotFound
	}
	r.rows[idx] = cloneDoctor(*d)
	return nil
}

func (r *Doctors) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.rows {
		if d.ID == id {
			r.rows = slices.Delete(r.rows, i, i+1)
			return nil
		}
	}
	return repository.ErrNotFound
}

type Patients struct {
	mu   sync.RWMutex
	rows []models.Patient
}

func (r *Patients) first(match func(models.Patient) bool) (*models.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.rows {
		if match(p) {
			c := p
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Patients) GetByID(_ context.Context, id primitive.ObjectID) (*models.Patient, error) {
	return r.first(func(p models.Patient) bool { return p.ID == id })
}

func (r *Patients) FindByEmail(_ context.Context, email string) (*models.Patient, error) {
	return r.first(func(p models.Patient) bool { return p.Email == email })
}

func (r *Patients) FindByEmailOrPhone(_ context.Context, email, phone string) (*models.Patient, error) {
	return r.first(func(p models.Patient) bool { return p.Email == email || p.Phone == phone })
}

func (r *Patients) Create(_ context.Context, p *models.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Email == p.Email || (p.Phone != "" && existing.Phone == p.Phone) {
			return repository.ErrDuplicate
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.rows = append(r.rows, *p)
	return nil
}

type Admins struct {
	mu   sync.RWMutex
	rows []models.Admin
}

func (r *Admins) FindByUsername(_ context.Context, username string) (*models.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.rows {
		if a.Username == username {
			c := a
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Admins) Create(_ context.Context, a *models.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Username == a.Username {
			return repository.ErrDuplicate
		}
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	r.rows = append(r.rows, *a)
	return nil
}

// Appointments enforces the same one-active-appointment-per-doctor-slot rule
// as the partial unique index in Mongo, under a single lock.
type Appointments struct {
	mu   sync.RWMutex
	rows []models.Appointment
}

func (r *Appointments) slotTaken(a *models.Appointment) bool {
	if !a.Status.Active() {
		return false
	}
	for _, existing := range r.rows {
		if existing.ID != a.ID &&
			existing.DoctorID == a.DoctorID &&
			existing.Status.Active() &&
			existing.StartTime.Equal(a.StartTime) {
			return true
		}
	}
	return false
}

func (r *Appointments) Create(_ context.Context, a *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slotTaken(a) {
		return repository.ErrSlotTaken
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	r.rows = append(r.rows, *a)
	return nil
}

func (r *Appointments) GetByID(_ context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.rows {
		if a.ID == id {
			c := a
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Appointments) Update(_ context.Context, a *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID != a.ID {
			continue
		}
		if r.slotTaken(a) {
			return repository.ErrSlotTaken
		}
		r.rows[i] = *a
		return nil
	}
	return repository.ErrNotFound
}

func (r *Appointments) DeleteByDoctorID(_ context.Context, doctorID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = slices.DeleteFunc(r.rows, func(a models.Appointment) bool { return a.DoctorID == doctorID })
	return nil
}

func (r *Appointments) RenameDoctor(_ context.Context, doctorID primitive.ObjectID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].DoctorID == doctorID {
			r.rows[i].DoctorName = name
		}
	}
	return nil
}

func (r *Appointments) filter(keep func(models.Appointment) bool, sorted bool) []models.Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Appointment, 0)
	for _, a := range r.rows {
		if keep(a) {
			out = append(out, a)
		}
	}
	if sorted {
		sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	}
	return out
}

func (r *Appointments) FindActiveByDoctorAndRange(_ context.Context, doctorID primitive.ObjectID, from, to time.Time) ([]models.Appointment, error) {
	return r.filter(func(a models.Appointment) bool {
		return a.DoctorID == doctorID && a.Status.Active() &&
			!a.StartTime.Before(from) && !a.StartTime.After(to)
	}, true), nil
}

func (r *Appointments) FindByPatientID(_ context.Context, patientID primitive.ObjectID) ([]models.Appointment, error) {
	return r.filter(func(a models.Appointment) bool { return a.PatientID == patientID }, false), nil
}

func (r *Appointments) FindByPatientAndStatus(_ context.Context, patientID primitive.ObjectID, status models.AppointmentStatus) ([]models.Appointment, error) {
	return r.filter(func(a models.Appointment) bool {
		return a.PatientID == patientID && a.Status == status
	}, true), nil
}

func (r *Appointments) FindByDoctorNameAndPatient(_ context.Context, doctorName string, patientID primitive.ObjectID) ([]models.Appointment, error) {
	return r.filter(func(a models.Appointment) bool {
		return a.PatientID == patientID && containsFold(a.DoctorName, doctorName)
	}, false), nil
}

func (r *Appointments) FindByDoctorNameAndPatientAndStatus(_ context.Context, doctorName string, patientID primitive.ObjectID, status models.AppointmentStatus) ([]models.Appointment, error) {
	return r.filter(func(a models.Appointment) bool {
		return a.PatientID == patientID && a.Status == status && containsFold(a.DoctorName, doctorName)
	}, false), nil
}

type Prescriptions struct {
	mu   sync.RWMutex
	rows []models.Prescription
}

func (r *Prescriptions) Create(_ context.Context, p *models.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.rows = append(r.rows, *p)
	return nil
}

func (r *Prescriptions) FindByAppointmentID(_ context.Context, appointmentID primitive.ObjectID) ([]models.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Prescription, 0)
	for _, p := range r.rows {
		if p.AppointmentID == appointmentID {
			out = append(out, p)
		}
	}
	return out, nil
}
