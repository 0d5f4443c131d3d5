package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AppointmentDuration is fixed; the end of an appointment is always derived.
const AppointmentDuration = time.Hour

type AppointmentStatus int

const (
	StatusScheduled AppointmentStatus = iota
	StatusCompleted
	StatusCancelled
)

func (s AppointmentStatus) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Active reports whether the appointment still holds its slot.
func (s AppointmentStatus) Active() bool {
	return s == StatusScheduled || s == StatusCompleted
}

// ParseStatus understands the status names plus the "past"/"future"
// conditions used by patient filters.
func ParseStatus(s string) (AppointmentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scheduled", "future", "0":
		return StatusScheduled, nil
	case "completed", "past", "1":
		return StatusCompleted, nil
	case "cancelled", "canceled", "2":
		return StatusCancelled, nil
	}
	return 0, fmt.Errorf("unknown appointment status %q", s)
}

type Appointment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DoctorID    primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	DoctorName  string             `bson:"doctorName" json:"doctorName"`
	PatientID   primitive.ObjectID `bson:"patientId" json:"patientId"`
	PatientName string             `bson:"patientName" json:"patientName"`
	StartTime   time.Time          `bson:"startTime" json:"startTime"`
	Status      AppointmentStatus  `bson:"status" json:"status"`
}

func (a Appointment) EndTime() time.Time {
	return a.StartTime.Add(AppointmentDuration)
}

// TimeOfDay formats the start the same way slot descriptors write theirs.
func (a Appointment) TimeOfDay() string {
	return TimeOfDay(a.StartTime)
}

// TimeOfDay renders t as "15:04", or "15:04:05" when seconds are set.
func TimeOfDay(t time.Time) string {
	if t.Second() != 0 {
		return t.Format("15:04:05")
	}
	return t.Format("15:04")
}

func (a Appointment) MarshalJSON() ([]byte, error) {
	type plain Appointment
	return json.Marshal(struct {
		plain
		EndTime     time.Time `json:"endTime"`
		StatusLabel string    `json:"statusLabel"`
	}{plain(a), a.EndTime(), a.Status.String()})
}
