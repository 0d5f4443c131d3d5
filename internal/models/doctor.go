package models

import (
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Doctor carries a recurring daily template of slots such as "09:00 - 10:00".
// The template is trusted as given: overlaps are not merged or rejected here.
type Doctor struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	Specialty         string             `bson:"specialty" json:"specialty"`
	Email             string             `bson:"email" json:"email"`
	Password          string             `bson:"password" json:"-"`
	Phone             string             `bson:"phone" json:"phone"`
	AvailableTimes    []string           `bson:"availableTimes" json:"availableTimes"`
	YearsOfExperience int                `bson:"yearsOfExperience" json:"yearsOfExperience"`
	ClinicAddress     string             `bson:"clinicAddress" json:"clinicAddress"`
}

// SlotStart returns the start field of a slot descriptor, "09:00" for both
// "09:00-10:00" and "09:00 - 10:00".
func SlotStart(slot string) string {
	start, _, _ := strings.Cut(slot, "-")
	return strings.TrimSpace(start)
}

// SlotStartHour parses the hour of a slot's start field.
func SlotStartHour(slot string) (int, bool) {
	h, _, ok := strings.Cut(SlotStart(slot), ":")
	if !ok {
		return 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}
