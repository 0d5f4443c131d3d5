package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Prescription struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientName   string             `bson:"patientName" json:"patientName" binding:"required,min=3,max=100"`
	AppointmentID primitive.ObjectID `bson:"appointmentId" json:"appointmentId" binding:"required"`
	Medication    string             `bson:"medication" json:"medication" binding:"required,min=3,max=100"`
	Dosage        string             `bson:"dosage" json:"dosage" binding:"required,min=3,max=20"`
	DoctorNotes   string             `bson:"doctorNotes" json:"doctorNotes" binding:"max=200"`
}
