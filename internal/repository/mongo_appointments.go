package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harentsoaR/clinic-api/internal/models"
)

type MongoAppointments struct {
	coll *mongo.Collection
}

func (r *MongoAppointments) Create(ctx context.Context, a *models.Appointment) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return ErrSlotTaken
	}
	return err
}

func (r *MongoAppointments) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	return findOne[models.Appointment](ctx, r.coll, bson.M{"_id": id})
}

func (r *MongoAppointments) Update(ctx context.Context, a *models.Appointment) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if mongo.IsDuplicateKeyError(err) {
		return ErrSlotTaken
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoAppointments) DeleteByDoctorID(ctx context.Context, doctorID primitive.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"doctorId": doctorID})
	return err
}

func (r *MongoAppointments) RenameDoctor(ctx context.Context, doctorID primitive.ObjectID, name string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"doctorId": doctorID},
		bson.M{"$set": bson.M{"doctorName": name}},
	)
	return err
}

func (r *MongoAppointments) FindActiveByDoctorAndRange(ctx context.Context, doctorID primitive.ObjectID, from, to time.Time) ([]models.Appointment, error) {
	return findMany[models.Appointment](ctx, r.coll, bson.M{
		"doctorId":  doctorID,
		"startTime": bson.M{"$gte": from, "$lte": to},
		"status":    bson.M{"$ne": models.StatusCancelled},
	}, byStart())
}

func (r *MongoAppointments) FindByPatientID(ctx context.Context, patientID primitive.ObjectID) ([]models.Appointment, error) {
	return findMany[models.Appointment](ctx, r.coll, bson.M{"patientId": patientID})
}

func (r *MongoAppointments) FindByPatientAndStatus(ctx context.Context, patientID primitive.ObjectID, status models.AppointmentStatus) ([]models.Appointment, error) {
	return findMany[models.Appointment](ctx, r.coll, bson.M{
		"patientId": patientID,
		"status":    status,
	}, byStart())
}

func (r *MongoAppointments) FindByDoctorNameAndPatient(ctx context.Context, doctorName string, patientID primitive.ObjectID) ([]models.Appointment, error) {
	return findMany[models.Appointment](ctx, r.coll, bson.M{
		"patientId":  patientID,
		"doctorName": contains(doctorName),
	})
}

func (r *MongoAppointments) FindByDoctorNameAndPatientAndStatus(ctx context.Context, doctorName string, patientID primitive.ObjectID, status models.AppointmentStatus) ([]models.Appointment, error) {
	return findMany[models.Appointment](ctx, r.coll, bson.M{
		"patientId":  patientID,
		"doctorName": contains(doctorName),
		"status":     status,
	})
}

type MongoPrescriptions struct {
	coll *mongo.Collection
}

func (r *MongoPrescriptions) Create(ctx context.Context, p *models.Prescription) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, p)
	return err
}

func (r *MongoPrescriptions) FindByAppointmentID(ctx context.Context, appointmentID primitive.ObjectID) ([]models.Prescription, error) {
	return findMany[models.Prescription](ctx, r.coll, bson.M{"appointmentId": appointmentID})
}
