package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/clinic-api/internal/models"
)

const (
	doctorsCollection       = "doctors"
	patientsCollection      = "patients"
	adminsCollection        = "admins"
	appointmentsCollection  = "appointments"
	prescriptionsCollection = "prescriptions"
)

// NewMongo wires every repository to its collection in db.
func NewMongo(db *mongo.Database) Repositories {
	return Repositories{
		Doctors:       &MongoDoctors{coll: db.Collection(doctorsCollection)},
		Patients:      &MongoPatients{coll: db.Collection(patientsCollection)},
		Admins:        &MongoAdmins{coll: db.Collection(adminsCollection)},
		Appointments:  &MongoAppointments{coll: db.Collection(appointmentsCollection)},
		Prescriptions: &MongoPrescriptions{coll: db.Collection(prescriptionsCollection)},
	}
}

// EnsureIndexes creates the unique indexes the repositories rely on. The
// partial index on appointments is what makes double booking impossible:
// only scheduled and completed appointments take part in it.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		doctorsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "specialty", Value: 1}}},
		},
		patientsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{
				Keys: bson.D{{Key: "phone", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"phone": bson.M{"$gt": ""}}),
			},
		},
		adminsCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		appointmentsCollection: {
			{
				Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "startTime", Value: 1}},
				Options: options.Index().
					SetName("doctor_slot_active").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": bson.M{"$lt": int32(models.StatusCancelled)}}),
			},
			{Keys: bson.D{{Key: "patientId", Value: 1}, {Key: "startTime", Value: 1}}},
		},
		prescriptionsCollection: {
			{Keys: bson.D{{Key: "appointmentId", Value: 1}}},
		},
	}
	for name, idx := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (*T, error) {
	var out T
	err := coll.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func findMany[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// contains builds a case-insensitive substring match.
func contains(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// equalFold builds a case-insensitive whole-value match.
func equalFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

func byStart() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}})
}
