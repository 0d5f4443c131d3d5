package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harentsoaR/clinic-api/internal/models"
)

type MongoDoctors struct {
	coll *mongo.Collection
}

func (r *MongoDoctors) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Doctor, error) {
	return findOne[models.Doctor](ctx, r.coll, bson.M{"_id": id})
}

func (r *MongoDoctors) ExistsByID(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	return n > 0, err
}

func (r *MongoDoctors) FindByEmail(ctx context.Context, email string) (*models.Doctor, error) {
	return findOne[models.Doctor](ctx, r.coll, bson.M{"email": email})
}

func (r *MongoDoctors) FindAll(ctx context.Context) ([]models.Doctor, error) {
	return findMany[models.Doctor](ctx, r.coll, bson.M{})
}

func (r *MongoDoctors) FindByNameLike(ctx context.Context, name string) ([]models.Doctor, error) {
	return findMany[models.Doctor](ctx, r.coll, bson.M{"name": contains(name)})
}

func (r *MongoDoctors) FindBySpecialty(ctx context.Context, specialty string) ([]models.Doctor, error) {
	return findMany[models.Doctor](ctx, r.coll, bson.M{"specialty": equalFold(specialty)})
}

func (r *MongoDoctors) FindByNameAndSpecialty(ctx context.Context, name, specialty string) ([]models.Doctor, error) {
	return findMany[models.Doctor](ctx, r.coll, bson.M{
		"name":      contains(name),
		"specialty": equalFold(specialty),
	})
}

func (r *MongoDoctors) Create(ctx context.Context, d *models.Doctor) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, d)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *MongoDoctors) Update(ctx context.Context, d *models.Doctor) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoDoctors) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type MongoPatients struct {
	coll *mongo.Collection
}

func (r *MongoPatients) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Patient, error) {
	return findOne[models.Patient](ctx, r.coll, bson.M{"_id": id})
}

func (r *MongoPatients) FindByEmail(ctx context.Context, email string) (*models.Patient, error) {
	return findOne[models.Patient](ctx, r.coll, bson.M{"email": email})
}

func (r *MongoPatients) FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.Patient, error) {
	return findOne[models.Patient](ctx, r.coll, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"phone": phone},
	}})
}

func (r *MongoPatients) Create(ctx context.Context, p *models.Patient) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

type MongoAdmins struct {
	coll *mongo.Collection
}

func (r *MongoAdmins) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	return findOne[models.Admin](ctx, r.coll, bson.M{"username": username})
}

func (r *MongoAdmins) Create(ctx context.Context, a *models.Admin) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}
