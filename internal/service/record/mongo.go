package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoCollection = "djprofiles"

// mongoRecord maps to the MongoDB document structure.
type mongoRecord struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	StageName       string             `bson:"stageName"`
	FullName        string             `bson:"fullName"`
	City            string             `bson:"city"`
	State           string             `bson:"state"`
	PhoneNumber     string             `bson:"phoneNumber"`
	ExperienceLevel string             `bson:"experienceLevel"`
	Age             string             `bson:"age"`
	Email           string             `bson:"email"`
	SocialMedia     string             `bson:"socialMedia"`
	HeardAbout      string             `bson:"heardAbout"`
	StageNameLower  string             `bson:"stageNameLower"`
	EmailLower      string             `bson:"emailLower"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

func (mr mongoRecord) toRecord() *Record {
	return &Record{
		ID:              mr.ID.Hex(),
		StageName:       mr.StageName,
		FullName:        mr.FullName,
		City:            mr.City,
		State:           mr.State,
		PhoneNumber:     mr.PhoneNumber,
		ExperienceLevel: mr.ExperienceLevel,
		Age:             mr.Age,
		Email:           mr.Email,
		SocialMedia:     mr.SocialMedia,
		HeardAbout:      mr.HeardAbout,
		CreatedAt:       mr.CreatedAt.UTC(),
		UpdatedAt:       mr.UpdatedAt.UTC(),
	}
}

// mutableFields is the $set document for a full overwrite. createdAt is
// excluded so updates keep it.
func mutableFields(r *Record) bson.M {
	k := r.Key()
	return bson.M{
		"stageName":       r.StageName,
		"fullName":        r.FullName,
		"city":            r.City,
		"state":           r.State,
		"phoneNumber":     r.PhoneNumber,
		"experienceLevel": r.ExperienceLevel,
		"age":             r.Age,
		"email":           r.Email,
		"socialMedia":     r.SocialMedia,
		"heardAbout":      r.HeardAbout,
		"stageNameLower":  k.StageName,
		"emailLower":      k.Email,
		"updatedAt":       r.UpdatedAt,
	}
}

func keyFilter(k Key) bson.D {
	return bson.D{{Key: "stageNameLower", Value: k.StageName}, {Key: "emailLower", Value: k.Email}}
}

// MongoStore implements Store on MongoDB. Uniqueness rests on a unique
// compound index over the lower-cased stage name and email.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and ensures the collection's indexes.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	s := &MongoStore{client: client, coll: client.Database(database).Collection(mongoCollection)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "stageNameLower", Value: 1}, {Key: "emailLower", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("stageNameLower_1_emailLower_1"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_-1"),
		},
	})
	if err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, r *Record) (*Record, error) {
	doc := mutableFields(r)
	doc["createdAt"] = r.CreatedAt
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateOf(r)
		}
		return nil, fmt.Errorf("mongo insert: %w", err)
	}
	rec := r.clone()
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid.Hex()
	}
	return rec, nil
}

func (s *MongoStore) Replace(ctx context.Context, id string, r *Record) (*Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var out mongoRecord
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": mutableFields(r)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, duplicateOf(r)
	case err != nil:
		return nil, fmt.Errorf("mongo replace: %w", err)
	}
	return out.toRecord(), nil
}

// Upsert is a single FindOneAndUpdate with upsert enabled. The _id of a
// fresh document is chosen here, so a returned _id equal to it means the
// call inserted. Two concurrent upserts of a new key can both miss and race
// on insert; the loser gets a duplicate key error and is retried once, which
// then matches as an update.
func (s *MongoStore) Upsert(ctx context.Context, r *Record) (*Record, UpsertResult, error) {
	k := r.Key()
	newID := primitive.NewObjectID()
	update := bson.M{
		"$set":         mutableFields(r),
		"$setOnInsert": bson.M{"_id": newID, "createdAt": r.CreatedAt},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out mongoRecord
	err := s.coll.FindOneAndUpdate(ctx, keyFilter(k), update, opts).Decode(&out)
	if mongo.IsDuplicateKeyError(err) {
		err = s.coll.FindOneAndUpdate(ctx, keyFilter(k), update, opts).Decode(&out)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("mongo upsert: %w", err)
	}

	if out.ID == newID {
		return out.toRecord(), Created, nil
	}
	return out.toRecord(), Updated, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var out mongoRecord
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo get: %w", err)
	}
	return out.toRecord(), nil
}

func (s *MongoStore) List(ctx context.Context) ([]*Record, error) {
	cur, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	var docs []mongoRecord
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo list decode: %w", err)
	}
	out := make([]*Record, len(docs))
	for i, d := range docs {
		out[i] = d.toRecord()
	}
	return out, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
