package comment

import (
	"context"
	"errors"

	"GridSync/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the persistence collaborator boundary for comments.
type Store interface {
	Insert(ctx context.Context, c *Comment) error
	Get(ctx context.Context, id string) (*Comment, error)
	AddReply(ctx context.Context, commentID string, r Reply) error
	SetResolved(ctx context.Context, id string, resolved bool) error
	Delete(ctx context.Context, id string) error
	ListByDoc(ctx context.Context, docID string) ([]Comment, error)
}

// MongoStore keeps one document per comment; replies are an embedded
// ordered array, so reply order survives resolve/delete of siblings.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("comments")}
}

func (s *MongoStore) Insert(ctx context.Context, c *Comment) error {
	_, err := s.coll.InsertOne(ctx, c)
	return err
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Comment, error) {
	var c Comment
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("comment " + id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) AddReply(ctx context.Context, commentID string, r Reply) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": commentID},
		bson.M{"$push": bson.M{"replies": r}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound.WithDetail("comment " + commentID)
	}
	return nil
}

func (s *MongoStore) SetResolved(ctx context.Context, id string, resolved bool) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"resolved": resolved}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound.WithDetail("comment " + id)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errs.ErrNotFound.WithDetail("comment " + id)
	}
	return nil
}

func (s *MongoStore) ListByDoc(ctx context.Context, docID string) ([]Comment, error) {
	cur, err := s.coll.Find(ctx, bson.M{"doc_id": docID},
		options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()
	var out []Comment
	for cur.Next(ctx) {
		var c Comment
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, cur.Err()
}
