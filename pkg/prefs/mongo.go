package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig configures a [MongoStore].
type MongoConfig struct {
	URI        string
	Database   string // default "kintree"
	Collection string // default "views"
}

// MongoStore keeps views as documents keyed by view name.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "kintree"
	}
	if cfg.Collection == "" {
		cfg.Collection = "views"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) Load(ctx context.Context, name string) (*View, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	var v View
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load view %s: %w", name, err)
	}
	return &v, nil
}

func (s *MongoStore) Save(ctx context.Context, v *View) error {
	if err := ValidateName(v.Name); err != nil {
		return err
	}
	v.UpdatedAt = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": v.Name}, v, opts); err != nil {
		return fmt.Errorf("save view %s: %w", v.Name, err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return fmt.Errorf("delete view %s: %w", name, err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var doc struct {
			Name string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode view name: %w", err)
		}
		names = append(names, doc.Name)
	}
	return names, cur.Err()
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
