package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// namespaceExistsCode is returned by createCollection when another writer won the race
const namespaceExistsCode = 48

// MongoDialer connects to MongoDB
type MongoDialer struct {
	ConnectTimeout time.Duration
}

// NewMongoDialer creates a MongoDialer with a default connect timeout
func NewMongoDialer() *MongoDialer {
	return &MongoDialer{ConnectTimeout: 10 * time.Second}
}

// Dial implements Dialer.Dial. The server is pinged so an unreachable
// database fails here rather than on the first write.
func (d *MongoDialer) Dial(ctx context.Context, uri, database string) (Store, error) {
	if uri == "" {
		return nil, NewStoreError("Dial", "", ErrMissingURI)
	}

	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, NewStoreError("Dial", "", err)
	}
	if cs.Database != "" {
		database = cs.Database
	}

	opts := options.Client().ApplyURI(uri)
	if d.ConnectTimeout > 0 {
		opts.SetConnectTimeout(d.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, NewStoreError("Dial", "", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, NewStoreError("Ping", "", err)
	}

	logrus.WithFields(logrus.Fields{
		"database": database,
		"hosts":    cs.Hosts,
	}).Info("Document store connection established")

	return NewMongoStore(client, database), nil
}

// MongoStore implements Store on a MongoDB database
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore wraps a connected client. Close disconnects it.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(database)}
}

// Collection implements Store.Collection
func (s *MongoStore) Collection(ctx context.Context, name string) (Collection, error) {
	if name == "" {
		return nil, NewStoreError("Collection", name, ErrInvalidCollection)
	}

	names, err := s.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return nil, NewStoreError("ListCollections", name, err)
	}

	if len(names) == 0 {
		err := s.db.CreateCollection(ctx, name)
		if err != nil && !isNamespaceExists(err) {
			return nil, NewStoreError("CreateCollection", name, err)
		}
		logrus.WithField("collection", name).Info("Created collection")
	}

	return &mongoCollection{coll: s.db.Collection(name)}, nil
}

// Close implements Store.Close
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return NewStoreError("Close", "", err)
	}
	logrus.Info("Document store connection closed")
	return nil
}

type mongoCollection struct {
	coll *mongo.Collection
}

func (c *mongoCollection) Name() string {
	return c.coll.Name()
}

func (c *mongoCollection) InsertMany(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]interface{}, len(docs))
	for i, doc := range docs {
		items[i] = bson.M(doc)
	}

	if _, err := c.coll.InsertMany(ctx, items, options.InsertMany().SetOrdered(true)); err != nil {
		return NewStoreError("InsertMany", c.coll.Name(), err)
	}
	return nil
}

func isNamespaceExists(err error) bool {
	var serverErr mongo.ServerError
	return errors.As(err, &serverErr) && serverErr.HasErrorCode(namespaceExistsCode)
}
