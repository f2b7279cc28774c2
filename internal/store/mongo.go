package store

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

// todosCollection is the MongoDB collection holding all todo documents.
const todosCollection = "todos"

// Mongo is the Store backed by a MongoDB collection — the backend's
// native document store. The connection is opened once at startup and
// shared for the process lifetime.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoTodo is the BSON representation of a todo. The domain model
// carries string ids while Mongo assigns ObjectIDs, so the two are
// converted at this boundary and nowhere else.
type mongoTodo struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	Title  string             `bson:"title"`
	Due    time.Time          `bson:"due"`
	Status int                `bson:"status"`
}

func toMongoTodo(t Todo) mongoTodo {
	return mongoTodo{Title: t.Title, Due: t.Due, Status: t.Status}
}

func (d mongoTodo) toTodo() Todo {
	return Todo{ID: d.ID.Hex(), Title: d.Title, Due: d.Due.UTC(), Status: d.Status}
}

// OpenMongo connects to the MongoDB deployment at uri and verifies the
// connection with a ping. A failure here is fatal at startup — the
// server must not accept requests without a reachable store.
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("store: connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("store: mongodb unreachable: %w", err)
	}

	return &Mongo{
		client: client,
		coll:   client.Database(database).Collection(todosCollection),
	}, nil
}

// Ping implements Store.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close implements Store.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// FindAll implements Store. Documents come back in the collection's
// natural cursor order.
func (m *Mongo) FindAll(ctx context.Context) ([]Todo, error) {
	cursor, err := m.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("store: querying todos: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoTodo
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("store: decoding todos: %w", err)
	}

	todos := make([]Todo, len(docs))
	for i, d := range docs {
		todos[i] = d.toTodo()
	}
	return todos, nil
}

// FindByID implements Store. An id that is not a valid ObjectID cannot
// match any document and maps to ErrNotFound rather than an error.
func (m *Mongo) FindByID(ctx context.Context, id string) (*Todo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc mongoTodo
	if err := m.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: querying todo %s: %w", id, err)
	}

	todo := doc.toTodo()
	return &todo, nil
}

// Insert implements Store. Mongo assigns the ObjectID.
func (m *Mongo) Insert(ctx context.Context, todo Todo) (*Todo, error) {
	doc := toMongoTodo(todo)

	res, err := m.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("store: inserting todo: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("store: unexpected inserted id type %T", res.InsertedID)
	}

	doc.ID = oid
	out := doc.toTodo()
	return &out, nil
}

// Update implements Store. The document is replaced wholesale; the id
// is taken from the path, never from the replacement body.
func (m *Mongo) Update(ctx context.Context, id string, todo Todo) (*Todo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	res, err := m.coll.ReplaceOne(ctx, bson.M{"_id": oid}, toMongoTodo(todo))
	if err != nil {
		return nil, fmt.Errorf("store: replacing todo %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}

	todo.ID = id
	return &todo, nil
}

// Delete implements Store.
func (m *Mongo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("store: deleting todo %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
