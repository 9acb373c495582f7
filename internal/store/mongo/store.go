// Package mongo implements the tabular store with one MongoDB collection per
// table and one document per row, fields named after the table columns.
package mongo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stockservice/internal/store"
)

const (
	defaultURL      = "mongodb://localhost:27017"
	defaultDatabase = "restaurant_stock"
	connectTimeout  = 10 * time.Second
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a client and pings the server before returning.
func Connect(ctx context.Context, url, dbName string) (*Store, error) {
	if url == "" {
		url = defaultURL
	}
	if dbName == "" {
		dbName = defaultDatabase
	}

	clientOptions := options.Client().ApplyURI(url).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot connect to MongoDB: %v", store.ErrUnavailable, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: cannot ping MongoDB: %v", store.ErrUnavailable, err)
	}

	return &Store{client: client, db: client.Database(dbName)}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
	}
	return nil
}

func (s *Store) LoadTable(ctx context.Context, table string) ([]store.Record, error) {
	cols, ok := store.Columns[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, table)
	}

	cursor, err := s.db.Collection(table).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot list %s: %v", store.ErrUnavailable, table, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("cannot decode %s: %w", table, err)
	}

	records := make([]store.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, toRecord(cols, doc))
	}
	return records, nil
}

func (s *Store) FindAndUpdate(ctx context.Context, table, keyColumn, keyValue, targetColumn, newValue string) error {
	if _, ok := store.Columns[table]; !ok {
		return fmt.Errorf("%w: %s", store.ErrTableNotFound, table)
	}

	filter := bson.M{keyColumn: keyValue}
	update := bson.M{"$set": bson.M{targetColumn: newValue}}

	result, err := s.db.Collection(table).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("%w: cannot update %s: %v", store.ErrUnavailable, table, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s=%q in %s", store.ErrRowNotFound, keyColumn, keyValue, table)
	}
	return nil
}

func (s *Store) AppendRow(ctx context.Context, table string, values []string) error {
	doc, err := toDocument(table, values)
	if err != nil {
		return err
	}
	if _, err := s.db.Collection(table).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("%w: cannot insert into %s: %v", store.ErrUnavailable, table, err)
	}
	return nil
}

func toDocument(table string, values []string) (bson.D, error) {
	cols, ok := store.Columns[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, table)
	}
	if len(values) > len(cols) {
		return nil, fmt.Errorf("%s takes %d values, got %d", table, len(cols), len(values))
	}

	doc := make(bson.D, 0, len(values))
	for i, v := range values {
		doc = append(doc, bson.E{Key: cols[i], Value: v})
	}
	return doc, nil
}

func toRecord(cols []string, doc bson.M) store.Record {
	rec := make(store.Record, len(cols))
	for _, col := range cols {
		rec[col] = fieldString(doc[col])
	}
	return rec
}

// fieldString renders a document field the way a spreadsheet cell would read.
func fieldString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case primitive.Decimal128:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
