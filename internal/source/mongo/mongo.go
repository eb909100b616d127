// Package mongo reads tables straight from MongoDB collections.
//
// Each document is flattened into the same shape an export tool writes to
// CSV, so live data runs through the converter exactly like an export:
//
//	{_id: ObjectId("507f..."), tags: ["x"], addr: {city: "Oslo"}}
//	-> _id=507f...  tags[0]=x  addr.city=Oslo
package mongo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/JonMunkholm/docrow/internal/config"
	"github.com/JonMunkholm/docrow/internal/core"
	"github.com/JonMunkholm/docrow/internal/driver"
	"github.com/JonMunkholm/docrow/internal/logging"
)

// ErrNoCollection is returned when the requested collection does not exist.
var ErrNoCollection = errors.New("no such collection")

func init() {
	driver.RegisterSource(config.SourceMongo, func(ctx context.Context, cfg *config.Config) (driver.Source, error) {
		ctx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()
		return Connect(ctx, cfg.Mongo.URI, cfg.MongoDatabase(), cfg.Mongo.BatchSize)
	})
}

// Source reads collections from one database.
type Source struct {
	client    *mongo.Client
	db        *mongo.Database
	batchSize int32
}

// Connect opens a client and verifies the server is reachable.
func Connect(ctx context.Context, uri, database string, batchSize int) (*Source, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logging.FromContext(ctx).Debug("mongo connected", "database", database)
	return &Source{
		client:    client,
		db:        client.Database(database),
		batchSize: int32(batchSize),
	}, nil
}

// Open starts a cursor over every document in collection.
func (s *Source) Open(ctx context.Context, collection string) (driver.RowReader, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: collection}})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoCollection, s.db.Name(), collection)
	}

	opts := options.Find().SetBatchSize(s.batchSize)
	cursor, err := s.db.Collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	return &rowReader{ctx: ctx, cursor: cursor}, nil
}

// Close disconnects the client.
func (s *Source) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

type rowReader struct {
	ctx    context.Context
	cursor *mongo.Cursor
}

func (r *rowReader) Next() (core.Record, error) {
	if !r.cursor.Next(r.ctx) {
		if err := r.cursor.Err(); err != nil {
			return core.Record{}, fmt.Errorf("cursor: %w", err)
		}
		return core.Record{}, io.EOF
	}

	var doc bson.D
	if err := r.cursor.Decode(&doc); err != nil {
		return core.Record{}, fmt.Errorf("decode: %w", err)
	}
	return Flatten(doc), nil
}

func (r *rowReader) Close() error {
	return r.cursor.Close(context.Background())
}

// Flatten turns a document into a record of text fields keyed by flattened
// path. Empty arrays and sub-documents become a single empty field so the
// column still exists.
func Flatten(doc bson.D) core.Record {
	rec := core.NewRecord()
	flattenDoc(rec, "", doc)
	return rec
}

func flattenDoc(rec core.Record, prefix string, doc bson.D) {
	if len(doc) == 0 && prefix != "" {
		rec.Set(prefix, core.Scalar(""))
		return
	}
	for _, elem := range doc {
		key := elem.Key
		if prefix != "" {
			key = prefix + "." + elem.Key
		}
		flattenValue(rec, key, elem.Value)
	}
}

func flattenArray(rec core.Record, key string, items []any) {
	if len(items) == 0 {
		rec.Set(key, core.Scalar(""))
		return
	}
	for i, item := range items {
		flattenValue(rec, key+"["+strconv.Itoa(i)+"]", item)
	}
}

func flattenValue(rec core.Record, key string, v any) {
	switch val := v.(type) {
	case bson.D:
		flattenDoc(rec, key, val)
	case bson.M:
		d := make(bson.D, 0, len(val))
		for _, k := range slices.Sorted(maps.Keys(val)) {
			d = append(d, bson.E{Key: k, Value: val[k]})
		}
		flattenDoc(rec, key, d)
	case bson.A:
		flattenArray(rec, key, val)
	case []any:
		flattenArray(rec, key, val)
	default:
		rec.Set(key, core.Scalar(Text(v)))
	}
}

// Text renders a BSON scalar the way export tools print it.
func Text(v any) string {
	switch val := v.(type) {
	case nil, bson.Null, bson.Undefined:
		return ""
	case string:
		return val
	case bson.ObjectID:
		return val.Hex()
	case bool:
		return strconv.FormatBool(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bson.DateTime:
		return val.Time().UTC().Format(time.RFC3339Nano)
	case bson.Decimal128:
		return val.String()
	case bson.Binary:
		return base64.StdEncoding.EncodeToString(val.Data)
	case bson.Timestamp:
		return strconv.FormatUint(uint64(val.T), 10)
	case bson.Regex:
		return "/" + val.Pattern + "/" + val.Options
	case bson.Symbol:
		return string(val)
	case bson.JavaScript:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
