package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/JonMunkholm/docrow/internal/core"
)

func TestFlatten(t *testing.T) {
	oid, err := bson.ObjectIDFromHex("507f1f77bcf86cd799439011")
	if err != nil {
		t.Fatal(err)
	}

	doc := bson.D{
		{Key: "_id", Value: oid},
		{Key: "name", Value: "Bob"},
		{Key: "tags", Value: bson.A{"x", "y"}},
		{Key: "addr", Value: bson.D{
			{Key: "city", Value: "Oslo"},
			{Key: "geo", Value: bson.D{{Key: "lat", Value: 59.91}}},
		}},
		{Key: "items", Value: bson.A{
			bson.D{{Key: "sku", Value: "A"}, {Key: "qty", Value: int32(2)}},
		}},
		{Key: "empty", Value: bson.A{}},
		{Key: "nothing", Value: nil},
	}

	rec := Flatten(doc)

	want := []struct{ key, value string }{
		{"_id", "507f1f77bcf86cd799439011"},
		{"name", "Bob"},
		{"tags[0]", "x"},
		{"tags[1]", "y"},
		{"addr.city", "Oslo"},
		{"addr.geo.lat", "59.91"},
		{"items[0].sku", "A"},
		{"items[0].qty", "2"},
		{"empty", ""},
		{"nothing", ""},
	}

	keys := rec.Keys()
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %d keys", keys, len(want))
	}
	for i, w := range want {
		if keys[i] != w.key {
			t.Errorf("key %d = %q, want %q", i, keys[i], w.key)
		}
		if got := rec.Text(w.key); got != w.value {
			t.Errorf("%s = %q, want %q", w.key, got, w.value)
		}
	}
}

func TestFlatten_TransformsLikeExport(t *testing.T) {
	oid, _ := bson.ObjectIDFromHex("507f1f77bcf86cd799439011")
	doc := bson.D{
		{Key: "_id", Value: oid},
		{Key: "tags", Value: bson.A{"x"}},
		{Key: "meta", Value: bson.M{"b": "2", "a": "1"}},
	}

	out, err := core.Transform(Flatten(doc))
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if got := out.Text("id"); got != "507f1f77-bcf8-6cd7-9943-901100000000" {
		t.Errorf("id = %q", got)
	}
	if got := out.Text("tags"); got != `["x"]` {
		t.Errorf("tags = %q", got)
	}
	if got := out.Text("meta"); got != `{"a":"1","b":"2"}` {
		t.Errorf("meta = %q", got)
	}
}

func TestText(t *testing.T) {
	when := time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)
	dec, err := bson.ParseDecimal128("12.50")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"null", bson.Null{}, ""},
		{"string", "hi", "hi"},
		{"bool", true, "true"},
		{"int32", int32(-4), "-4"},
		{"int64", int64(1) << 40, "1099511627776"},
		{"float", 1.5, "1.5"},
		{"whole float", 3.0, "3"},
		{"datetime", bson.NewDateTimeFromTime(when), "2024-01-15T08:30:00Z"},
		{"decimal", dec, "12.50"},
		{"binary", bson.Binary{Data: []byte("ab")}, "YWI="},
		{"regex", bson.Regex{Pattern: "^a", Options: "i"}, "/^a/i"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.want {
				t.Errorf("Text(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
