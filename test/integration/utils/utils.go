package utils

import (
	"context"
	"fmt"
	"os"

	"github.com/wso2/customer-data-dedup/internal/record/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fixture struct {
	Users []bson.D `bson:"users"`
}

// InsertRecordsFromFile loads an extended JSON fixture of the form
// {"users": [...]} into coll.
func InsertRecordsFromFile(ctx context.Context, coll *mongo.Collection, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture file: %w", err)
	}

	var f fixture
	if err := bson.UnmarshalExtJSON(data, false, &f); err != nil {
		return fmt.Errorf("failed to parse fixture: %w", err)
	}

	docs := make([]interface{}, 0, len(f.Users))
	for _, u := range f.Users {
		docs = append(docs, u)
	}
	if len(docs) == 0 {
		return nil
	}
	_, err = coll.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to insert fixture: %w", err)
	}
	return nil
}

// FindAll returns every record in coll ordered by _id.
func FindAll(ctx context.Context, coll *mongo.Collection) ([]model.Record, error) {
	cursor, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var records []model.Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
