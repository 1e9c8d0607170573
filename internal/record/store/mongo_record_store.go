/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/wso2/customer-data-dedup/internal/record/model"
	"github.com/wso2/customer-data-dedup/internal/system/constants"
	dedupcontext "github.com/wso2/customer-data-dedup/internal/system/context"
	errors2 "github.com/wso2/customer-data-dedup/internal/system/errors"
	"github.com/wso2/customer-data-dedup/internal/system/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRecordStore handles MongoDB operations for user records.
type MongoRecordStore struct {
	Collection *mongo.Collection
	// CallTimeout bounds each individual store call. Zero leaves it to the caller's context.
	CallTimeout time.Duration
}

// NewMongoRecordStore creates a new store over collection.
func NewMongoRecordStore(collection *mongo.Collection) *MongoRecordStore {
	return &MongoRecordStore{
		Collection:  collection,
		CallTimeout: constants.DefaultStoreTimeout,
	}
}

func (s *MongoRecordStore) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.CallTimeout)
}

// duplicateMatch selects records that can take part in a duplicate group.
func duplicateMatch(window *model.TimeWindow) bson.D {
	match := bson.D{
		{Key: constants.PhoneField, Value: bson.D{
			{Key: "$type", Value: "string"},
			{Key: "$ne", Value: ""},
		}},
	}
	if window != nil {
		match = append(match, bson.E{Key: constants.UpdatedAtField, Value: bson.D{
			{Key: "$gte", Value: primitive.NewDateTimeFromTime(window.Start)},
			{Key: "$lt", Value: primitive.NewDateTimeFromTime(window.End)},
		}})
	}
	return match
}

// groupByPhoneStages builds the $match, $group, $match prefix shared by the
// group listing and the summary.
func groupByPhoneStages(window *model.TimeWindow, minCount int) mongo.Pipeline {
	if minCount < constants.MinDuplicateCount {
		minCount = constants.MinDuplicateCount
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: duplicateMatch(window)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + constants.PhoneField},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "count", Value: bson.D{{Key: "$gte", Value: minCount}}}}}},
	}
}

// CountByPhone runs the duplicate phone aggregation.
func (s *MongoRecordStore) CountByPhone(ctx context.Context, q model.GroupQuery) ([]model.DuplicateGroup, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	pipeline := append(groupByPhoneStages(q.Window, q.MinCount),
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: constants.PhoneField, Value: "$_id"},
			{Key: "count", Value: 1},
		}}},
	)
	if q.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: q.Limit}})
	}

	opts := options.Aggregate().SetBatchSize(constants.DefaultAggregateBatch).SetAllowDiskUse(true)
	if comment := dedupcontext.OperationComment(ctx); comment != "" {
		opts.SetComment(comment)
	}
	cursor, err := s.Collection.Aggregate(ctx, pipeline, opts)
	if err != nil {
		return nil, storeError(errors2.FIND_DUPLICATE_GROUPS, err)
	}
	defer cursor.Close(ctx)

	var groups []model.DuplicateGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, storeError(errors2.FIND_DUPLICATE_GROUPS, err)
	}
	return groups, nil
}

// FindByPhone loads full documents. Fetching every field matters: the merged
// master replaces the stored document wholesale.
func (s *MongoRecordStore) FindByPhone(ctx context.Context, phone string) ([]model.Record, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	filter := bson.D{{Key: constants.PhoneField, Value: phone}}
	opts := options.Find().SetSort(bson.D{{Key: constants.IdField, Value: 1}})
	if comment := dedupcontext.OperationComment(ctx); comment != "" {
		opts.SetComment(comment)
	}
	cursor, err := s.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeError(errors2.FIND_GROUP_RECORDS, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeError(errors2.FIND_GROUP_RECORDS, err)
	}

	records := make([]model.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, model.Record(doc))
	}
	return records, nil
}

// Replace writes doc over the record matched by id.
func (s *MongoRecordStore) Replace(ctx context.Context, id interface{}, doc model.Record, upsert bool) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	filter := bson.D{{Key: constants.IdField, Value: id}}
	opts := options.Replace().SetUpsert(upsert)
	if comment := dedupcontext.OperationComment(ctx); comment != "" {
		opts.SetComment(comment)
	}
	result, err := s.Collection.ReplaceOne(ctx, filter, bson.D(doc), opts)
	if err != nil {
		return storeError(errors2.REPLACE_MASTER, err)
	}
	if !upsert && result.MatchedCount == 0 {
		return errors2.NewStoreError(errors2.KindNotFound, errors2.MASTER_NOT_FOUND,
			errors.Errorf("no record with id %s", model.IDString(id)))
	}
	log.GetLogger().Debug("Replaced record", log.String("id", model.IDString(id)),
		log.Any("matched", result.MatchedCount), log.Any("upserted", result.UpsertedCount))
	return nil
}

// Delete removes the record with id. Deleting an already deleted record succeeds.
func (s *MongoRecordStore) Delete(ctx context.Context, id interface{}) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	opts := options.Delete()
	if comment := dedupcontext.OperationComment(ctx); comment != "" {
		opts.SetComment(comment)
	}
	result, err := s.Collection.DeleteOne(ctx, bson.D{{Key: constants.IdField, Value: id}}, opts)
	if err != nil {
		return storeError(errors2.DELETE_DUPLICATE, err)
	}
	if result.DeletedCount == 0 {
		log.GetLogger().Debug("Record already deleted", log.String("id", model.IDString(id)))
	}
	return nil
}

// DuplicateSummary totals the duplicate phones in the window.
func (s *MongoRecordStore) DuplicateSummary(ctx context.Context, window *model.TimeWindow) (model.DuplicateSummary, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	pipeline := append(groupByPhoneStages(window, constants.MinDuplicateCount),
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "duplicatePhones", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "totalDuplicates", Value: bson.D{{Key: "$sum", Value: "$count"}}},
		}}},
	)

	var summary model.DuplicateSummary
	cursor, err := s.Collection.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return summary, storeError(errors2.SUMMARIZE_DUPLICATES, err)
	}
	defer cursor.Close(ctx)

	if cursor.Next(ctx) {
		if err := cursor.Decode(&summary); err != nil {
			return summary, storeError(errors2.SUMMARIZE_DUPLICATES, err)
		}
	}
	if err := cursor.Err(); err != nil {
		return summary, storeError(errors2.SUMMARIZE_DUPLICATES, err)
	}
	return summary, nil
}

// storeError classifies a driver error. Deadline errors are timeouts; network
// errors, server selection failures and everything else the driver reports
// count as the store being unavailable.
func storeError(msg errors2.ErrorMessage, err error) error {
	kind := errors2.KindStoreUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = errors2.KindTimeout
	}
	return errors2.NewStoreError(kind, msg, errors.Wrap(err, msg.Message))
}
