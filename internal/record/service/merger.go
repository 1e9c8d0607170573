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

package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wso2/customer-data-dedup/internal/record/model"
	"github.com/wso2/customer-data-dedup/internal/record/store"
	"github.com/wso2/customer-data-dedup/internal/system/constants"
	errors2 "github.com/wso2/customer-data-dedup/internal/system/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// GroupMergerInterface decides how one duplicate group collapses into a single record.
type GroupMergerInterface interface {
	MergeGroup(ctx context.Context, phone string) (*model.MergeOutcome, error)
}

// GroupMerger is the default implementation of GroupMergerInterface.
type GroupMerger struct {
	store store.RecordStore
}

// NewGroupMerger creates a merger reading from recordStore.
func NewGroupMerger(recordStore store.RecordStore) GroupMergerInterface {

	return &GroupMerger{store: recordStore}
}

// MergeGroup loads every record with phone and computes the merge. It never writes.
func (m *GroupMerger) MergeGroup(ctx context.Context, phone string) (*model.MergeOutcome, error) {

	records, err := m.store.FindByPhone(ctx, phone)
	if err != nil {
		return nil, errors2.WithPhone(err, phone)
	}
	return MergeRecords(phone, records)
}

type rankedRecord struct {
	record    model.Record
	id        interface{}
	updatedAt time.Time
}

// rankByRecency orders records newest first. Equal timestamps fall back to
// ascending identifier so the master is the same on every run.
func rankByRecency(phone string, records []model.Record) ([]rankedRecord, error) {

	ranked := make([]rankedRecord, 0, len(records))
	for i, r := range records {
		id, ok := r.ID()
		if !ok {
			return nil, errors2.NewMergeError(errors2.KindInvalidRecord, errors2.MISSING_IDENTIFIER, phone,
				fmt.Errorf("record at position %d has no %s", i, constants.IdField))
		}
		ts, ok := r.UpdatedAt()
		if !ok {
			return nil, errors2.NewMergeError(errors2.KindMissingTimestamp, errors2.MISSING_TIMESTAMP, phone,
				fmt.Errorf("record %s has no comparable %s", model.IDString(id), constants.UpdatedAtField))
		}
		ranked = append(ranked, rankedRecord{record: r, id: id, updatedAt: ts})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if !ranked[i].updatedAt.Equal(ranked[j].updatedAt) {
			return ranked[i].updatedAt.After(ranked[j].updatedAt)
		}
		return model.CompareIDs(ranked[i].id, ranked[j].id) < 0
	})
	return ranked, nil
}

// MergeRecords collapses records sharing phone into the most recently updated one.
//
// The master keeps every field it has. Its accounts become the concatenation
// of all members' accounts, newest record first, without deduplication. Fields
// the master lacks are copied from the first non-master that has them;
// identifier, accounts and updatedAt are never copied.
//
// Fewer than two records is an EMPTY_GROUP error: the group has already been
// resolved.
func MergeRecords(phone string, records []model.Record) (*model.MergeOutcome, error) {

	if len(records) < constants.MinDuplicateCount {
		return nil, errors2.NewMergeError(errors2.KindEmptyGroup, errors2.EMPTY_GROUP, phone,
			fmt.Errorf("%d record(s) left", len(records)))
	}

	ranked, err := rankByRecency(phone, records)
	if err != nil {
		return nil, err
	}

	master := ranked[0]
	merged := master.record.Clone()

	accounts := bson.A{}
	for _, r := range ranked {
		for _, account := range r.record.Accounts() {
			accounts = append(accounts, model.CloneValue(account))
		}
	}
	merged = merged.Set(constants.AccountsField, accounts)

	toDelete := make([]interface{}, 0, len(ranked)-1)
	for _, r := range ranked[1:] {
		for _, field := range r.record {
			if constants.NonBackfillFields[field.Key] || merged.Has(field.Key) {
				continue
			}
			merged = append(merged, bson.E{Key: field.Key, Value: model.CloneValue(field.Value)})
		}
		toDelete = append(toDelete, r.id)
	}

	return &model.MergeOutcome{
		Phone:       phone,
		MasterID:    master.id,
		Merged:      merged,
		ToDelete:    toDelete,
		MemberCount: len(ranked),
	}, nil
}
