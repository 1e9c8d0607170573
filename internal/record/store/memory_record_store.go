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
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wso2/customer-data-dedup/internal/record/model"
	"github.com/wso2/customer-data-dedup/internal/system/constants"
	errors2 "github.com/wso2/customer-data-dedup/internal/system/errors"
)

// MemoryRecordStore keeps records in process. It backs tests and local dry
// runs. Records are held in insertion order.
type MemoryRecordStore struct {
	mutex   sync.RWMutex
	records []model.Record

	// Latency delays every call, honoring context cancellation.
	Latency time.Duration
	// OnFind, OnReplace and OnDelete inject failures. A non-nil return is
	// returned from the call before it touches any record.
	OnFind    func(phone string) error
	OnReplace func(id string) error
	OnDelete  func(id string) error
}

// NewMemoryRecordStore creates a store holding copies of records.
func NewMemoryRecordStore(records ...model.Record) *MemoryRecordStore {
	s := &MemoryRecordStore{}
	s.Insert(records...)
	return s
}

// Insert adds copies of records.
func (s *MemoryRecordStore) Insert(records ...model.Record) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, r := range records {
		s.records = append(s.records, r.Clone())
	}
}

// All returns copies of every stored record.
func (s *MemoryRecordStore) All() []model.Record {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]model.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	return out
}

// Get returns a copy of the record with id.
func (s *MemoryRecordStore) Get(id interface{}) (model.Record, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.records[i].Clone(), true
	}
	return nil, false
}

func (s *MemoryRecordStore) wait(ctx context.Context) error {
	if s.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.Latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MemoryRecordStore) indexOf(id interface{}) int {
	for i, r := range s.records {
		if rid, ok := r.ID(); ok && model.CompareIDs(rid, id) == 0 {
			return i
		}
	}
	return -1
}

func (s *MemoryRecordStore) CountByPhone(ctx context.Context, q model.GroupQuery) ([]model.DuplicateGroup, error) {
	if err := s.wait(ctx); err != nil {
		return nil, errors2.NewStoreError(errors2.KindOf(err), errors2.FIND_DUPLICATE_GROUPS, err)
	}
	minCount := q.MinCount
	if minCount < constants.MinDuplicateCount {
		minCount = constants.MinDuplicateCount
	}

	counts := s.countPhones(q.Window)
	groups := make([]model.DuplicateGroup, 0, len(counts))
	for phone, count := range counts {
		if count >= minCount {
			groups = append(groups, model.DuplicateGroup{Phone: phone, Count: count})
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Phone < groups[j].Phone
	})
	if q.Limit > 0 && len(groups) > q.Limit {
		groups = groups[:q.Limit]
	}
	return groups, nil
}

func (s *MemoryRecordStore) countPhones(window *model.TimeWindow) map[string]int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	counts := make(map[string]int)
	for _, r := range s.records {
		phone, ok := r.Phone()
		if !ok {
			continue
		}
		if window != nil {
			ts, ok := r.UpdatedAt()
			if !ok || !window.Contains(ts) {
				continue
			}
		}
		counts[phone]++
	}
	return counts
}

func (s *MemoryRecordStore) FindByPhone(ctx context.Context, phone string) ([]model.Record, error) {
	if err := s.wait(ctx); err != nil {
		return nil, errors2.NewStoreError(errors2.KindOf(err), errors2.FIND_GROUP_RECORDS, err)
	}
	if s.OnFind != nil {
		if err := s.OnFind(phone); err != nil {
			return nil, err
		}
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var out []model.Record
	for _, r := range s.records {
		if p, ok := r.Phone(); ok && p == phone {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (s *MemoryRecordStore) Replace(ctx context.Context, id interface{}, doc model.Record, upsert bool) error {
	if err := s.wait(ctx); err != nil {
		return errors2.NewStoreError(errors2.KindOf(err), errors2.REPLACE_MASTER, err)
	}
	if s.OnReplace != nil {
		if err := s.OnReplace(model.IDString(id)); err != nil {
			return err
		}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	doc = doc.Clone()
	if docID, ok := doc.ID(); !ok || model.CompareIDs(docID, id) != 0 {
		doc = doc.Set(constants.IdField, id)
	}
	if i := s.indexOf(id); i >= 0 {
		s.records[i] = doc
		return nil
	}
	if !upsert {
		return errors2.NewStoreError(errors2.KindNotFound, errors2.MASTER_NOT_FOUND,
			fmt.Errorf("no record with id %s", model.IDString(id)))
	}
	s.records = append(s.records, doc)
	return nil
}

func (s *MemoryRecordStore) Delete(ctx context.Context, id interface{}) error {
	if err := s.wait(ctx); err != nil {
		return errors2.NewStoreError(errors2.KindOf(err), errors2.DELETE_DUPLICATE, err)
	}
	if s.OnDelete != nil {
		if err := s.OnDelete(model.IDString(id)); err != nil {
			return err
		}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if i := s.indexOf(id); i >= 0 {
		s.records = append(s.records[:i], s.records[i+1:]...)
	}
	return nil
}

func (s *MemoryRecordStore) DuplicateSummary(ctx context.Context, window *model.TimeWindow) (model.DuplicateSummary, error) {
	var summary model.DuplicateSummary
	if err := s.wait(ctx); err != nil {
		return summary, errors2.NewStoreError(errors2.KindOf(err), errors2.SUMMARIZE_DUPLICATES, err)
	}
	for _, count := range s.countPhones(window) {
		if count >= constants.MinDuplicateCount {
			summary.DuplicatePhones++
			summary.TotalDuplicates += count
		}
	}
	return summary, nil
}
