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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/customer-data-dedup/internal/record/model"
	errors2 "github.com/wso2/customer-data-dedup/internal/system/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func user(id, phone string, updatedAt time.Time) model.Record {
	return model.Record{
		{Key: "_id", Value: id},
		{Key: "phone", Value: phone},
		{Key: "updatedAt", Value: primitive.NewDateTimeFromTime(updatedAt)},
	}
}

var day = time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

func TestMemoryRecordStore_CountByPhone(t *testing.T) {
	s := NewMemoryRecordStore(
		user("1", "111", day), user("2", "111", day),
		user("3", "222", day), user("4", "222", day), user("5", "222", day),
		user("6", "333", day), user("7", "333", day),
		user("8", "444", day),
		model.Record{{Key: "_id", Value: "9"}, {Key: "phone", Value: ""}},
		model.Record{{Key: "_id", Value: "10"}, {Key: "phone", Value: ""}},
	)

	groups, err := s.CountByPhone(context.Background(), model.GroupQuery{MinCount: 2})
	require.NoError(t, err)
	assert.Equal(t, []model.DuplicateGroup{
		{Phone: "222", Count: 3},
		{Phone: "111", Count: 2},
		{Phone: "333", Count: 2},
	}, groups)

	groups, err = s.CountByPhone(context.Background(), model.GroupQuery{MinCount: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestMemoryRecordStore_CountByPhone_Window(t *testing.T) {
	s := NewMemoryRecordStore(
		user("1", "111", day.Add(2*time.Hour)),
		user("2", "111", day.Add(26*time.Hour)),
		user("3", "222", day.Add(time.Hour)),
		user("4", "222", day.Add(3*time.Hour)),
		model.Record{{Key: "_id", Value: "5"}, {Key: "phone", Value: "222"}},
	)
	window, err := model.NewTimeWindow(day, day.Add(24*time.Hour))
	require.NoError(t, err)

	groups, err := s.CountByPhone(context.Background(), model.GroupQuery{Window: window, MinCount: 2})
	require.NoError(t, err)
	assert.Equal(t, []model.DuplicateGroup{{Phone: "222", Count: 2}}, groups)
}

func TestMemoryRecordStore_ReplaceAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRecordStore(user("1", "111", day), user("2", "111", day))

	updated := user("1", "111", day).Set("name", "Ann")
	require.NoError(t, s.Replace(ctx, "1", updated, false))
	got, ok := s.Get("1")
	require.True(t, ok)
	name, _ := got.Get("name")
	assert.Equal(t, "Ann", name)

	err := s.Replace(ctx, "missing", user("missing", "111", day), false)
	assert.True(t, errors2.IsKind(err, errors2.KindNotFound))

	require.NoError(t, s.Replace(ctx, "new", user("other", "111", day), true))
	got, ok = s.Get("new")
	require.True(t, ok, "upsert inserts under the given id")
	id, _ := got.ID()
	assert.Equal(t, "new", id)

	require.NoError(t, s.Delete(ctx, "2"))
	require.NoError(t, s.Delete(ctx, "2"), "deleting a missing record succeeds")
	_, ok = s.Get("2")
	assert.False(t, ok)
	assert.Len(t, s.All(), 2)
}

func TestMemoryRecordStore_ReturnsCopies(t *testing.T) {
	original := user("1", "111", day)
	s := NewMemoryRecordStore(original)
	original[1].Value = "999"

	records, err := s.FindByPhone(context.Background(), "111")
	require.NoError(t, err)
	require.Len(t, records, 1)
	records[0][1].Value = "changed"

	again, err := s.FindByPhone(context.Background(), "111")
	require.NoError(t, err)
	assert.Len(t, again, 1)
}

func TestMemoryRecordStore_Hooks(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRecordStore(user("1", "111", day))
	s.OnDelete = func(id string) error { return fmt.Errorf("delete %s refused", id) }

	err := s.Delete(ctx, "1")
	assert.Error(t, err)
	_, ok := s.Get("1")
	assert.True(t, ok, "a failed delete leaves the record")
}

func TestMemoryRecordStore_LatencyHonorsContext(t *testing.T) {
	s := NewMemoryRecordStore(user("1", "111", day))
	s.Latency = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.FindByPhone(ctx, "111")
	assert.True(t, errors2.IsKind(err, errors2.KindTimeout))
}

func TestMemoryRecordStore_DuplicateSummary(t *testing.T) {
	s := NewMemoryRecordStore(
		user("1", "111", day), user("2", "111", day),
		user("3", "222", day), user("4", "222", day), user("5", "222", day),
		user("6", "333", day),
	)
	summary, err := s.DuplicateSummary(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, model.DuplicateSummary{DuplicatePhones: 2, TotalDuplicates: 5}, summary)
}
