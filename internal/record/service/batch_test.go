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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/customer-data-dedup/internal/record/model"
	"github.com/wso2/customer-data-dedup/internal/record/store"
	errors2 "github.com/wso2/customer-data-dedup/internal/system/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seededStore() *store.MemoryRecordStore {
	return store.NewMemoryRecordStore(
		userRecord("a1", "111", t0, account("A")),
		userRecord("a2", "111", t1, account("B")),
		userRecord("a3", "111", t2),
		userRecord("b1", "222", t0, account("C")),
		userRecord("b2", "222", t1, account("D")),
		userRecord("c1", "333", t0, account("E")),
	)
}

func phoneCounts(records []model.Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		phone, _ := r.Phone()
		counts[phone]++
	}
	return counts
}

func TestBatchDriver_Run(t *testing.T) {
	s := seededStore()

	report, err := NewBatchDriver(s).Run(context.Background(), BatchOptions{MaxGroups: 10, MaxConcurrency: 4})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Groups)
	assert.Equal(t, 2, report.Merged)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 0, report.ExitCode(true))

	assert.Equal(t, map[string]int{"111": 1, "222": 1, "333": 1}, phoneCounts(s.All()))
	master, ok := s.Get("a3")
	require.True(t, ok)
	assert.Equal(t, 2, len(master.Accounts()))

	again, err := NewBatchDriver(s).Run(context.Background(), BatchOptions{MaxGroups: 10, MaxConcurrency: 4})
	require.NoError(t, err)
	assert.Zero(t, again.Groups, "a second run finds nothing to merge")
}

func TestBatchDriver_DryRunDoesNotWrite(t *testing.T) {
	s := seededStore()
	before := s.All()

	report, err := NewBatchDriver(s).Run(context.Background(),
		BatchOptions{MaxGroups: 10, MaxConcurrency: 2, DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Merged)
	assert.Equal(t, before, s.All())
}

func TestBatchDriver_FinderErrorIsFatal(t *testing.T) {
	driver := NewBatchDriver(&failingStore{err: fmt.Errorf("no reachable servers")})

	report, err := driver.Run(context.Background(), BatchOptions{MaxGroups: 10, MaxConcurrency: 2})
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestBatchDriver_FailureIsolation(t *testing.T) {
	s := seededStore()
	s.Insert(model.Record{{Key: "_id", Value: "d1"}, {Key: "phone", Value: "444"}},
		userRecord("d2", "444", t0))
	s.OnReplace = func(id string) error {
		if id == "b2" {
			return fmt.Errorf("write concern error")
		}
		return nil
	}

	report, err := NewBatchDriver(s).Run(context.Background(), BatchOptions{MaxGroups: 10, MaxConcurrency: 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"111": "MERGED:",
		"222": "FAILED:STORE_UNAVAILABLE",
		"444": "FAILED:MISSING_TIMESTAMP",
	}, report.Outcomes())
	assert.Equal(t, 0, report.ExitCode(true))
	assert.Equal(t, map[string]int{"111": 1, "222": 2, "333": 1, "444": 2}, phoneCounts(s.All()))
}

func TestBatchDriver_AllFailed(t *testing.T) {
	s := seededStore()
	s.OnFind = func(phone string) error { return fmt.Errorf("cursor killed") }

	report, err := NewBatchDriver(s).Run(context.Background(), BatchOptions{MaxGroups: 10, MaxConcurrency: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failed)
	assert.True(t, report.AllFailed())
	assert.Equal(t, 1, report.ExitCode(true))
	assert.Equal(t, 0, report.ExitCode(false))
}

func TestBatchDriver_GroupTimeout(t *testing.T) {
	s := seededStore()
	s.Latency = 50 * time.Millisecond

	report, err := NewBatchDriver(s).Run(context.Background(),
		BatchOptions{MaxGroups: 10, MaxConcurrency: 2, GroupTimeout: 10 * time.Millisecond})
	require.NoError(t, err)
	require.Equal(t, 2, report.Failed)
	for _, failure := range report.Failures {
		assert.Equal(t, errors2.KindTimeout, failure.Kind)
	}
}

func TestBatchDriver_WindowLimitsGroups(t *testing.T) {
	s := seededStore()
	s.Insert(userRecord("z1", "999", t0.Add(-48*time.Hour)), userRecord("z2", "999", t0.Add(-48*time.Hour)))
	window, err := model.NewTimeWindow(t0, t0.Add(24*time.Hour))
	require.NoError(t, err)

	report, err := NewBatchDriver(s).Run(context.Background(),
		BatchOptions{Window: window, MaxGroups: 10, MaxConcurrency: 2})
	require.NoError(t, err)
	_, touched := report.Outcomes()["999"]
	assert.False(t, touched)
	assert.Equal(t, 2, phoneCounts(s.All())["999"])
}

func TestBatchDriver_SameOutcomeAtAnyConcurrency(t *testing.T) {
	build := func() *store.MemoryRecordStore {
		s := store.NewMemoryRecordStore()
		for i := 0; i < 20; i++ {
			phone := fmt.Sprintf("07%08d", i)
			for j := 0; j < 1+i%4; j++ {
				s.Insert(model.Record{
					{Key: "_id", Value: fmt.Sprintf("%s-%d", phone, j)},
					{Key: "phone", Value: phone},
					{Key: "updatedAt", Value: primitive.NewDateTimeFromTime(t0.Add(time.Duration(j) * time.Minute))},
				})
			}
		}
		return s
	}

	serialStore, parallelStore := build(), build()
	serial, err := NewBatchDriver(serialStore).Run(context.Background(), BatchOptions{MaxConcurrency: 1})
	require.NoError(t, err)
	parallel, err := NewBatchDriver(parallelStore).Run(context.Background(), BatchOptions{MaxConcurrency: 8})
	require.NoError(t, err)

	assert.Equal(t, 15, serial.Groups)
	assert.Equal(t, serial.Outcomes(), parallel.Outcomes())
	assert.Equal(t, serialStore.All(), parallelStore.All())
}
