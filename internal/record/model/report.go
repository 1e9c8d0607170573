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

package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
	errors2 "github.com/wso2/customer-data-dedup/internal/system/errors"
)

type GroupStatus string

const (
	StatusMerged       GroupStatus = "MERGED"
	StatusSkippedEmpty GroupStatus = "SKIPPED_EMPTY"
	StatusFailed       GroupStatus = "FAILED"
)

// DeleteFailure is a duplicate that survived its group's merge.
type DeleteFailure struct {
	Phone   string            `json:"phone"`
	ID      string            `json:"id"`
	Kind    errors2.ErrorKind `json:"kind"`
	Message string            `json:"message"`
}

// GroupFailure is a group whose merge was not committed.
type GroupFailure struct {
	Phone   string            `json:"phone"`
	Kind    errors2.ErrorKind `json:"kind"`
	Message string            `json:"message"`
}

// GroupResult is what one coordinator task reports for its group.
type GroupResult struct {
	Phone          string            `json:"phone"`
	Status         GroupStatus       `json:"status"`
	Kind           errors2.ErrorKind `json:"kind,omitempty"`
	Message        string            `json:"message,omitempty"`
	MasterID       string            `json:"master_id,omitempty"`
	Deleted        int               `json:"deleted"`
	AccountsMerged int               `json:"accounts_merged"`
	DeleteFailures []DeleteFailure   `json:"delete_failures,omitempty"`
	Duration       time.Duration     `json:"duration"`
}

// NewFailedResult builds the result of a group that failed with err.
func NewFailedResult(phone string, err error) GroupResult {
	kind := errors2.KindOf(err)
	if kind == errors2.KindEmptyGroup {
		return GroupResult{Phone: phone, Status: StatusSkippedEmpty, Kind: kind, Message: err.Error()}
	}
	return GroupResult{Phone: phone, Status: StatusFailed, Kind: kind, Message: err.Error()}
}

// BatchReport aggregates the results of one merge run.
type BatchReport struct {
	RunID          string          `json:"run_id"`
	DryRun         bool            `json:"dry_run"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
	Groups         int             `json:"groups"`
	Merged         int             `json:"merged"`
	SkippedEmpty   int             `json:"skipped_empty"`
	Failed         int             `json:"failed"`
	Failures       []GroupFailure  `json:"failures,omitempty"`
	DeleteFailures []DeleteFailure `json:"delete_failures,omitempty"`
	Results        []GroupResult   `json:"results"`
}

func NewBatchReport(dryRun bool) *BatchReport {
	return &BatchReport{
		RunID:     uuid.NewString(),
		DryRun:    dryRun,
		StartedAt: time.Now().UTC(),
	}
}

// Add records one group result. It is not safe for concurrent use; the
// coordinator funnels results through a single collector.
func (r *BatchReport) Add(result GroupResult) {
	r.Groups++
	switch result.Status {
	case StatusMerged:
		r.Merged++
	case StatusSkippedEmpty:
		r.SkippedEmpty++
	default:
		r.Failed++
		r.Failures = append(r.Failures, GroupFailure{
			Phone:   result.Phone,
			Kind:    result.Kind,
			Message: result.Message,
		})
	}
	r.DeleteFailures = append(r.DeleteFailures, result.DeleteFailures...)
	r.Results = append(r.Results, result)
}

// Finish stamps the report and orders its lists by phone so reports from
// different concurrency levels compare equal.
func (r *BatchReport) Finish() {
	r.FinishedAt = time.Now().UTC()
	sort.SliceStable(r.Results, func(i, j int) bool { return r.Results[i].Phone < r.Results[j].Phone })
	sort.SliceStable(r.Failures, func(i, j int) bool { return r.Failures[i].Phone < r.Failures[j].Phone })
	sort.SliceStable(r.DeleteFailures, func(i, j int) bool {
		if r.DeleteFailures[i].Phone != r.DeleteFailures[j].Phone {
			return r.DeleteFailures[i].Phone < r.DeleteFailures[j].Phone
		}
		return r.DeleteFailures[i].ID < r.DeleteFailures[j].ID
	})
}

// Outcomes maps every group to its status and error kind.
func (r *BatchReport) Outcomes() map[string]string {
	out := make(map[string]string, len(r.Results))
	for _, result := range r.Results {
		out[result.Phone] = string(result.Status) + ":" + string(result.Kind)
	}
	return out
}

// AllFailed reports whether every attempted group failed. Empty groups are
// not attempts, and a run with no attempts has not failed.
func (r *BatchReport) AllFailed() bool {
	attempted := r.Merged + r.Failed
	return attempted > 0 && r.Failed == attempted
}

// ExitCode is the process status the report warrants.
func (r *BatchReport) ExitCode(failOnAllFailed bool) int {
	if failOnAllFailed && r.AllFailed() {
		return 1
	}
	return 0
}
