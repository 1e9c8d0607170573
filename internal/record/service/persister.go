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

	"github.com/wso2/customer-data-dedup/internal/record/model"
	"github.com/wso2/customer-data-dedup/internal/record/store"
	errors2 "github.com/wso2/customer-data-dedup/internal/system/errors"
	"github.com/wso2/customer-data-dedup/internal/system/log"
)

// Persister commits a merge outcome: the master is replaced first, then the
// duplicates are deleted one at a time.
type Persister struct {
	store  store.RecordStore
	runID  string
	logger *log.Logger
}

// NewPersister creates a persister writing to recordStore. runID tags audit events.
func NewPersister(recordStore store.RecordStore, runID string) *Persister {

	return &Persister{
		store:  recordStore,
		runID:  runID,
		logger: log.GetLogger().With(log.String("run_id", runID)),
	}
}

// Apply writes outcome. A failed replace fails the group and no delete is
// attempted. Once the replace lands the merge is committed: delete failures
// are collected on the result and the remaining deletes still run, since a
// later run re-finds the phone and finishes the cleanup.
func (p *Persister) Apply(ctx context.Context, outcome *model.MergeOutcome) (model.GroupResult, error) {

	phone := outcome.Phone
	masterID := model.IDString(outcome.MasterID)
	logger := p.logger.With(log.Phone(phone))

	// Upsert so the merge still lands if the master vanished since it was read.
	if err := p.store.Replace(ctx, outcome.MasterID, outcome.Merged, true); err != nil {
		err = errors2.WithPhone(err, phone)
		logger.Error("Failed to replace master record", log.String("master_id", masterID), log.Error(err))
		return model.GroupResult{}, err
	}
	logger.Audit(log.AuditEvent{
		RunID:    p.runID,
		ActionID: log.ActionReplaceMaster,
		Phone:    phone,
		TargetID: masterID,
		Data:     map[string]int{"accounts": len(outcome.Merged.Accounts()), "members": outcome.MemberCount},
	})

	result := model.GroupResult{
		Phone:          phone,
		Status:         model.StatusMerged,
		MasterID:       masterID,
		AccountsMerged: len(outcome.Merged.Accounts()),
	}
	for _, id := range outcome.ToDelete {
		err := p.store.Delete(ctx, id)
		if err != nil && !errors2.IsKind(err, errors2.KindNotFound) {
			logger.Warn("Failed to delete duplicate record", log.String("id", model.IDString(id)), log.Error(err))
			result.DeleteFailures = append(result.DeleteFailures, model.DeleteFailure{
				Phone:   phone,
				ID:      model.IDString(id),
				Kind:    errors2.KindOf(err),
				Message: err.Error(),
			})
			continue
		}
		result.Deleted++
		logger.Audit(log.AuditEvent{
			RunID:    p.runID,
			ActionID: log.ActionDeleteDuplicate,
			Phone:    phone,
			TargetID: model.IDString(id),
			Data:     map[string]string{"merged_into": masterID},
		})
	}
	return result, nil
}
