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

	"github.com/wso2/customer-data-dedup/internal/record/model"
	"github.com/wso2/customer-data-dedup/internal/record/store"
	"github.com/wso2/customer-data-dedup/internal/system/constants"
	errors2 "github.com/wso2/customer-data-dedup/internal/system/errors"
	"github.com/wso2/customer-data-dedup/internal/system/log"
)

// DuplicateFinderInterface lists the phone numbers that need merging.
type DuplicateFinderInterface interface {
	FindGroups(ctx context.Context, window *model.TimeWindow, maxGroups int) ([]model.DuplicateGroup, error)
	Summary(ctx context.Context, window *model.TimeWindow) (model.DuplicateSummary, error)
}

// DuplicateFinder is the default implementation of DuplicateFinderInterface.
type DuplicateFinder struct {
	store store.RecordStore
}

// NewDuplicateFinder creates a finder reading from recordStore.
func NewDuplicateFinder(recordStore store.RecordStore) DuplicateFinderInterface {

	return &DuplicateFinder{store: recordStore}
}

// FindGroups returns the phones shared by more than one record updated in
// window, largest group first, ties by ascending phone, capped at maxGroups.
// A maxGroups of zero or less means no cap.
func (f *DuplicateFinder) FindGroups(ctx context.Context, window *model.TimeWindow,
	maxGroups int) ([]model.DuplicateGroup, error) {

	logger := log.GetLogger()
	groups, err := f.store.CountByPhone(ctx, model.GroupQuery{
		Window:   window,
		MinCount: constants.MinDuplicateCount,
		Limit:    maxGroups,
	})
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to list duplicate groups in window %s", window)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.FIND_DUPLICATE_GROUPS.Code,
			Message:     errors2.FIND_DUPLICATE_GROUPS.Message,
			Description: errorMsg,
		}, err)
	}

	groups = rankGroups(groups, maxGroups)
	logger.Info("Found duplicate groups", log.Int("groups", len(groups)),
		log.String("window", window.String()), log.Int("max_groups", maxGroups))
	return groups, nil
}

// rankGroups drops non-duplicates, orders by count then phone and truncates.
// Stores already do this; repeating it keeps the order independent of them.
func rankGroups(groups []model.DuplicateGroup, maxGroups int) []model.DuplicateGroup {

	ranked := make([]model.DuplicateGroup, 0, len(groups))
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		if g.Count < constants.MinDuplicateCount || g.Phone == "" || seen[g.Phone] {
			continue
		}
		seen[g.Phone] = true
		ranked = append(ranked, g)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Phone < ranked[j].Phone
	})
	if maxGroups > 0 && len(ranked) > maxGroups {
		ranked = ranked[:maxGroups]
	}
	return ranked
}

// Summary counts duplicate phones and the records they span.
func (f *DuplicateFinder) Summary(ctx context.Context, window *model.TimeWindow) (model.DuplicateSummary, error) {

	summary, err := f.store.DuplicateSummary(ctx, window)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to summarize duplicates in window %s", window)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return model.DuplicateSummary{}, errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.SUMMARIZE_DUPLICATES.Code,
			Message:     errors2.SUMMARIZE_DUPLICATES.Message,
			Description: errorMsg,
		}, err)
	}
	return summary, nil
}
