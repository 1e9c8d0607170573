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
	"time"

	"github.com/wso2/customer-data-dedup/internal/record/model"
	"github.com/wso2/customer-data-dedup/internal/record/store"
	dedupcontext "github.com/wso2/customer-data-dedup/internal/system/context"
	errors2 "github.com/wso2/customer-data-dedup/internal/system/errors"
	"github.com/wso2/customer-data-dedup/internal/system/log"
	"github.com/wso2/customer-data-dedup/internal/system/workers"
	"go.mongodb.org/mongo-driver/bson"
)

// BatchOptions are the invocation parameters of one merge run.
type BatchOptions struct {
	Window         *model.TimeWindow
	MaxGroups      int
	MaxConcurrency int
	GroupTimeout   time.Duration
	// DryRun computes and logs every merge without writing anything.
	DryRun bool
}

// BatchDriverInterface runs merge batches over a record store.
type BatchDriverInterface interface {
	Run(ctx context.Context, opts BatchOptions) (*model.BatchReport, error)
	Summary(ctx context.Context, window *model.TimeWindow) (model.DuplicateSummary, error)
}

// BatchDriver is the default implementation of BatchDriverInterface.
type BatchDriver struct {
	store  store.RecordStore
	finder DuplicateFinderInterface
	merger GroupMergerInterface
}

// NewBatchDriver wires the finder and merger to recordStore.
func NewBatchDriver(recordStore store.RecordStore) BatchDriverInterface {

	return &BatchDriver{
		store:  recordStore,
		finder: NewDuplicateFinder(recordStore),
		merger: NewGroupMerger(recordStore),
	}
}

// Run finds duplicate groups and merges them. Only a failure to list the
// groups is returned as an error; per group failures land in the report.
func (d *BatchDriver) Run(ctx context.Context, opts BatchOptions) (*model.BatchReport, error) {

	report := model.NewBatchReport(opts.DryRun)
	ctx = dedupcontext.WithRunID(ctx, report.RunID)
	logger := log.GetLogger().With(log.String("run_id", report.RunID))
	logger.Info("Starting merge batch", log.String("window", opts.Window.String()),
		log.Int("max_groups", opts.MaxGroups), log.Int("max_concurrency", opts.MaxConcurrency),
		log.Duration("group_timeout", opts.GroupTimeout), log.Bool("dry_run", opts.DryRun))

	groups, err := d.finder.FindGroups(ctx, opts.Window, opts.MaxGroups)
	if err != nil {
		logger.Error("Aborting merge batch", log.Error(err))
		return nil, err
	}

	processor := &groupProcessor{
		merger:    d.merger,
		persister: NewPersister(d.store, report.RunID),
		dryRun:    opts.DryRun,
		logger:    logger,
	}
	coordinator := workers.NewMergeCoordinator(processor, opts.GroupTimeout)
	coordinator.RunWithReport(ctx, report, groups, opts.MaxConcurrency)
	return report, nil
}

// Summary reports the duplicate load without merging anything.
func (d *BatchDriver) Summary(ctx context.Context, window *model.TimeWindow) (model.DuplicateSummary, error) {

	return d.finder.Summary(ctx, window)
}

// groupProcessor is the task each coordinator worker runs for a group.
type groupProcessor struct {
	merger    GroupMergerInterface
	persister *Persister
	dryRun    bool
	logger    *log.Logger
}

func (p *groupProcessor) ProcessGroup(ctx context.Context, group model.DuplicateGroup) model.GroupResult {

	outcome, err := p.merger.MergeGroup(ctx, group.Phone)
	if err != nil {
		return model.NewFailedResult(group.Phone, errors2.WithPhone(err, group.Phone))
	}

	if p.dryRun {
		p.logDryRun(outcome)
		return model.GroupResult{
			Phone:          group.Phone,
			Status:         model.StatusMerged,
			MasterID:       model.IDString(outcome.MasterID),
			AccountsMerged: len(outcome.Merged.Accounts()),
		}
	}

	result, err := p.persister.Apply(ctx, outcome)
	if err != nil {
		return model.NewFailedResult(group.Phone, err)
	}
	return result
}

func (p *groupProcessor) logDryRun(outcome *model.MergeOutcome) {

	toDelete := make([]string, 0, len(outcome.ToDelete))
	for _, id := range outcome.ToDelete {
		toDelete = append(toDelete, model.IDString(id))
	}
	fields := []log.Field{
		log.Phone(outcome.Phone),
		log.String("master_id", model.IDString(outcome.MasterID)),
		log.Any("to_delete", toDelete),
	}
	if merged, err := bson.MarshalExtJSON(bson.D(outcome.Merged), false, false); err == nil {
		fields = append(fields, log.String("merged", string(merged)))
	}
	p.logger.Info("Dry run, save skipped", fields...)
}
