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

package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wso2/customer-data-dedup/internal/record/model"
	"github.com/wso2/customer-data-dedup/internal/system/constants"
	errors2 "github.com/wso2/customer-data-dedup/internal/system/errors"
	"github.com/wso2/customer-data-dedup/internal/system/log"
	"golang.org/x/sync/errgroup"
)

// GroupProcessor merges and persists one duplicate group. It reports every
// outcome, including failures, through the returned result.
type GroupProcessor interface {
	ProcessGroup(ctx context.Context, group model.DuplicateGroup) model.GroupResult
}

// GroupProcessorFunc adapts a function to GroupProcessor.
type GroupProcessorFunc func(ctx context.Context, group model.DuplicateGroup) model.GroupResult

func (f GroupProcessorFunc) ProcessGroup(ctx context.Context, group model.DuplicateGroup) model.GroupResult {
	return f(ctx, group)
}

// MergeCoordinator fans duplicate groups out to a fixed pool of workers.
type MergeCoordinator struct {
	processor    GroupProcessor
	groupTimeout time.Duration
}

// NewMergeCoordinator creates a coordinator. A groupTimeout of zero lets a
// group run for as long as its context allows.
func NewMergeCoordinator(processor GroupProcessor, groupTimeout time.Duration) *MergeCoordinator {

	return &MergeCoordinator{
		processor:    processor,
		groupTimeout: groupTimeout,
	}
}

// Run processes every group with at most maxConcurrency in flight and returns
// once all of them have settled.
func (c *MergeCoordinator) Run(ctx context.Context, groups []model.DuplicateGroup,
	maxConcurrency int) *model.BatchReport {

	report := model.NewBatchReport(false)
	c.RunWithReport(ctx, report, groups, maxConcurrency)
	return report
}

// RunWithReport is Run collecting into a report the caller created.
func (c *MergeCoordinator) RunWithReport(ctx context.Context, report *model.BatchReport,
	groups []model.DuplicateGroup, maxConcurrency int) {

	logger := log.GetLogger().With(log.String("run_id", report.RunID))
	if maxConcurrency <= 0 {
		maxConcurrency = constants.DefaultMaxConcurrency
	}
	workerCount := maxConcurrency
	if len(groups) < workerCount {
		workerCount = len(groups)
	}

	// Every group is queued up front; the queue is closed so idle workers exit.
	queue := make(chan model.DuplicateGroup, len(groups))
	for _, group := range groups {
		queue <- group
	}
	close(queue)

	results := make(chan model.GroupResult, workerCount)

	var pool errgroup.Group
	for i := 0; i < workerCount; i++ {
		worker := i
		pool.Go(func() error {
			for group := range queue {
				results <- c.runTask(ctx, logger.With(log.Int("worker", worker)), group)
			}
			return nil
		})
	}

	go func() {
		_ = pool.Wait()
		close(results)
	}()

	for result := range results {
		report.Add(result)
	}
	report.Finish()

	logger.Info("Merge batch finished", log.Int("groups", report.Groups), log.Int("merged", report.Merged),
		log.Int("skipped_empty", report.SkippedEmpty), log.Int("failed", report.Failed),
		log.Int("delete_failures", len(report.DeleteFailures)), log.Int("workers", workerCount),
		log.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))
}

// runTask processes one group in isolation. A panic or an exceeded deadline
// fails only this group.
func (c *MergeCoordinator) runTask(ctx context.Context, logger *log.Logger,
	group model.DuplicateGroup) (result model.GroupResult) {

	start := time.Now()
	taskCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.groupTimeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, c.groupTimeout)
	}
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			result = model.NewFailedResult(group.Phone, errors2.NewMergeError(errors2.KindInternal,
				errors2.GROUP_PANIC, group.Phone, fmt.Errorf("panic: %v", r)))
		}
		result.Phone = group.Phone
		result.Duration = time.Since(start)
		logGroupResult(logger, result)
	}()

	result = c.processor.ProcessGroup(taskCtx, group)
	if result.Status == model.StatusFailed && ctx.Err() == nil &&
		errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
		timeoutErr := errors2.NewMergeError(errors2.KindTimeout, errors2.GROUP_TIMEOUT, group.Phone,
			fmt.Errorf("exceeded %s: %s", c.groupTimeout, result.Message))
		result.Kind = errors2.KindTimeout
		result.Message = timeoutErr.Error()
	}
	return result
}

func logGroupResult(logger *log.Logger, result model.GroupResult) {
	fields := []log.Field{
		log.Phone(result.Phone),
		log.String("status", string(result.Status)),
		log.Duration("duration", result.Duration),
	}
	switch result.Status {
	case model.StatusMerged:
		logger.Info("Merged duplicate group", append(fields, log.String("master_id", result.MasterID),
			log.Int("deleted", result.Deleted), log.Int("accounts", result.AccountsMerged))...)
	case model.StatusSkippedEmpty:
		logger.Debug("Skipped resolved duplicate group", fields...)
	default:
		logger.Error("Failed to merge duplicate group", append(fields, log.String("kind", string(result.Kind)),
			log.String("error", result.Message))...)
	}
}
