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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/wso2/customer-data-dedup/internal/record/model"
	"github.com/wso2/customer-data-dedup/internal/record/provider"
	"github.com/wso2/customer-data-dedup/internal/record/service"
	"github.com/wso2/customer-data-dedup/internal/system/config"
	"github.com/wso2/customer-data-dedup/internal/system/constants"
	errors2 "github.com/wso2/customer-data-dedup/internal/system/errors"
	"github.com/wso2/customer-data-dedup/internal/system/log"
)

var errAllGroupsFailed = errors.New("every attempted duplicate group failed")

// mergeFlags mirrors the merge section of the deployment config.
type mergeFlags struct {
	maxGroups       int
	maxConcurrency  int
	groupTimeout    string
	windowStart     string
	windowEnd       string
	dryRun          bool
	failOnAllFailed bool
}

func newRootCommand() *cobra.Command {
	var home string

	root := &cobra.Command{
		Use:           "dedup",
		Short:         "Merge user records that share a phone number",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&home, "home", "", "Path to the dedup home directory (defaults to the working directory)")

	root.AddCommand(newMergeCommand(&home))
	root.AddCommand(newDuplicatesCommand(&home))
	return root
}

func newMergeCommand(home *string) *cobra.Command {
	flags := &mergeFlags{}

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge one batch of duplicate phone groups",
		Example: `  dedup merge --max-groups 500 --max-concurrency 10
  dedup merge --window-start 2024-05-15T00:00:00Z --window-end 2024-05-16T00:00:00Z --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dedupConfig, err := initRuntime(getDedupHome(*home))
			if err != nil {
				return err
			}
			mergeConfig := applyMergeFlags(cmd, flags, dedupConfig.Merge)
			opts, err := buildBatchOptions(mergeConfig)
			if err != nil {
				return err
			}

			recordProvider := provider.NewRecordProvider()
			if !opts.DryRun {
				release, err := acquireRunLock(cmd.Context(), recordProvider, dedupConfig.MongoDB.Collection,
					mergeConfig.LockTTL)
				if err != nil {
					return err
				}
				defer release()
			}

			driver, err := recordProvider.GetBatchDriver(cmd.Context())
			if err != nil {
				return err
			}
			report, err := driver.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.ExitCode(mergeConfig.FailOnAllFailed) != 0 {
				return errAllGroupsFailed
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&flags.maxGroups, "max-groups", constants.DefaultMaxGroups, "Maximum number of duplicate groups to merge")
	cmd.Flags().IntVar(&flags.maxConcurrency, "max-concurrency", constants.DefaultMaxConcurrency, "Maximum number of groups merged at once")
	cmd.Flags().StringVar(&flags.groupTimeout, "group-timeout", "", "Time budget per group, e.g. 30s (empty for none)")
	cmd.Flags().StringVar(&flags.windowStart, "window-start", "", "Only consider records updated at or after this RFC3339 time")
	cmd.Flags().StringVar(&flags.windowEnd, "window-end", "", "Only consider records updated before this RFC3339 time")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Compute and log merges without writing")
	cmd.Flags().BoolVar(&flags.failOnAllFailed, "fail-on-all-failed", true, "Exit non-zero when every attempted group failed")
	return cmd
}

func newDuplicatesCommand(home *string) *cobra.Command {
	var windowStart, windowEnd string

	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Summarize duplicate phone numbers without merging",
		RunE: func(cmd *cobra.Command, args []string) error {
			dedupConfig, err := initRuntime(getDedupHome(*home))
			if err != nil {
				return err
			}
			mergeConfig := dedupConfig.Merge
			if cmd.Flags().Changed("window-start") {
				mergeConfig.WindowStart = windowStart
			}
			if cmd.Flags().Changed("window-end") {
				mergeConfig.WindowEnd = windowEnd
			}
			window, err := buildWindow(mergeConfig.WindowStart, mergeConfig.WindowEnd)
			if err != nil {
				return err
			}

			driver, err := provider.NewRecordProvider().GetBatchDriver(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := driver.Summary(cmd.Context(), window)
			if err != nil {
				return err
			}
			log.GetLogger().Info("Duplicate summary", log.String("window", window.String()),
				log.Int("duplicate_phones", summary.DuplicatePhones),
				log.Int("total_duplicates", summary.TotalDuplicates))
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().StringVar(&windowStart, "window-start", "", "Only consider records updated at or after this RFC3339 time")
	cmd.Flags().StringVar(&windowEnd, "window-end", "", "Only consider records updated before this RFC3339 time")
	return cmd
}

// acquireRunLock takes the per collection merge lock and returns its release.
func acquireRunLock(ctx context.Context, recordProvider provider.RecordProviderInterface, collection,
	lockTTL string) (func(), error) {

	ttl, err := config.ParseDuration(lockTTL, constants.DefaultLockTTL)
	if err != nil {
		return nil, err
	}
	runLock, err := recordProvider.GetRunLock(ctx)
	if err != nil {
		return nil, err
	}

	key := "merge:" + collection
	owner := uuid.NewString()
	acquired, err := runLock.Acquire(ctx, key, owner, ttl)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, errors2.NewServerError(errors2.LOCK_HELD, fmt.Errorf("lock %s is held", key))
	}
	return func() {
		if err := runLock.Release(context.Background(), key, owner); err != nil {
			log.GetLogger().Warn("Failed to release merge lock", log.String("key", key), log.Error(err))
		}
	}, nil
}

// applyMergeFlags overrides cfg with every flag set on the command line.
func applyMergeFlags(cmd *cobra.Command, flags *mergeFlags, cfg config.MergeConfig) config.MergeConfig {
	changed := cmd.Flags().Changed
	if changed("max-groups") {
		cfg.MaxGroups = flags.maxGroups
	}
	if changed("max-concurrency") {
		cfg.MaxConcurrency = flags.maxConcurrency
	}
	if changed("group-timeout") {
		cfg.GroupTimeout = flags.groupTimeout
	}
	if changed("window-start") {
		cfg.WindowStart = flags.windowStart
	}
	if changed("window-end") {
		cfg.WindowEnd = flags.windowEnd
	}
	if changed("dry-run") {
		cfg.DryRun = flags.dryRun
	}
	if changed("fail-on-all-failed") {
		cfg.FailOnAllFailed = flags.failOnAllFailed
	}
	return cfg
}

func buildBatchOptions(cfg config.MergeConfig) (service.BatchOptions, error) {
	window, err := buildWindow(cfg.WindowStart, cfg.WindowEnd)
	if err != nil {
		return service.BatchOptions{}, err
	}
	groupTimeout, err := config.ParseDuration(cfg.GroupTimeout, 0)
	if err != nil {
		return service.BatchOptions{}, err
	}
	return service.BatchOptions{
		Window:         window,
		MaxGroups:      cfg.MaxGroups,
		MaxConcurrency: cfg.MaxConcurrency,
		GroupTimeout:   groupTimeout,
		DryRun:         cfg.DryRun,
	}, nil
}

// buildWindow returns nil when both bounds are empty. A single bound is
// completed with the epoch or the current time.
func buildWindow(start, end string) (*model.TimeWindow, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	startTime, err := config.ParseTimestamp(start)
	if err != nil {
		return nil, err
	}
	endTime, err := config.ParseTimestamp(end)
	if err != nil {
		return nil, err
	}
	if start == "" {
		startTime = time.Unix(0, 0).UTC()
	}
	if end == "" {
		endTime = time.Now().UTC()
	}
	window, err := model.NewTimeWindow(startTime, endTime)
	if err != nil {
		return nil, fmt.Errorf("invalid window: %w", err)
	}
	return window, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
