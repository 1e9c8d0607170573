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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/customer-data-dedup/internal/system/config"
)

func TestBuildWindow(t *testing.T) {
	window, err := buildWindow("", "")
	require.NoError(t, err)
	assert.Nil(t, window)

	window, err = buildWindow("2024-05-15T00:00:00Z", "2024-05-16T00:00:00Z")
	require.NoError(t, err)
	require.NotNil(t, window)
	assert.Equal(t, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), window.Start)
	assert.Equal(t, time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC), window.End)

	window, err = buildWindow("2024-05-15T00:00:00Z", "")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), window.End, time.Minute)

	_, err = buildWindow("2024-05-16T00:00:00Z", "2024-05-15T00:00:00Z")
	assert.Error(t, err)
	_, err = buildWindow("yesterday", "")
	assert.Error(t, err)
}

func TestBuildBatchOptions(t *testing.T) {
	opts, err := buildBatchOptions(config.MergeConfig{
		MaxGroups:      50,
		MaxConcurrency: 4,
		GroupTimeout:   "15s",
		DryRun:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, 50, opts.MaxGroups)
	assert.Equal(t, 4, opts.MaxConcurrency)
	assert.Equal(t, 15*time.Second, opts.GroupTimeout)
	assert.True(t, opts.DryRun)
	assert.Nil(t, opts.Window)

	_, err = buildBatchOptions(config.MergeConfig{GroupTimeout: "soon"})
	assert.Error(t, err)
}

func TestApplyMergeFlags(t *testing.T) {
	var home string
	cmd := newMergeCommand(&home)
	require.NoError(t, cmd.ParseFlags([]string{"--max-groups", "7", "--dry-run"}))

	flags := &mergeFlags{}
	// Re-read parsed values through the flag set.
	flags.maxGroups, _ = cmd.Flags().GetInt("max-groups")
	flags.dryRun, _ = cmd.Flags().GetBool("dry-run")

	cfg := applyMergeFlags(cmd, flags, config.MergeConfig{MaxGroups: 100, MaxConcurrency: 5, FailOnAllFailed: true})
	assert.Equal(t, 7, cfg.MaxGroups)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, 5, cfg.MaxConcurrency, "unset flags keep the configured value")
	assert.True(t, cfg.FailOnAllFailed)
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"merge", "duplicates"}, names)
}
