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

package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/wso2/customer-data-dedup/internal/system/constants"
	"gopkg.in/yaml.v2"
)

// LoadConfig reads the deployment file under dedupHome, expanding ${VAR}
// references from the environment before parsing.
func LoadConfig(dedupHome, filePath string) (*Config, error) {
	file, err := os.ReadFile(path.Join(dedupHome, filePath))
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(file))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// OverrideDedupRuntime replaces the runtime configuration. Used by tests.
func OverrideDedupRuntime(conf Config) {
	applyDefaults(&conf)
	runtimeConfig = &DedupRuntime{
		Config: conf,
	}
}

func applyDefaults(cfg *Config) {
	if cfg.MongoDB.Database == "" {
		cfg.MongoDB.Database = constants.DefaultDatabase
	}
	if cfg.MongoDB.Collection == "" {
		cfg.MongoDB.Collection = constants.DefaultCollection
	}
	if cfg.Merge.MaxGroups == 0 {
		cfg.Merge.MaxGroups = constants.DefaultMaxGroups
	}
	if cfg.Merge.MaxConcurrency <= 0 {
		cfg.Merge.MaxConcurrency = constants.DefaultMaxConcurrency
	}
}

// ParseDuration parses value, returning fallback when it is empty.
func ParseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return d, nil
}

// ParseTimestamp parses an RFC3339 timestamp. An empty value yields the zero time.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}
