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

type LogConfig struct {
	LogLevel string `yaml:"log_level"`
}

type MongoDBConfig struct {
	URI            string `yaml:"uri"`
	Database       string `yaml:"database"`
	Collection     string `yaml:"collection"`
	ConnectTimeout string `yaml:"connect_timeout"`
}

// MergeConfig holds the defaults of a merge batch. Command line flags override them.
type MergeConfig struct {
	MaxGroups       int    `yaml:"max_groups"`
	MaxConcurrency  int    `yaml:"max_concurrency"`
	GroupTimeout    string `yaml:"group_timeout"`
	WindowStart     string `yaml:"window_start"`
	WindowEnd       string `yaml:"window_end"`
	FailOnAllFailed bool   `yaml:"fail_on_all_failed"`
	DryRun          bool   `yaml:"dry_run"`
	LockTTL         string `yaml:"lock_ttl"`
}

type Config struct {
	Log     LogConfig     `yaml:"log"`
	MongoDB MongoDBConfig `yaml:"mongodb"`
	Merge   MergeConfig   `yaml:"merge"`
}
