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

import "sync"

// DedupRuntime holds the runtime configuration for the dedup tool.
type DedupRuntime struct {
	DedupHome string `yaml:"dedup_home"`
	Config    Config `yaml:"config"`
}

var (
	runtimeConfig *DedupRuntime
	once          sync.Once
)

// InitializeDedupRuntime initializes the DedupRuntime configuration.
func InitializeDedupRuntime(dedupHome string, config *Config) error {

	once.Do(func() {
		runtimeConfig = &DedupRuntime{
			DedupHome: dedupHome,
			Config:    *config,
		}
	})

	return nil
}

// GetDedupRuntime returns the DedupRuntime configuration.
func GetDedupRuntime() *DedupRuntime {

	if runtimeConfig == nil {
		panic("DedupRuntime is not initialized")
	}
	return runtimeConfig
}
