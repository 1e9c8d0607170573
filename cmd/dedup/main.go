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
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/wso2/customer-data-dedup/internal/system/config"
	"github.com/wso2/customer-data-dedup/internal/system/constants"
	errors2 "github.com/wso2/customer-data-dedup/internal/system/errors"
	"github.com/wso2/customer-data-dedup/internal/system/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initRuntime loads .env files and the deployment config under dedupHome,
// then initializes the runtime and the logger.
func initRuntime(dedupHome string) (*config.Config, error) {

	envFiles, err := filepath.Glob(filepath.Join(dedupHome, constants.EnvFilePattern))
	if err == nil && len(envFiles) > 0 {
		_ = godotenv.Load(envFiles...)
	}

	dedupConfig, err := config.LoadConfig(dedupHome, constants.ConfigFile)
	if err != nil {
		return nil, errors2.NewServerError(errors2.LOAD_CONFIG, err)
	}

	if err := config.InitializeDedupRuntime(dedupHome, dedupConfig); err != nil {
		return nil, errors2.NewServerError(errors2.LOAD_CONFIG, err)
	}

	if err := log.Init(dedupConfig.Log.LogLevel); err != nil {
		return nil, errors2.NewServerError(errors2.LOAD_CONFIG, err)
	}
	log.GetLogger().Debug("Loaded configuration", log.String("home", dedupHome),
		log.Int("env_files", len(envFiles)))
	return dedupConfig, nil
}

func getDedupHome(flagValue string) string {

	if flagValue != "" {
		return flagValue
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}
