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

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/wso2/customer-data-dedup/internal/system/config"
	"github.com/wso2/customer-data-dedup/internal/system/database/provider"
	"github.com/wso2/customer-data-dedup/internal/system/log"
	"github.com/wso2/customer-data-dedup/test/setup"
)

const testDatabase = "dedup_test"

var testMongo *setup.TestMongo

func TestMain(m *testing.M) {
	ctx := context.Background()

	_ = log.Init("DEBUG")

	mongo, err := setup.SetupTestMongo(ctx, testDatabase)
	if err != nil {
		// No container runtime on this host.
		fmt.Println("Skipping integration tests, failed to start test DB:", err)
		os.Exit(0)
	}
	testMongo = mongo

	conf := config.Config{
		Log: config.LogConfig{
			LogLevel: "DEBUG",
		},
		MongoDB: config.MongoDBConfig{
			URI:        mongo.URI,
			Database:   testDatabase,
			Collection: "users",
		},
	}
	config.OverrideDedupRuntime(conf)
	provider.SetTestDB(mongo.DB)

	// Run tests
	code := m.Run()

	mongo.Teardown(ctx)

	os.Exit(code)
}
