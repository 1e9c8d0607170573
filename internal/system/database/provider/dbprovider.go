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

package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/wso2/customer-data-dedup/internal/system/config"
	"github.com/wso2/customer-data-dedup/internal/system/constants"
	"github.com/wso2/customer-data-dedup/internal/system/database/client"
)

// DBProviderInterface defines the interface for getting database clients.
type DBProviderInterface interface {
	GetDBClient(ctx context.Context) (client.DBClientInterface, error)
}

// DBProvider is the implementation of DBProviderInterface. The connection is
// opened once and shared; the mongo client pools connections internally.
type DBProvider struct{}

var (
	dbClient *client.MongoDB
	dbErr    error
	dbOnce   sync.Once
	testDB   *client.MongoDB
)

// NewDBProvider creates a new instance of DBProvider.
func NewDBProvider() DBProviderInterface {

	return &DBProvider{}
}

// GetDBClient returns the shared connection described by the runtime config.
func (d *DBProvider) GetDBClient(ctx context.Context) (client.DBClientInterface, error) {

	if testDB != nil {
		return testDB, nil
	}

	dbOnce.Do(func() {
		mongoConfig := config.GetDedupRuntime().Config.MongoDB
		if mongoConfig.URI == "" {
			dbErr = fmt.Errorf("mongodb uri is not configured")
			return
		}
		timeout, err := config.ParseDuration(mongoConfig.ConnectTimeout, constants.DefaultConnectTimeout)
		if err != nil {
			dbErr = err
			return
		}
		dbClient, dbErr = client.Connect(ctx, mongoConfig.URI, mongoConfig.Database, timeout)
	})
	if dbErr != nil {
		return nil, dbErr
	}
	return dbClient, nil
}

// SetTestDB makes every provider return db. Used by integration tests.
func SetTestDB(db *client.MongoDB) {
	testDB = db
}
