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

	"github.com/wso2/customer-data-dedup/internal/record/service"
	"github.com/wso2/customer-data-dedup/internal/record/store"
	"github.com/wso2/customer-data-dedup/internal/system/config"
	"github.com/wso2/customer-data-dedup/internal/system/constants"
	"github.com/wso2/customer-data-dedup/internal/system/database/lock"
	dbprovider "github.com/wso2/customer-data-dedup/internal/system/database/provider"
	errors2 "github.com/wso2/customer-data-dedup/internal/system/errors"
)

// RecordProviderInterface defines the interface for the record provider.
type RecordProviderInterface interface {
	GetRecordStore(ctx context.Context) (store.RecordStore, error)
	GetBatchDriver(ctx context.Context) (service.BatchDriverInterface, error)
	GetRunLock(ctx context.Context) (lock.RunLockInterface, error)
}

// RecordProvider is the default implementation of the RecordProviderInterface.
type RecordProvider struct {
	dbProvider dbprovider.DBProviderInterface
}

// NewRecordProvider creates a new instance of RecordProvider.
func NewRecordProvider() RecordProviderInterface {

	return &RecordProvider{dbProvider: dbprovider.NewDBProvider()}
}

// GetRecordStore returns a MongoDB backed store for the configured collection.
func (rp *RecordProvider) GetRecordStore(ctx context.Context) (store.RecordStore, error) {

	dbClient, err := rp.dbProvider.GetDBClient(ctx)
	if err != nil {
		return nil, errors2.NewServerError(errors2.CONNECT_STORE, err)
	}
	collection := dbClient.Collection(config.GetDedupRuntime().Config.MongoDB.Collection)
	return store.NewMongoRecordStore(collection), nil
}

// GetBatchDriver returns the batch driver over the configured collection.
func (rp *RecordProvider) GetBatchDriver(ctx context.Context) (service.BatchDriverInterface, error) {

	recordStore, err := rp.GetRecordStore(ctx)
	if err != nil {
		return nil, err
	}
	return service.NewBatchDriver(recordStore), nil
}

// GetRunLock returns the lock that keeps merge runs from overlapping.
func (rp *RecordProvider) GetRunLock(ctx context.Context) (lock.RunLockInterface, error) {

	dbClient, err := rp.dbProvider.GetDBClient(ctx)
	if err != nil {
		return nil, errors2.NewServerError(errors2.CONNECT_STORE, err)
	}
	return lock.NewMongoRunLock(dbClient.Collection(constants.LockCollection)), nil
}
