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

package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/wso2/customer-data-dedup/internal/system/constants"
	"github.com/wso2/customer-data-dedup/internal/system/errors"
	"github.com/wso2/customer-data-dedup/internal/system/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// RunLockInterface serializes merge runs over the same collection.
type RunLockInterface interface {
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, owner string) error
}

// MongoRunLock keeps one document per held lock. The unique _id makes a
// second insert fail while the lock is held; an expired lock is reclaimed by
// the next Acquire.
type MongoRunLock struct {
	Collection *mongo.Collection
}

// NewMongoRunLock creates a lock backed by collection.
func NewMongoRunLock(collection *mongo.Collection) *MongoRunLock {

	return &MongoRunLock{Collection: collection}
}

// Acquire takes the lock for owner. It returns false without error when
// another owner holds an unexpired lock.
func (l *MongoRunLock) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {

	logger := log.GetLogger()
	if ttl <= 0 {
		ttl = constants.DefaultLockTTL
	}
	now := time.Now().UTC()

	_, err := l.Collection.DeleteOne(ctx, bson.D{
		{Key: constants.IdField, Value: key},
		{Key: "expiresAt", Value: bson.D{{Key: "$lte", Value: now}}},
	})
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to clear an expired lock for key %s", key)
		logger.Debug(errorMsg, log.Error(err))
		return false, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.LOCK_ACQUIRE.Code,
			Message:     errors.LOCK_ACQUIRE.Message,
			Description: errorMsg,
		}, err)
	}

	_, err = l.Collection.InsertOne(ctx, bson.D{
		{Key: constants.IdField, Value: key},
		{Key: "owner", Value: owner},
		{Key: "acquiredAt", Value: now},
		{Key: "expiresAt", Value: now.Add(ttl)},
	})
	if mongo.IsDuplicateKeyError(err) {
		logger.Debug("Lock is held by another run", log.String("key", key))
		return false, nil
	}
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to insert the lock for key %s", key)
		logger.Debug(errorMsg, log.Error(err))
		return false, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.LOCK_ACQUIRE.Code,
			Message:     errors.LOCK_ACQUIRE.Message,
			Description: errorMsg,
		}, err)
	}
	logger.Debug("Lock acquired", log.String("key", key), log.String("owner", owner), log.Duration("ttl", ttl))
	return true, nil
}

// Release drops the lock if owner still holds it.
func (l *MongoRunLock) Release(ctx context.Context, key, owner string) error {

	logger := log.GetLogger()
	result, err := l.Collection.DeleteOne(ctx, bson.D{
		{Key: constants.IdField, Value: key},
		{Key: "owner", Value: owner},
	})
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to release the lock for key %s", key)
		logger.Debug(errorMsg, log.Error(err))
		return errors.NewServerError(errors.ErrorMessage{
			Code:        errors.LOCK_RELEASE.Code,
			Message:     errors.LOCK_RELEASE.Message,
			Description: errorMsg,
		}, err)
	}
	if result.DeletedCount == 0 {
		logger.Warn("Lock was no longer held at release", log.String("key", key), log.String("owner", owner))
	}
	return nil
}
