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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wso2/customer-data-dedup/internal/system/database/lock"
)

func Test_RunLock(t *testing.T) {

	ctx := context.Background()
	coll := testMongo.DB.Collection(fmt.Sprintf("locks_%d", time.Now().UnixNano()))
	runLock := lock.NewMongoRunLock(coll)
	key := "merge:users"

	t.Run("SecondOwnerIsRefused", func(t *testing.T) {
		acquired, err := runLock.Acquire(ctx, key, "run-a", time.Hour)
		require.NoError(t, err)
		require.True(t, acquired)

		acquired, err = runLock.Acquire(ctx, key, "run-b", time.Hour)
		require.NoError(t, err)
		require.False(t, acquired)
	})

	t.Run("ReleaseByOtherOwnerKeepsLock", func(t *testing.T) {
		require.NoError(t, runLock.Release(ctx, key, "run-b"))
		acquired, err := runLock.Acquire(ctx, key, "run-b", time.Hour)
		require.NoError(t, err)
		require.False(t, acquired)
	})

	t.Run("ReleaseFreesLock", func(t *testing.T) {
		require.NoError(t, runLock.Release(ctx, key, "run-a"))
		acquired, err := runLock.Acquire(ctx, key, "run-b", time.Hour)
		require.NoError(t, err)
		require.True(t, acquired)
		require.NoError(t, runLock.Release(ctx, key, "run-b"))
	})

	t.Run("ExpiredLockIsReclaimed", func(t *testing.T) {
		acquired, err := runLock.Acquire(ctx, key, "crashed", time.Millisecond)
		require.NoError(t, err)
		require.True(t, acquired)
		time.Sleep(10 * time.Millisecond)

		acquired, err = runLock.Acquire(ctx, key, "run-c", time.Hour)
		require.NoError(t, err)
		require.True(t, acquired)
	})
}
