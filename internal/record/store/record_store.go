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

package store

import (
	"context"

	"github.com/wso2/customer-data-dedup/internal/record/model"
)

// RecordStore is the read/write surface the merge engine needs from the
// users collection. Implementations must be safe for concurrent use.
type RecordStore interface {
	// CountByPhone groups records by phone and returns the groups holding at
	// least q.MinCount records, largest first.
	CountByPhone(ctx context.Context, q model.GroupQuery) ([]model.DuplicateGroup, error)
	// FindByPhone returns every record with the given phone.
	FindByPhone(ctx context.Context, phone string) ([]model.Record, error)
	// Replace overwrites the record with the given id. With upsert disabled a
	// missing record is a NOT_FOUND error.
	Replace(ctx context.Context, id interface{}, doc model.Record, upsert bool) error
	// Delete removes the record with the given id. A missing record is not an error.
	Delete(ctx context.Context, id interface{}) error
	// DuplicateSummary counts duplicate phones and the records they cover.
	DuplicateSummary(ctx context.Context, window *model.TimeWindow) (model.DuplicateSummary, error)
}
