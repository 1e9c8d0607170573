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

package context

import (
	"context"

	"github.com/wso2/customer-data-dedup/internal/system/constants"
)

// WithRunID tags ctx with the merge run it belongs to.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, constants.RunIDContextKey, runID)
}

// GetRunID extracts the run ID from the context, returns empty string if not found
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(constants.RunIDContextKey).(string); ok {
		return runID
	}
	return ""
}

// OperationComment is the comment store calls made under ctx carry, so a
// server side profiler can attribute them to a run.
func OperationComment(ctx context.Context) string {
	if runID := GetRunID(ctx); runID != "" {
		return "dedup run " + runID
	}
	return ""
}
