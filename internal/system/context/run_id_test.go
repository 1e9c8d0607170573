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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRunID(ctx))
	assert.Empty(t, OperationComment(ctx))

	ctx = WithRunID(ctx, "4b1f")
	assert.Equal(t, "4b1f", GetRunID(ctx))
	assert.Equal(t, "dedup run 4b1f", OperationComment(ctx))
}
