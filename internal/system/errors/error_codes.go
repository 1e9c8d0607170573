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

package errors

const errorPrefix = "DDP-"

var (
	// Batch level errors

	LOAD_CONFIG = ErrorMessage{
		Code:        errorPrefix + "15001",
		Message:     "Error while loading configuration.",
		Description: "The deployment configuration could not be read or parsed.",
	}

	CONNECT_STORE = ErrorMessage{
		Code:        errorPrefix + "15002",
		Message:     "Error while connecting to the record store.",
		Description: "The MongoDB deployment could not be reached.",
	}

	FIND_DUPLICATE_GROUPS = ErrorMessage{
		Code:        errorPrefix + "15003",
		Message:     "Error while finding duplicate groups.",
		Description: "The duplicate phone aggregation failed before any group was listed.",
	}

	SUMMARIZE_DUPLICATES = ErrorMessage{
		Code:        errorPrefix + "15004",
		Message:     "Error while summarizing duplicates.",
		Description: "The duplicate summary aggregation failed.",
	}

	INVALID_WINDOW = ErrorMessage{
		Code:        errorPrefix + "15005",
		Message:     "Invalid time window.",
		Description: "The window start must be before its end.",
	}

	LOCK_ACQUIRE = ErrorMessage{
		Code:        errorPrefix + "15006",
		Message:     "Error while acquiring the merge lock.",
		Description: "The lock collection could not be updated.",
	}

	LOCK_RELEASE = ErrorMessage{
		Code:        errorPrefix + "15007",
		Message:     "Error while releasing the merge lock.",
		Description: "The lock will expire once its ttl passes.",
	}

	LOCK_HELD = ErrorMessage{
		Code:        errorPrefix + "15008",
		Message:     "Another merge run is in progress.",
		Description: "Only one merge run may write to a collection at a time.",
	}

	// Group level errors

	EMPTY_GROUP = ErrorMessage{
		Code:        errorPrefix + "16001",
		Message:     "Duplicate group is already resolved.",
		Description: "Fewer than two records share the phone number.",
	}

	MISSING_TIMESTAMP = ErrorMessage{
		Code:        errorPrefix + "16002",
		Message:     "Record has no comparable updatedAt.",
		Description: "A master cannot be chosen without a timestamp on every record.",
	}

	MISSING_IDENTIFIER = ErrorMessage{
		Code:        errorPrefix + "16003",
		Message:     "Record has no identifier.",
		Description: "Every record in a duplicate group must carry an _id.",
	}

	FIND_GROUP_RECORDS = ErrorMessage{
		Code:        errorPrefix + "16004",
		Message:     "Error while fetching group records.",
		Description: "The records sharing the phone number could not be loaded.",
	}

	REPLACE_MASTER = ErrorMessage{
		Code:        errorPrefix + "16005",
		Message:     "Error while replacing the master record.",
		Description: "The merged document could not be written.",
	}

	MASTER_NOT_FOUND = ErrorMessage{
		Code:        errorPrefix + "16006",
		Message:     "Master record not found.",
		Description: "The replace matched no record and upsert was disabled.",
	}

	DELETE_DUPLICATE = ErrorMessage{
		Code:        errorPrefix + "16007",
		Message:     "Error while deleting a duplicate record.",
		Description: "The duplicate record could not be removed after the merge.",
	}

	GROUP_TIMEOUT = ErrorMessage{
		Code:        errorPrefix + "16008",
		Message:     "Duplicate group exceeded its time budget.",
		Description: "The group can be retried on a later run.",
	}

	GROUP_PANIC = ErrorMessage{
		Code:        errorPrefix + "16009",
		Message:     "Unexpected failure while merging a duplicate group.",
		Description: "The group task panicked and was recovered.",
	}
)
