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

package model

import (
	"fmt"
	"time"
)

// DuplicateGroup is a phone number shared by more than one record.
type DuplicateGroup struct {
	Phone string `bson:"phone" json:"phone"`
	Count int    `bson:"count" json:"count"`
}

// TimeWindow restricts a scan to records updated in [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow validates and builds a window.
func NewTimeWindow(start, end time.Time) (*TimeWindow, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("window start %s is not before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return &TimeWindow{Start: start.UTC(), End: end.UTC()}, nil
}

// Contains reports whether t falls inside the window. A nil window contains everything.
func (w *TimeWindow) Contains(t time.Time) bool {
	if w == nil {
		return true
	}
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w *TimeWindow) String() string {
	if w == nil {
		return "all"
	}
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// GroupQuery parameterizes the phone count aggregation.
type GroupQuery struct {
	Window   *TimeWindow
	MinCount int
	// Limit caps the number of groups returned. Zero or less means no cap.
	Limit int
}

// DuplicateSummary describes the overall duplicate load of the collection.
type DuplicateSummary struct {
	DuplicatePhones int `bson:"duplicatePhones" json:"duplicate_phones"`
	TotalDuplicates int `bson:"totalDuplicates" json:"total_duplicates"`
}

// MergeOutcome is the decision for one group before anything is written.
type MergeOutcome struct {
	Phone    string
	MasterID interface{}
	Merged   Record
	ToDelete []interface{}
	// MemberCount is the number of records the decision was made from.
	MemberCount int
}
