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
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/wso2/customer-data-dedup/internal/system/constants"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record is one user document. Field order is preserved as stored so that
// merging is deterministic and the written document keeps its layout.
type Record bson.D

// Get returns the value stored under key.
func (r Record) Get(key string) (interface{}, bool) {
	for _, e := range r {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present, including when its value is null.
func (r Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// ID returns the record identifier.
func (r Record) ID() (interface{}, bool) {
	id, ok := r.Get(constants.IdField)
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}

// Phone returns the grouping key when it is a non-empty string.
func (r Record) Phone() (string, bool) {
	v, ok := r.Get(constants.PhoneField)
	if !ok {
		return "", false
	}
	phone, ok := v.(string)
	if !ok || phone == "" {
		return "", false
	}
	return phone, true
}

// UpdatedAt returns the record's updatedAt when it holds a date.
func (r Record) UpdatedAt() (time.Time, bool) {
	v, ok := r.Get(constants.UpdatedAtField)
	if !ok {
		return time.Time{}, false
	}
	switch ts := v.(type) {
	case primitive.DateTime:
		return ts.Time().UTC(), true
	case time.Time:
		return ts.UTC(), true
	case *time.Time:
		if ts == nil {
			return time.Time{}, false
		}
		return ts.UTC(), true
	default:
		return time.Time{}, false
	}
}

// Accounts returns the provider sub-records. A missing or non-array field yields nil.
func (r Record) Accounts() bson.A {
	v, ok := r.Get(constants.AccountsField)
	if !ok {
		return nil
	}
	switch accounts := v.(type) {
	case bson.A:
		return accounts
	case []interface{}:
		return bson.A(accounts)
	default:
		return nil
	}
}

// Set replaces the value of key in place, or appends the field when absent.
func (r Record) Set(key string, value interface{}) Record {
	for i, e := range r {
		if e.Key == key {
			r[i].Value = value
			return r
		}
	}
	return append(r, bson.E{Key: key, Value: value})
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for i, e := range r {
		out[i] = bson.E{Key: e.Key, Value: CloneValue(e.Value)}
	}
	return out
}

// CloneValue deep copies documents and arrays. Scalars are returned as is.
func CloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case bson.D:
		out := make(bson.D, len(val))
		for i, e := range val {
			out[i] = bson.E{Key: e.Key, Value: CloneValue(e.Value)}
		}
		return out
	case Record:
		return val.Clone()
	case bson.M:
		out := make(bson.M, len(val))
		for k, item := range val {
			out[k] = CloneValue(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = CloneValue(item)
		}
		return out
	case bson.A:
		out := make(bson.A, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	case primitive.Binary:
		data := make([]byte, len(val.Data))
		copy(data, val.Data)
		return primitive.Binary{Subtype: val.Subtype, Data: data}
	default:
		return v
	}
}

// IDString renders an identifier for logs and reports.
func IDString(id interface{}) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// CompareIDs orders identifiers. ObjectIDs compare by their bytes, which is
// creation order; anything else falls back to its rendered form.
func CompareIDs(a, b interface{}) int {
	oa, aok := a.(primitive.ObjectID)
	ob, bok := b.(primitive.ObjectID)
	if aok && bok {
		return bytes.Compare(oa[:], ob[:])
	}
	return strings.Compare(IDString(a), IDString(b))
}
