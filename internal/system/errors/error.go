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

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

type ErrorMessage struct {
	Code        string `json:"error_code"`
	Message     string `json:"error_message"`
	Description string `json:"error_description"`
}

// ErrorKind classifies why a duplicate group could not be merged.
type ErrorKind string

const (
	KindEmptyGroup       ErrorKind = "EMPTY_GROUP"
	KindMissingTimestamp ErrorKind = "MISSING_TIMESTAMP"
	KindInvalidRecord    ErrorKind = "INVALID_RECORD"
	KindStoreUnavailable ErrorKind = "STORE_UNAVAILABLE"
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindTimeout          ErrorKind = "TIMEOUT"
	KindInternal         ErrorKind = "INTERNAL"
)

// Retryable reports whether a later run may succeed for the same group.
func (k ErrorKind) Retryable() bool {
	return k == KindStoreUnavailable || k == KindTimeout
}

// ServerError wraps failures that abort a whole batch.
type ServerError struct {
	ErrorMessage
	Err error
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

func NewServerError(msg ErrorMessage, cause error) *ServerError {
	return &ServerError{
		ErrorMessage: msg,
		Err:          cause,
	}
}

// MergeError is a failure scoped to a single duplicate group or record.
type MergeError struct {
	ErrorMessage
	Kind  ErrorKind
	Phone string
	Err   error
}

func (e *MergeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s (phone=%s): %v", e.Code, e.Message, e.Phone, e.Err)
	}
	return fmt.Sprintf("[%s] %s (phone=%s)", e.Code, e.Message, e.Phone)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

func NewMergeError(kind ErrorKind, msg ErrorMessage, phone string, cause error) *MergeError {
	return &MergeError{
		ErrorMessage: msg,
		Kind:         kind,
		Phone:        phone,
		Err:          cause,
	}
}

// NewStoreError tags a store failure with its kind. The phone is filled in
// later by whoever knows which group the call belonged to.
func NewStoreError(kind ErrorKind, msg ErrorMessage, cause error) *MergeError {
	return NewMergeError(kind, msg, "", cause)
}

// WithPhone returns err scoped to phone when it is a MergeError without one.
func WithPhone(err error, phone string) error {
	var mergeErr *MergeError
	if errors.As(err, &mergeErr) && mergeErr.Phone == "" {
		scoped := *mergeErr
		scoped.Phone = phone
		return &scoped
	}
	return err
}

// KindOf classifies err. Deadline errors are timeouts regardless of where
// they surfaced; anything unknown is reported as unavailable storage.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var mergeErr *MergeError
	if errors.As(err, &mergeErr) {
		return mergeErr.Kind
	}
	return KindStoreUnavailable
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
