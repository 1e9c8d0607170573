package constants

import "time"

const ConfigFile = "repository/conf/deployment.yaml"
const EnvFilePattern = "config/*.env"

// Record field names in the users collection.
const (
	IdField        = "_id"
	PhoneField     = "phone"
	AccountsField  = "accounts"
	UpdatedAtField = "updatedAt"
)

// Fields that are never copied from a duplicate into the master.
var NonBackfillFields = map[string]bool{
	IdField:        true,
	AccountsField:  true,
	UpdatedAtField: true,
}

const (
	DefaultDatabase       = "test"
	DefaultCollection     = "users"
	DefaultMaxGroups      = 100
	DefaultMaxConcurrency = 10
	DefaultConnectTimeout = 10 * time.Second
	DefaultStoreTimeout   = 30 * time.Second
	DefaultAggregateBatch = 100
	DefaultLockTTL        = time.Hour
)

// LockCollection holds one document per running merge.
const LockCollection = "dedup_locks"

// MinDuplicateCount is the smallest record count that makes a phone a duplicate group.
const MinDuplicateCount = 2

type contextKey string

const RunIDContextKey contextKey = "run_id"
