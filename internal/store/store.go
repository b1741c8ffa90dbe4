// Package store exposes the persistence layer: a users table for auth and one
// JSON blob per logical tracking resource, addressed by a stable key.
package store

import (
	"errors"

	"github.com/mihrab-app/mihrab/internal/model"
)

// ErrNotFound is returned when a blob or user does not exist.
var ErrNotFound = errors.New("store: not found")

// Blob keys for the tracking core. Uniqueness and stability across restarts is
// what matters, not the exact spelling.
const (
	KeyDailyRecords = "mihrab:daily_records"
	KeyQadaDebt     = "mihrab:qada_debt"
	KeySyncTasks    = "mihrab:sync_tasks"
	KeySyncStatus   = "mihrab:sync_status"
	KeyPreferences  = "mihrab:tracking_preferences"
)

// Store is passed to services and API modules.
type Store interface {
	// blob functions: whole-value read-modify-write, no field-level access
	GetBlob(key string) ([]byte, error)
	SetBlob(key string, value []byte) error
	DeleteBlob(key string) error

	// user functions
	CreateUser(email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	UpdateUserProfile(id int, email string, name *string) error
}
