// Package schema provides SchemaBase, the identity and audit-timestamp
// columns shared by every persisted model.
//
// Embed it by value in a gorm model:
//
//	type User struct {
//		schema.SchemaBase
//		Email string
//	}
//
// The promoted BeforeCreate and BeforeUpdate hooks keep the columns filled,
// so callers never set them by hand.
package schema

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column names written by the mixin.
const (
	ColumnID          = "id"
	ColumnDateCreated = "date_created"
	ColumnDateUpdated = "date_updated"
)

// NonUpdatable lists the columns that must never change after insert.
var NonUpdatable = []string{ColumnID, ColumnDateCreated}

// SchemaBase holds a UUID primary key plus creation and update timestamps.
type SchemaBase struct {
	ID          string    `gorm:"primaryKey;type:varchar(36);column:id" json:"_id"`
	DateCreated time.Time `gorm:"not null;index;column:date_created;<-:create" json:"date_created"`
	DateUpdated time.Time `gorm:"not null;index;column:date_updated" json:"date_updated"`
}

// New returns a SchemaBase with a fresh ID and both timestamps set to now.
func New() SchemaBase {
	now := Now()
	return SchemaBase{ID: uuid.NewString(), DateCreated: now, DateUpdated: now}
}

// BeforeCreate fills whatever the caller left zero.
func (b *SchemaBase) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.DateCreated.IsZero() {
		b.DateCreated = Now()
	}
	if b.DateUpdated.IsZero() {
		b.DateUpdated = b.DateCreated
	}
	return nil
}

// BeforeUpdate refreshes date_updated. SetColumn covers struct saves as well
// as map updates.
func (b *SchemaBase) BeforeUpdate(tx *gorm.DB) error {
	now := Now()
	b.DateUpdated = now
	tx.Statement.SetColumn(ColumnDateUpdated, now)
	return nil
}

// IsUUID reports whether s is a textual UUID.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

var clock atomic.Pointer[func() time.Time]

// Now is the clock used for audit timestamps: UTC, truncated to microseconds
// so values survive a database round trip unchanged.
func Now() time.Time {
	now := time.Now
	if f := clock.Load(); f != nil {
		now = *f
	}
	return now().UTC().Truncate(time.Microsecond)
}

// SetClock replaces the timestamp source and returns a func restoring the
// previous one. Meant for tests.
func SetClock(f func() time.Time) (restore func()) {
	prev := clock.Swap(&f)
	return func() { clock.Store(prev) }
}
