package schema

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	SchemaBase
	Name string
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// steppedClock returns a clock advancing one second per call.
func steppedClock(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Second)
	}
}

func TestNew(t *testing.T) {
	a, b := New(), New()
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, IsUUID(a.ID))
	assert.True(t, IsUUID(b.ID))
	assert.Equal(t, a.DateCreated, a.DateUpdated)
	assert.Equal(t, time.UTC, a.DateCreated.Location())
}

func TestIsUUID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"015b88da-1203-4a69-a3ef-e447b6df4ccc", true},
		{"015b88da12034a69a3efe447b6df4ccc", false},
		{"not-a-uuid", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsUUID(tt.in), tt.in)
	}
}

func TestBeforeCreate_FillsZeroFields(t *testing.T) {
	db := openTestDB(t)

	w := widget{Name: "first"}
	require.NoError(t, db.Create(&w).Error)
	assert.True(t, IsUUID(w.ID))
	assert.False(t, w.DateCreated.IsZero())
	assert.Equal(t, w.DateCreated, w.DateUpdated)

	var got widget
	require.NoError(t, db.First(&got, "id = ?", w.ID).Error)
	assert.True(t, w.DateCreated.Equal(got.DateCreated))
}

func TestBeforeCreate_KeepsClientID(t *testing.T) {
	db := openTestDB(t)

	w := widget{SchemaBase: New(), Name: "preset"}
	id := w.ID
	require.NoError(t, db.Create(&w).Error)
	assert.Equal(t, id, w.ID)
}

func TestDistinctIDsOnBatchCreate(t *testing.T) {
	db := openTestDB(t)

	ws := make([]widget, 50)
	for i := range ws {
		ws[i].Name = fmt.Sprintf("w%d", i)
	}
	require.NoError(t, db.CreateInBatches(&ws, 10).Error)

	seen := map[string]bool{}
	for _, w := range ws {
		assert.True(t, IsUUID(w.ID))
		assert.False(t, seen[w.ID], "duplicate id %s", w.ID)
		seen[w.ID] = true
	}
}

func TestUpdateTimestamps(t *testing.T) {
	db := openTestDB(t)
	restore := SetClock(steppedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	defer restore()

	w := widget{Name: "v1"}
	require.NoError(t, db.Create(&w).Error)
	created := w.DateCreated

	t.Run("save", func(t *testing.T) {
		w.Name = "v2"
		w.DateCreated = created.Add(time.Hour)
		require.NoError(t, db.Save(&w).Error)

		var got widget
		require.NoError(t, db.First(&got, "id = ?", w.ID).Error)
		assert.True(t, created.Equal(got.DateCreated))
		assert.True(t, got.DateUpdated.After(created))
		assert.Equal(t, "v2", got.Name)
	})

	t.Run("map updates", func(t *testing.T) {
		var before widget
		require.NoError(t, db.First(&before, "id = ?", w.ID).Error)

		require.NoError(t, db.Model(&before).Updates(map[string]any{"name": "v3"}).Error)

		var got widget
		require.NoError(t, db.First(&got, "id = ?", w.ID).Error)
		assert.True(t, created.Equal(got.DateCreated))
		assert.True(t, got.DateUpdated.After(before.DateCreated))
		assert.False(t, got.DateUpdated.Before(before.DateUpdated))
		assert.Equal(t, "v3", got.Name)
	})

	t.Run("successive updates never go backwards", func(t *testing.T) {
		var prev time.Time
		for i := 0; i < 5; i++ {
			require.NoError(t, db.Model(&widget{SchemaBase: SchemaBase{ID: w.ID}}).Update("name", fmt.Sprintf("n%d", i)).Error)
			var got widget
			require.NoError(t, db.First(&got, "id = ?", w.ID).Error)
			assert.False(t, got.DateUpdated.Before(prev))
			assert.True(t, created.Equal(got.DateCreated))
			prev = got.DateUpdated
		}
	})
}

func TestNowIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	restore := SetClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 1500, loc) })
	defer restore()

	got := Now()
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, 1000, got.Nanosecond())
}
