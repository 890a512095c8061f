package postgres

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"

	"bullet-ai/domain/models"
)

// Update ต้องเขียนทุก column ยกเว้น identity และ created_at
// ไม่มี test ที่ต่อ Postgres จริงใน repo นี้ จึงตรวจกับ schema ที่ gorm parse ได้
func TestTaskUpdateColumnsCoverMutableFields(t *testing.T) {
	s, err := schema.Parse(&models.Task{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	immutable := map[string]bool{"id": true, "user_id": true, "created_at": true}
	var mutable []string
	for _, f := range s.Fields {
		if f.DBName == "" || immutable[f.DBName] {
			continue
		}
		mutable = append(mutable, f.DBName)
	}

	assert.ElementsMatch(t, mutable, taskUpdateColumns)
}
