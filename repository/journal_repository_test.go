package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"smpctl/model"
)

// dryRunDB builds statements without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "smp:smp@tcp(127.0.0.1:1)/smpctl?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	require.NoError(t, err)
	return db
}

func TestRecentQuery(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []*model.CommandRecord
		return recentQuery(tx, JournalQuery{SessionID: "abc", Name: "init", Limit: 5}).Find(&out)
	})
	assert.Contains(t, sql, "FROM `command_records`")
	assert.Contains(t, sql, "session_id = 'abc'")
	assert.Contains(t, sql, "name = 'init'")
	assert.Contains(t, sql, "ORDER BY started_at DESC,id DESC")
	assert.Contains(t, sql, "LIMIT 5")

	sql = db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []*model.CommandRecord
		return recentQuery(tx, JournalQuery{}).Find(&out)
	})
	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "LIMIT 50")
}

func TestRecordStatement(t *testing.T) {
	db := dryRunDB(t)

	rec := &model.CommandRecord{SessionID: "abc", Name: "getdrivers", Command: "command=getdrivers", Status: 1}
	stmt := db.Create(rec).Statement
	assert.Contains(t, stmt.SQL.String(), "INSERT INTO `command_records`")
	assert.Contains(t, stmt.Vars, "getdrivers")
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultJournalLimit, clampLimit(0))
	assert.Equal(t, DefaultJournalLimit, clampLimit(-3))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, MaxJournalLimit, clampLimit(1_000_000))
}
