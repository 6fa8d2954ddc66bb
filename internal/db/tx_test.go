package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"parking-session-backend/config"
	"parking-session-backend/internal/logging"
	"parking-session-backend/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := Init(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "tx.db"),
	}, logger.Silent, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})
	return gormDB
}

func countEntries(t *testing.T, gormDB *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gormDB.Model(&model.KVEntry{}).Count(&n).Error)
	return n
}

func TestTransactor_CommitsAndRollsBack(t *testing.T) {
	ctx := context.Background()
	gormDB := openTestDB(t)
	tx := NewTransactor(gormDB)

	err := tx.InTx(ctx, func(ctx context.Context) error {
		return Conn(ctx, gormDB).Create(&model.KVEntry{Key: "a", Value: "1"}).Error
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), countEntries(t, gormDB))

	boom := errors.New("boom")
	err = tx.InTx(ctx, func(ctx context.Context) error {
		if err := Conn(ctx, gormDB).Create(&model.KVEntry{Key: "b", Value: "2"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), countEntries(t, gormDB), "second write rolled back")
}

func TestConn_FallsBackOutsideTransaction(t *testing.T) {
	gormDB := openTestDB(t)
	conn := Conn(context.Background(), gormDB)
	require.NoError(t, conn.Create(&model.KVEntry{Key: "k", Value: "v"}).Error)
	assert.Equal(t, int64(1), countEntries(t, gormDB))
}
