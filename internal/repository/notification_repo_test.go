package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB 基于 sqlmock 的 gorm 连接，用于验证仓储层的 SQL 行为
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestNotificationMarkRead(t *testing.T) {
	ctx := context.Background()

	t.Run("UnreadRowUpdated", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNotificationRepository(db)

		mock.ExpectExec("UPDATE `notification` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.MarkRead(ctx, 1, 10))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyReadIsIdempotent", func(t *testing.T) {
		// 已读的行重复标记：UPDATE 不命中（WHERE is_read = false 排除），
		// 存在性复查命中，按成功返回而不是 404
		db, mock := newMockDB(t)
		repo := NewNotificationRepository(db)

		mock.ExpectExec("UPDATE `notification` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `notification`").
			WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))

		require.NoError(t, repo.MarkRead(ctx, 1, 10))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingOrForeignRowNotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNotificationRepository(db)

		mock.ExpectExec("UPDATE `notification` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `notification`").
			WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))

		err := repo.MarkRead(ctx, 1, 10)
		assert.ErrorIs(t, err, ErrNotificationNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
