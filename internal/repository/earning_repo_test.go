package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkGroupFailed(t *testing.T) {
	ctx := context.Background()

	t.Run("ProcessingGroupMarkedFailed", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewEarningRepository(db)

		mock.ExpectExec("UPDATE `earning_record` SET").
			WillReturnResult(sqlmock.NewResult(0, 2))

		rows, err := repo.MarkGroupFailed(ctx, nil, "PYO20240101120000001", "银行账户无效")
		require.NoError(t, err)
		assert.Equal(t, int64(2), rows)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadySettledGroupHitsNothing", func(t *testing.T) {
		// 批次已经结算过（不再是 processing），返回 0 行由调用方幂等处理
		db, mock := newMockDB(t)
		repo := NewEarningRepository(db)

		mock.ExpectExec("UPDATE `earning_record` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows, err := repo.MarkGroupFailed(ctx, nil, "PYO20240101120000001", "银行账户无效")
		require.NoError(t, err)
		assert.Equal(t, int64(0), rows)
	})
}

func TestMarkGroupPaid(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEarningRepository(db)

	mock.ExpectExec("UPDATE `earning_record` SET").
		WillReturnResult(sqlmock.NewResult(0, 3))

	rows, err := repo.MarkGroupPaid(context.Background(), nil, "PYO20240101120000001", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), rows)
	require.NoError(t, mock.ExpectationsWereMet())
}
