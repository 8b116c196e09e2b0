package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doFromError(t *testing.T, err error) (int, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromError(c, err)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestFromError(t *testing.T) {
	t.Run("NotFound404", func(t *testing.T) {
		code, resp := doFromError(t, apperr.NewNotFound("订单不存在: ORD001"))
		assert.Equal(t, http.StatusNotFound, code)
		assert.False(t, resp.Success)
		assert.Equal(t, "订单不存在: ORD001", resp.Message)
	})

	t.Run("Validation400", func(t *testing.T) {
		code, resp := doFromError(t, apperr.NewValidation("提现金额必须大于0"))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.False(t, resp.Success)
	})

	t.Run("PayoutIneligible400", func(t *testing.T) {
		code, _ := doFromError(t, apperr.NewPayoutIneligible("请先绑定银行账户"))
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("InsufficientBalance400WithAvailable", func(t *testing.T) {
		err := &apperr.InsufficientBalanceError{Requested: 200, Available: 80.5}
		code, resp := doFromError(t, err)

		assert.Equal(t, http.StatusBadRequest, code)
		// 提示里必须带上当前可提现金额
		assert.Contains(t, resp.Message, "80.50")
	})

	t.Run("Unknown500KeepsDetailInErrorField", func(t *testing.T) {
		code, resp := doFromError(t, errors.New("dial tcp: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, code)
		assert.False(t, resp.Success)
		assert.Equal(t, "服务器内部错误", resp.Message)
		assert.Equal(t, "dial tcp: connection refused", resp.Error)
	})

	t.Run("Persistence500", func(t *testing.T) {
		code, _ := doFromError(t, apperr.NewPersistence("创建订单失败", errors.New("duplicate key")))
		assert.Equal(t, http.StatusInternalServerError, code)
	})
}

func TestNewPagination(t *testing.T) {
	cases := []struct {
		page, limit    int
		total          int64
		wantTotalPages int
	}{
		{1, 20, 0, 0},
		{1, 20, 1, 1},
		{1, 20, 20, 1},
		{1, 20, 21, 2},
		{3, 10, 95, 10},
	}
	for _, tc := range cases {
		p := NewPagination(tc.page, tc.limit, tc.total)
		assert.Equal(t, tc.wantTotalPages, p.TotalPages)
		assert.Equal(t, tc.page, p.Page)
		assert.Equal(t, tc.limit, p.Limit)
		assert.Equal(t, tc.total, p.Total)
	}
}

func TestResponseEnvelopeShape(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("OKOmitsEmptyFields", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		OK(c, gin.H{"order_no": "ORD001"})

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		assert.Contains(t, raw, "success")
		assert.Contains(t, raw, "data")
		assert.NotContains(t, raw, "message")
		assert.NotContains(t, raw, "error")
	})

	t.Run("PagedWrapsListAndPagination", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		Paged(c, []string{"a", "b"}, 1, 20, 2)

		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				List       []string `json:"list"`
				Page       int      `json:"page"`
				Limit      int      `json:"limit"`
				Total      int64    `json:"total"`
				TotalPages int      `json:"totalPages"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, []string{"a", "b"}, resp.Data.List)
		assert.Equal(t, 1, resp.Data.TotalPages)
	})
}
