package response

import (
	"errors"
	"net/http"

	"marketplace/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// Response 统一响应包装
// 对外契约固定为 {success, message?, data?, error?}
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// PagedData 带分页信息的列表数据
type PagedData struct {
	List interface{} `json:"list"`
	Pagination
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func OKWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Paged(c *gin.Context, list interface{}, page, limit int, total int64) {
	OK(c, PagedData{
		List:       list,
		Pagination: NewPagination(page, limit, total),
	})
}

func Fail(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Response{
		Success: false,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, message)
}

// FromError 业务错误到 HTTP 状态码的统一映射
//
// 余额不足 / 资格不符（400）与归属校验失败（404）必须可区分，
// 前端据此展示可操作的提示而不是笼统的失败横幅。
// 未识别的错误一律 500，原始错误信息放在 error 字段仅供排查。
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrPayoutIneligible),
		errors.Is(err, apperr.ErrInsufficientBalance):
		Fail(c, http.StatusBadRequest, err.Error())
	default:
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Message: "服务器内部错误",
			Error:   err.Error(),
		})
	}
}
