package apperr

import (
	"errors"
	"fmt"
)

// 业务错误分类哨兵，handler 层通过 errors.Is 映射 HTTP 状态码：
//
//	ErrNotFound            -> 404
//	ErrValidation          -> 400
//	ErrPayoutIneligible    -> 400
//	ErrInsufficientBalance -> 400
//	ErrPersistence / 其他  -> 500
var (
	ErrNotFound            = errors.New("记录不存在")
	ErrValidation          = errors.New("参数校验失败")
	ErrPayoutIneligible    = errors.New("不满足提现条件")
	ErrInsufficientBalance = errors.New("可提现余额不足")
	ErrPersistence         = errors.New("存储操作失败")
)

// Error 带描述信息的业务错误，Unwrap 到对应的分类哨兵
type Error struct {
	kind    error
	message string
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Unwrap() error {
	return e.kind
}

func NewNotFound(message string) error {
	return &Error{kind: ErrNotFound, message: message}
}

func NewValidation(message string) error {
	return &Error{kind: ErrValidation, message: message}
}

func NewPayoutIneligible(message string) error {
	return &Error{kind: ErrPayoutIneligible, message: message}
}

// NewPersistence 包装底层存储错误
// 原始错误信息仅用于排查，handler 层对外只返回通用提示
func NewPersistence(op string, cause error) error {
	return &Error{kind: ErrPersistence, message: fmt.Sprintf("%s: %v", op, cause)}
}

// InsufficientBalanceError 余额不足错误，携带当前可提现金额
// 前端需要展示可提现余额，所以金额必须出现在错误信息里
type InsufficientBalanceError struct {
	Requested float64
	Available float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("可提现余额不足: 请求提现 %.2f，当前可提现 %.2f", e.Requested, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}
