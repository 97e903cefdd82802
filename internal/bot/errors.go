package bot

import (
	"errors"
	"fmt"

	"okx-grid-bot-go/internal/models"
)

// ErrorKind 对一次周期失败进行分类，取代"在周期顶部捕获一切"的做法，
// 让调用方可以按失败类型区分日志与退出行为。
type ErrorKind int

const (
	// ErrKindNetwork 表示请求未到达交易所或响应不可用
	ErrKindNetwork ErrorKind = iota
	// ErrKindValidation 表示配置或网格参数不合法
	ErrKindValidation
	// ErrKindExchange 表示交易所明确拒绝了请求
	ErrKindExchange
	// ErrKindStorage 表示配置或审计存储读写失败
	ErrKindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindNetwork:
		return "network"
	case ErrKindValidation:
		return "validation"
	case ErrKindExchange:
		return "exchange"
	case ErrKindStorage:
		return "storage"
	}
	return "unknown"
}

// CycleError 是周期函数返回的带分类的失败结果，携带底层错误。
type CycleError struct {
	Kind ErrorKind
	Err  error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
}

func (e *CycleError) Unwrap() error {
	return e.Err
}

// validationErrorf 构造一个参数校验失败
func validationErrorf(format string, args ...interface{}) *CycleError {
	return &CycleError{Kind: ErrKindValidation, Err: fmt.Errorf(format, args...)}
}

// classify 将交易所调用返回的错误归类：OKX明确拒绝归为exchange，其余归为network。
func classify(err error) *CycleError {
	var cycleErr *CycleError
	if errors.As(err, &cycleErr) {
		return cycleErr
	}
	var okxErr *models.OKXError
	if errors.As(err, &okxErr) {
		return &CycleError{Kind: ErrKindExchange, Err: err}
	}
	return &CycleError{Kind: ErrKindNetwork, Err: err}
}
