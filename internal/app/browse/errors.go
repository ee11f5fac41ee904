package browse

import (
	"errors"

	"github.com/John-Robertt/mvbrowse/internal/catalog"
	"github.com/John-Robertt/mvbrowse/internal/query"
)

// 稳定的 error_code（CLI JSON 输出与 HTTP 错误体使用）。
const (
	ErrCodeParameter = "parameter_invalid"
	ErrCodeNetwork   = "network_failed"
	ErrCodeDecode    = "decode_failed"
	ErrCodeTimeout   = "timeout"
	ErrCodeInternal  = "internal"
)

// ErrorCode 把错误归类为稳定的 error_code；nil 返回空串。
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var (
		pe *query.ParameterError
		ne *catalog.NetworkError
		de *catalog.DecodeError
		te *catalog.TimeoutError
	)
	switch {
	case errors.As(err, &pe):
		return ErrCodeParameter
	case errors.As(err, &te):
		return ErrCodeTimeout
	case errors.As(err, &de):
		return ErrCodeDecode
	case errors.As(err, &ne):
		return ErrCodeNetwork
	default:
		return ErrCodeInternal
	}
}
