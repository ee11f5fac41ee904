package domain

// Result 是一次请求的终态：要么成功（Err==nil，Value 有效），要么失败（Err!=nil）。
//
// 约束：失败时 Value 为“无数据”值（列表类为空切片而不是 nil），
// 保证 presenter 总能观察到一个确定的终态。
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) OK() bool { return r.Err == nil }

func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

func Fail[T any](empty T, err error) Result[T] { return Result[T]{Value: empty, Err: err} }
