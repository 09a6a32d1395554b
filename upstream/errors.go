package upstream

import "fmt"

// UpstreamError 上游接口返回了响应，但内容不可用(非200、业务码异常、字段缺失)
type UpstreamError struct {
	API        string
	StatusCode int
	Code       int
	Detail     string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: http status %d: %s", e.API, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("upstream %s: %s (code=%d)", e.API, e.Detail, e.Code)
}

// NetworkError 请求根本没有得到可解析的响应
type NetworkError struct {
	API string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network %s: %v", e.API, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// PersistError 本地落盘失败，与上游错误区分开，便于调用方提示用户
type PersistError struct {
	Path string
	Op   string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
