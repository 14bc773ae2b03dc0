package catalog

import (
	"go.uber.org/zap"
)

// FetchStatus 单个数据流的请求生命周期
type FetchStatus string

const (
	StatusIdle    FetchStatus = "IDLE"
	StatusLoading FetchStatus = "LOADING"
	StatusLoaded  FetchStatus = "LOADED"
	StatusFailed  FetchStatus = "FAILED"
)

// flowState 记录一个数据流的状态和最近一次错误信息
// 由所属控制器的互斥锁保护
type flowState struct {
	name   string
	status FetchStatus
	err    string
	logger *zap.Logger
}

func newFlowState(name string, logger *zap.Logger) *flowState {
	return &flowState{name: name, status: StatusIdle, logger: logger}
}

// transition 切换状态；msg 只在 StatusFailed 时保留
func (f *flowState) transition(to FetchStatus, msg string) {
	if to != StatusFailed {
		msg = ""
	}
	if to != f.status {
		f.logger.Debug("Flow transition",
			zap.String("flow", f.name),
			zap.String("from", string(f.status)),
			zap.String("to", string(to)),
		)
	}
	f.status = to
	f.err = msg
}
