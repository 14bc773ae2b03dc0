package catalog

import (
	"net/url"
	"sync"
)

// Navigator 视图跳转能力，不在两个视图之间保留任何状态
type Navigator interface {
	// ToDetail 跳转到指定币种的详情页
	ToDetail(id string)
	// ToList 返回列表页
	ToList()
}

// DetailPath 详情页路径
func DetailPath(id string) string {
	return "/coins/" + url.PathEscape(id)
}

// ListPath 列表页路径
const ListPath = "/"

// RecordingNavigator 记录最后一次跳转目标，供 HTTP 处理器决定重定向地址
type RecordingNavigator struct {
	mu     sync.Mutex
	target string
}

func (n *RecordingNavigator) ToDetail(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.target = DetailPath(id)
}

func (n *RecordingNavigator) ToList() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.target = ListPath
}

// Target 最后一次跳转的路径，没有跳转时为空
func (n *RecordingNavigator) Target() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target
}
