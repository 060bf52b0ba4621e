package scheduler

import (
	"time"

	"github.com/campus-ops/cmms/backend/internal/domain"
)

// 提醒扫描参数
type Parameters struct {
	ScanInterval time.Duration // 扫描间隔
	Lookahead    time.Duration // 提前多久生成工单并提醒
	DedupeTTL    time.Duration // 提醒去重记录的保留时间
}

// Due 表示一个在提醒窗口内到期的维护
type Due struct {
	Asset   *domain.Asset `json:"asset"`
	DueAt   time.Time     `json:"dueAt"`
	Overdue bool          `json:"overdue"`
}

// Report 是一次扫描的结果
type Report struct {
	Scanned    int `json:"scanned"`
	Due        int `json:"due"`
	Created    int `json:"created"`
	Notified   int `json:"notified"`
	Duplicated int `json:"duplicated"`
}
