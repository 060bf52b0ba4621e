package scheduler

import (
	"fmt"
	"time"

	"github.com/campus-ops/cmms/backend/internal/domain"
)

func canReceiveReminder(user *domain.User) bool {
	return user.IsActive && (user.Role == domain.RoleTechnician || user.Role == domain.RoleAdmin)
}

// 同一资产同一天的维护只提醒一次
func dedupeKey(assetID int64, dueAt time.Time) string {
	return fmt.Sprintf("reminder_asset_%d_%s", assetID, dueAt.UTC().Format("2006-01-02"))
}
