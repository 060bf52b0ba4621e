package calendar

import "time"

// GridSize 固定为 6 周，避免月份切换时网格高度变化
const GridSize = 42

type Day struct {
	DayNumber      int  `json:"dayNumber"`
	IsCurrentMonth bool `json:"isCurrentMonth"`
	IsPrevMonth    bool `json:"isPrevMonth"`
	Date           Date `json:"date"`
}

// GenerateGrid 生成某月的 42 格日历网格：上月末尾若干天、本月所有天、下月补位
func GenerateGrid(year int, month time.Month) []Day {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// 0 表示周日
	leading := int(first.Weekday())

	prev := first.AddDate(0, -1, 0)
	daysInPrevMonth := DaysIn(prev.Year(), prev.Month())
	daysInMonth := DaysIn(first.Year(), first.Month())

	grid := make([]Day, 0, GridSize)

	for i := leading - 1; i >= 0; i-- {
		n := daysInPrevMonth - i
		grid = append(grid, Day{
			DayNumber:   n,
			IsPrevMonth: true,
			Date:        NewDate(prev.Year(), prev.Month(), n),
		})
	}

	for n := 1; n <= daysInMonth; n++ {
		grid = append(grid, Day{
			DayNumber:      n,
			IsCurrentMonth: true,
			Date:           NewDate(first.Year(), first.Month(), n),
		})
	}

	next := first.AddDate(0, 1, 0)
	for n := 1; len(grid) < GridSize; n++ {
		grid = append(grid, Day{
			DayNumber: n,
			Date:      NewDate(next.Year(), next.Month(), n),
		})
	}

	return grid
}
