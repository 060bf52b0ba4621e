package feed

import (
	"fmt"
	"io"
	"time"

	"github.com/campus-ops/cmms/backend/internal/calendar"
	"github.com/campus-ops/cmms/backend/internal/recurrence"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const ProductID = "-//Campus CMMS//Facility Scheduler//EN"

// 用于生成稳定 UID 的命名空间，同一个资源每次导出的 UID 相同，日历客户端才能正确更新
var uidNamespace = uuid.MustParse("8f0c5b8e-5d1a-4d0e-9a57-2f3f1f6f4a21")

func UID(kind string, id int64) string {
	return uuid.NewSHA1(uidNamespace, []byte(fmt.Sprintf("%s/%d", kind, id))).String() + "@cmms"
}

type Feed struct {
	cal *ical.Calendar
	now time.Time
}

func New(name string, now time.Time) *Feed {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	cal.Props.SetText("X-WR-CALNAME", name)

	return &Feed{cal: cal, now: now}
}

type MaintenanceEntry struct {
	AssetID   int64
	Summary   string
	Location  string
	Rule      recurrence.Rule
	LastRunAt time.Time
	Duration  time.Duration
}

// AddMaintenance 添加一个重复的维护事件，起始时间为下一次维护时间
func (f *Feed) AddMaintenance(e MaintenanceEntry) error {
	start := recurrence.NextOccurrence(e.Rule, e.LastRunAt)
	rrule, err := e.Rule.RRuleString(start)
	if err != nil {
		return err
	}

	duration := e.Duration
	if duration <= 0 {
		duration = time.Hour
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, UID("asset", e.AssetID))
	event.Props.SetText(ical.PropSummary, e.Summary)
	event.Props.SetText(ical.PropDescription, e.Rule.Describe())
	if e.Location != "" {
		event.Props.SetText(ical.PropLocation, e.Location)
	}
	event.Props.SetDateTime(ical.PropDateTimeStamp, f.now.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start)
	event.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(duration))

	// RRULE 不能使用 SetText，否则分号会被转义
	prop := ical.NewProp(ical.PropRecurrenceRule)
	prop.Value = rrule
	event.Props.Add(prop)

	f.cal.Children = append(f.cal.Children, event.Component)
	return nil
}

type BookingEntry struct {
	BookingID int64
	Title     string
	Location  string
	Status    string
	DateRange calendar.DateRange
	TimeRange calendar.TimeRange
}

// AddBooking 添加一个预约事件。结束时刻早于开始时刻时视为跨越到次日
func (f *Feed) AddBooking(e BookingEntry, loc *time.Location) {
	start := e.TimeRange.Start.On(e.DateRange.StartDate, loc)
	end := e.TimeRange.End.On(e.DateRange.EndDate, loc)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, UID("booking", e.BookingID))
	event.Props.SetText(ical.PropSummary, e.Title)
	event.Props.SetText(ical.PropLocation, e.Location)
	event.Props.SetText(ical.PropDescription, fmt.Sprintf("%s, %s", e.DateRange, e.TimeRange))
	event.Props.SetDateTime(ical.PropDateTimeStamp, f.now.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start)
	event.Props.SetDateTime(ical.PropDateTimeEnd, end)
	if e.Status != "" {
		event.Props.SetText(ical.PropStatus, e.Status)
	}

	f.cal.Children = append(f.cal.Children, event.Component)
}

func (f *Feed) Len() int {
	return len(f.cal.Children)
}

func (f *Feed) Encode(w io.Writer) error {
	return ical.NewEncoder(w).Encode(f.cal)
}
