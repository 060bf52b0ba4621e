package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/mozillazg/go-pinyin"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-ops/cmms/backend/internal/calendar"
	"github.com/campus-ops/cmms/backend/internal/domain"
	"github.com/campus-ops/cmms/backend/internal/recurrence"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

// GenerateUsernameFromChineseName 取每个字拼音的前几个字母，再加上几位数字
func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, py := range pinyinArray {
		length := rand.Intn(len(py)) + 1
		username += py[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string, role domain.Role) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         role,
	}

	return user, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

var assetKinds = []struct {
	category string
	names    []string
}{
	{"暖通", []string{"空调机组", "新风机", "冷却塔", "锅炉"}},
	{"电气", []string{"配电柜", "应急发电机", "UPS 电源"}},
	{"消防", []string{"消防水泵", "烟感报警主机", "喷淋系统"}},
	{"给排水", []string{"生活水泵", "污水提升泵", "二次供水水箱"}},
	{"电梯", []string{"客梯", "货梯"}},
	{"实验设备", []string{"通风橱", "高压灭菌锅", "超低温冰箱"}},
}

var buildings = []string{"教学楼 A", "教学楼 B", "图书馆", "实验楼", "行政楼", "学生宿舍 3 号楼", "体育馆"}

func GenerateRandomLocation() string {
	return fmt.Sprintf("%s%d%02d", buildings[rand.Intn(len(buildings))], rand.Intn(6)+1, rand.Intn(30)+1)
}

// GenerateRandomRule 随机生成一个合法的维护周期，assignees 为空时不指派负责人
func GenerateRandomRule(assignees []*domain.User) recurrence.Rule {
	var rule recurrence.Rule

	switch rand.Intn(3) {
	case 0:
		rule.SetCadence(recurrence.CadenceWeekly)
		rule.SetEveryNWeeks(rand.Intn(4) + 1)
	case 1:
		rule.SetCadence(recurrence.CadenceMonthly)
		rule.WeekOfMonth = rand.Intn(recurrence.MaxWeekOfMonth) + 1
		rule.Weekday = time.Weekday(rand.Intn(7))
	default:
		rule.SetCadence(recurrence.CadenceYearly)
		rule.Month = time.Month(rand.Intn(12) + 1)
		rule.SetDayOfMonth(rand.Intn(recurrence.MaxDayOfMonth) + 1)
	}

	if len(assignees) > 0 {
		user := assignees[rand.Intn(len(assignees))]
		rule.AssignedTo = &recurrence.Personnel{ID: user.ID, FullName: user.FullName}
	}

	return rule
}

func GenerateRandomAsset(assignees []*domain.User) *domain.Asset {
	kind := assetKinds[rand.Intn(len(assetKinds))]
	name := kind.names[rand.Intn(len(kind.names))]

	// 上次维护时间在过去一年内随机
	lastRunAt := time.Now().Add(-time.Duration(rand.Intn(365*24)) * time.Hour).Truncate(time.Hour)

	asset := &domain.Asset{
		Name:         name,
		Category:     kind.category,
		Location:     GenerateRandomLocation(),
		SerialNumber: fmt.Sprintf("SN-%s", uuid.NewString()[:8]),
		Description:  fmt.Sprintf("%s %s", kind.category, name),
		LastRunAt:    &lastRunAt,
	}

	// 大约 3/4 的资产需要预防性维护
	if rand.Intn(4) > 0 {
		rule := GenerateRandomRule(assignees)
		asset.HasPreventiveMaintenance = true
		asset.Schedule = &rule
	}

	return asset
}

var meetingTitles = []string{"教研室例会", "学术讲座", "学生社团活动", "期中考试", "招聘宣讲会", "党支部学习", "毕业答辩"}

// GenerateRandomBooking 生成从 from 开始 60 天内的随机预约
func GenerateRandomBooking(requester *domain.User, from calendar.Date) *domain.Booking {
	start := from.AddDays(rand.Intn(60))
	end := start.AddDays(rand.Intn(3))

	startHour := rand.Intn(12) + 8
	startClock := calendar.Clock{Hour: startHour, Minute: rand.Intn(2) * 30}
	endClock := calendar.Clock{Hour: min(startHour+rand.Intn(3)+1, 23), Minute: startClock.Minute}

	statuses := []domain.BookingStatus{domain.BookingPending, domain.BookingApproved, domain.BookingApproved, domain.BookingRejected}

	return &domain.Booking{
		Reference:   uuid.NewString(),
		Title:       meetingTitles[rand.Intn(len(meetingTitles))],
		Location:    GenerateRandomLocation(),
		Attendees:   int32(rand.Intn(200) + 1),
		RequesterID: requester.ID,
		DateRange:   calendar.DateRange{StartDate: start, EndDate: end},
		TimeRange:   calendar.TimeRange{Start: startClock, End: endClock},
		Status:      statuses[rand.Intn(len(statuses))],
	}
}
