package seed

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/campus-ops/cmms/backend/internal/domain"
	"github.com/campus-ops/cmms/backend/internal/recurrence"
	"github.com/campus-ops/cmms/backend/internal/repository"
)

const DefaultAssetRegister = "./internal/seed/data/assets.csv"

// 资产台账表头到资产表单字段的映射，维护周期相关的列直接复用表单的解析逻辑
var HeaderFieldMap = map[string]string{
	"名称":   "name",
	"类别":   "category",
	"位置":   "location",
	"序列号":  "serial_number",
	"维护周期": recurrence.FieldSchedule,
	"间隔周数": recurrence.FieldWeeklyFrequency,
	"第几周":  recurrence.FieldMonthlyFrequency,
	"星期":   recurrence.FieldMonthlyDay,
	"月份":   recurrence.FieldYearlyMonth,
	"日期":   recurrence.FieldYearlyDay,
}

const (
	headerAssignee  = "负责人"
	headerLastRunAt = "上次维护"
)

// AssetRecord 是台账中的一行，负责人以用户名表示，入库前需要换成用户 ID
type AssetRecord struct {
	Asset            *domain.Asset
	AssigneeUsername string
}

// ParseAssetRegister 解析 CSV 格式的资产台账，返回成功解析的记录和每一行的错误
func ParseAssetRegister(reader io.Reader, loc *time.Location) ([]AssetRecord, []error) {
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true

	headers, err := r.Read()
	if err != nil {
		return nil, []error{fmt.Errorf("读取表头失败: %w", err)}
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(headers[i], "\ufeff"))
	}

	var (
		records []AssetRecord
		errs    []error
		line    = 1
	)
	for {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return records, append(errs, err)
		}
		line++

		record, err := parseAssetRow(headers, row, loc)
		if err != nil {
			errs = append(errs, fmt.Errorf("第 %d 行: %w", line, err))
			continue
		}
		records = append(records, record)
	}

	return records, errs
}

func parseAssetRow(headers, row []string, loc *time.Location) (AssetRecord, error) {
	form := url.Values{}
	var assignee, lastRun string

	for i, value := range row {
		if i >= len(headers) {
			break
		}
		value = strings.TrimSpace(value)
		switch headers[i] {
		case headerAssignee:
			assignee = value
		case headerLastRunAt:
			lastRun = value
		default:
			if field, ok := HeaderFieldMap[headers[i]]; ok {
				form.Set(field, value)
			}
		}
	}

	if form.Get("name") == "" {
		return AssetRecord{}, errors.New("资产名称为空")
	}

	asset := &domain.Asset{
		Name:         form.Get("name"),
		Category:     form.Get("category"),
		Location:     form.Get("location"),
		SerialNumber: form.Get("serial_number"),
	}

	if form.Get(recurrence.FieldSchedule) != "" {
		form.Set(recurrence.FieldHasPreventiveMaintenance, "1")
		rule, _, err := recurrence.ParseForm(form)
		if err != nil {
			return AssetRecord{}, err
		}
		asset.HasPreventiveMaintenance = true
		asset.Schedule = &rule
	}

	if lastRun != "" {
		t, err := time.ParseInLocation("2006-01-02", lastRun, loc)
		if err != nil {
			return AssetRecord{}, fmt.Errorf("上次维护日期格式错误: %s", lastRun)
		}
		asset.LastRunAt = &t
	}

	return AssetRecord{Asset: asset, AssigneeUsername: assignee}, nil
}

// SeedAssetRegister 将资产台账导入数据库，负责人必须已经存在
func SeedAssetRegister(r *repository.Repository, path string, loc *time.Location) {
	file, err := os.Open(path)
	if err != nil {
		slog.Error("打开文件失败", "error", err)
		return
	}
	defer file.Close()

	records, errs := ParseAssetRegister(file, loc)
	for _, err := range errs {
		slog.Error("解析资产台账失败", "error", err)
	}

	cnt := 0
	for _, record := range records {
		asset := record.Asset

		if record.AssigneeUsername != "" && asset.Schedule != nil {
			user, err := r.GetUserByUsername(record.AssigneeUsername)
			if err != nil {
				switch {
				case errors.Is(err, sql.ErrNoRows):
					slog.Error("负责人不存在", "username", record.AssigneeUsername, "asset", asset.Name)
				default:
					slog.Error("获取负责人失败", "error", err)
				}
				continue
			}
			asset.Schedule.AssignedTo = &recurrence.Personnel{ID: user.ID, FullName: user.FullName}
		}

		if err := r.CreateAsset(asset); err != nil {
			slog.Error("插入资产失败", "asset", asset.Name, "error", err)
			continue
		}
		cnt++
	}

	slog.Info("导入资产台账完成", "count", cnt)
}
