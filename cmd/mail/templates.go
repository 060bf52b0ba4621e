package main

import (
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/campus-ops/cmms/backend/internal/domain"
)

type mailTemplate struct {
	file    string
	subject string
}

const subjectPrefix = "校园设施维护系统 - "

var mailTemplates = map[string]mailTemplate{
	domain.MailTypeCreateUser:          {file: "new_account_email.html", subject: "账户信息"},
	domain.MailTypeResetPassword:       {file: "reset_password_otp_email.html", subject: "重置密码"},
	domain.MailTypeChangeEmail:         {file: "change_email_email.html", subject: "修改邮箱"},
	domain.MailTypeMaintenanceReminder: {file: "maintenance_reminder_email.html", subject: "预防性维护提醒"},
	domain.MailTypeBookingStatus:       {file: "booking_status_email.html", subject: "预约状态更新"},
}

// loadTemplate 返回邮件类型对应的模板和主题
func loadTemplate(dir, mailType string) (*template.Template, string, error) {
	mt, ok := mailTemplates[mailType]
	if !ok {
		return nil, "", fmt.Errorf("不支持的邮件类型: %s", mailType)
	}

	tmpl, err := template.ParseFiles(filepath.Join(dir, mt.file))
	if err != nil {
		return nil, "", err
	}

	return tmpl, subjectPrefix + mt.subject, nil
}
