package domain

const (
	MailTypeCreateUser          = "create_user"
	MailTypeResetPassword       = "reset_password"
	MailTypeChangeEmail         = "change_email"
	MailTypeMaintenanceReminder = "maintenance_reminder"
	MailTypeBookingStatus       = "booking_status"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ResetPasswordMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type ChangeEmailMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type MaintenanceReminderMailData struct {
	FullName    string `json:"fullName"`
	AssetName   string `json:"assetName"`
	Location    string `json:"location"`
	Schedule    string `json:"schedule"`
	DueDate     string `json:"dueDate"`
	WorkOrderID int64  `json:"workOrderID"`
}

type BookingStatusMailData struct {
	FullName  string `json:"fullName"`
	Title     string `json:"title"`
	Reference string `json:"reference"`
	DateRange string `json:"dateRange"`
	TimeRange string `json:"timeRange"`
	Status    string `json:"status"`
}
