package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/redis/go-redis/v9"

	"github.com/campus-ops/cmms/backend/internal/config"
	"github.com/campus-ops/cmms/backend/internal/domain"
	"github.com/campus-ops/cmms/backend/internal/repository"
)

type MailPublisher interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mailer      MailPublisher
	redisClient *redis.Client
	location    *time.Location
	now         func() time.Time

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailer MailPublisher, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailer:      mailer,
		redisClient: rdb,
		location:    loc,
		now:         time.Now,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	admin := h.RequiredRole([]domain.Role{domain.RoleAdmin})
	maintainer := h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleTechnician})

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 日历只做纯计算，不需要登录
	h.Mux.Route("/calendar", func(r chi.Router) {
		r.Get("/grid", h.GetCalendarGrid)
		r.Post("/range", h.SelectDateRange)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Route("/update-email", func(r chi.Router) {
				r.Post("/require", h.RequireUpdateEmail)
				r.Post("/confirm", h.ConfirmUpdateEmail)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(admin).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo) // 新建资产时需要列出所有维修人员
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(admin).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(admin).Delete("/", h.DeleteUser)
				r.With(admin).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/assets", func(r chi.Router) {
			r.With(admin).Post("/", h.CreateAsset)
			r.Get("/", h.GetAllAssets)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.asset)
				r.Get("/", h.GetAsset)
				r.With(admin).Patch("/", h.UpdateAsset)
				r.With(admin).Delete("/", h.DeleteAsset)
				r.Get("/schedule", h.GetAssetSchedule)
				r.Get("/schedule.ics", h.GetAssetScheduleFeed)
				r.With(maintainer).Post("/maintenance/complete", h.CompleteAssetMaintenance)
			})
		})

		r.With(maintainer).Get("/maintenance/due", h.GetDueMaintenance)

		r.Route("/bookings", func(r chi.Router) {
			r.With(h.myInfo).With(h.preventInactiveUser).Post("/", h.CreateBooking)
			r.Get("/", h.GetAllBookings)
			r.Get("/calendar.ics", h.GetBookingFeed)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.booking)
				r.Get("/", h.GetBooking)
				r.With(h.myInfo).With(h.bookingOwnerOrAdmin).Delete("/", h.DeleteBooking)
				r.With(admin).Patch("/status", h.UpdateBookingStatus)
			})
		})

		r.Route("/work-orders", func(r chi.Router) {
			r.Use(maintainer)
			r.Post("/", h.CreateWorkOrder)
			r.Get("/", h.GetAllWorkOrders)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.workOrder)
				r.Get("/", h.GetWorkOrder)
				r.Patch("/status", h.UpdateWorkOrderStatus)
			})
		})
	})
}
