package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/campus-ops/cmms/backend/internal/calendar"
	"github.com/campus-ops/cmms/backend/internal/config"
	"github.com/campus-ops/cmms/backend/internal/domain"
	"github.com/campus-ops/cmms/backend/internal/repository"
	"github.com/campus-ops/cmms/backend/internal/seed"
	"github.com/campus-ops/cmms/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var role string
	var register string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机资产, 3: 插入随机预约, 4: 导入资产台账)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.StringVar(&role, "role", string(domain.RoleStaff), "随机用户的角色 (维修人员 或 教职工)")
	flag.StringVar(&register, "file", seed.DefaultAssetRegister, "资产台账 CSV 文件路径")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}
	loc, _ := cfg.Location()

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		userRole := domain.Role(role)
		if userRole != domain.RoleTechnician && userRole != domain.RoleStaff {
			slog.Error("随机用户只能是维修人员或教职工", slog.String("role", role))
			return
		}
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain, userRole)
			if err != nil {
				slog.Error("无法生成随机用户", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateUser(user); err != nil {
				slog.Error("无法插入用户", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入用户成功", slog.Int("count", cnt))
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的资产数量")
			return
		}

		// 负责人从维修人员中随机选取，没有维修人员时资产不指派负责人
		technicians, err := repo.GetAllUsers(domain.RoleTechnician)
		if err != nil {
			slog.Error("无法获取维修人员", slog.String("error", err.Error()))
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			asset := utils.GenerateRandomAsset(technicians)
			if err := repo.CreateAsset(asset); err != nil {
				slog.Error("无法插入资产", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入资产成功", slog.Int("count", cnt))
	case 3:
		if n <= 0 {
			slog.Error("请输入合法的预约数量")
			return
		}

		requesters, err := repo.GetAllUsers(domain.RoleStaff)
		if err != nil {
			slog.Error("无法获取教职工", slog.String("error", err.Error()))
			return
		}
		if len(requesters) == 0 {
			slog.Error("数据库中没有教职工，请先插入随机用户")
			return
		}

		today := calendar.DateOf(time.Now().In(loc))
		cnt := 0
		for i := 0; i < n; i++ {
			booking := utils.GenerateRandomBooking(requesters[i%len(requesters)], today)

			conflict, err := repo.CreateBooking(booking, utils.FindBookingConflict)
			if err != nil {
				slog.Error("无法插入预约", slog.String("error", err.Error()))
				continue
			}
			if conflict != nil {
				slog.Warn("随机预约与已有预约冲突，跳过", slog.String("location", booking.Location), slog.Int64("conflict_id", conflict.ID))
				continue
			}

			cnt++
		}

		slog.Info("插入预约成功", slog.Int("count", cnt))
	case 4:
		seed.SeedAssetRegister(repo, register, loc)
	default:
		slog.Error("指定的操作非法")
	}
}
