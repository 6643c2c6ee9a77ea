package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/selatan-haulage/driver-leave/backend/internal/booking"
	"github.com/selatan-haulage/driver-leave/backend/internal/config"
	"github.com/selatan-haulage/driver-leave/backend/internal/repository"
	"github.com/selatan-haulage/driver-leave/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	flag.IntVar(&op, "op", 0, "operation to run (1: seed random drivers, 2: seed random leave records, 3: both)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("unable to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("unable to create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("unable to connect to the database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)
	if err := repo.EnsureSchema(); err != nil {
		logger.Error("unable to ensure database schema", "error", err)
		return
	}
	if err := repo.EnsureDefaultSettings(cfg.Calendar.CalendarID, cfg.Booking.WeekendDays, cfg.Booking.MaxPerDay); err != nil {
		logger.Error("unable to ensure default settings", "error", err)
		return
	}

	switch op {
	case 0:
		slog.Error("no operation given")
	case 1:
		seedDrivers(repo, cfg)
	case 2:
		seedLeaveRecords(repo, cfg)
	case 3:
		seedDrivers(repo, cfg)
		seedLeaveRecords(repo, cfg)
	default:
		slog.Error("unknown operation", slog.Int("op", op))
	}
}

func seedDrivers(repo *repository.Repository, cfg *config.Config) {
	existing, err := repo.GetAllDrivers()
	if err != nil {
		slog.Error("unable to load drivers", slog.String("error", err.Error()))
		return
	}

	drivers := existing
	for i := 0; i < cfg.Seed.Drivers; i++ {
		drivers = append(drivers, utils.GenerateRandomDriver())
	}

	if err := repo.ReplaceDrivers(drivers); err != nil {
		slog.Error("unable to seed drivers", slog.String("error", err.Error()))
		return
	}
	slog.Info("drivers seeded", slog.Int("count", cfg.Seed.Drivers))
}

func seedLeaveRecords(repo *repository.Repository, cfg *config.Config) {
	drivers, err := repo.GetAllDrivers()
	if err != nil {
		slog.Error("unable to load drivers", slog.String("error", err.Error()))
		return
	}
	if len(drivers) == 0 {
		slog.Error("no drivers to book leave for, seed drivers first")
		return
	}

	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		slog.Error("unable to load operating time zone", slog.String("error", err.Error()))
		return
	}

	today := booking.KeyFor(time.Now(), loc)
	cnt := 0
	for i := 0; i < cfg.Seed.Records; i++ {
		driver := drivers[rand.Intn(len(drivers))]
		day := today.AddDays(rand.Intn(45))
		length := 1 + rand.Intn(3)
		days := booking.ExpandRange(day, day.AddDays(length-1))

		dates := make([]string, 0, len(days))
		for _, d := range days {
			dates = append(dates, string(d))
		}

		if _, err := repo.ApplyLeave(driver.DriverID, dates, cfg.Booking.MaxPerDay); err != nil {
			// quota hits are expected while seeding, skip and move on
			continue
		}
		cnt++
	}
	slog.Info("leave records seeded", slog.Int("applications", cnt))
}
