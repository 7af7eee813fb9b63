package app

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/talkincode/botgate/config"
)

func getDatabase(cfg config.DBConfig, workdir string) *gorm.DB {
	switch cfg.Type {
	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name)
		gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			zap.S().Panicf("failed to connect postgres: %v", err)
		}
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.SetMaxOpenConns(cfg.MaxConn)
			sqlDB.SetMaxIdleConns(cfg.IdleConn)
		}
		return gdb
	default:
		if err := os.MkdirAll(workdir, 0o755); err != nil {
			zap.S().Panicf("failed to create workdir: %v", err)
		}
		dbfile := filepath.Join(workdir, cfg.Name+".db")
		gdb, err := gorm.Open(sqlite.Open(dbfile+"?_foreign_keys=on"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			zap.S().Panicf("failed to open sqlite db: %v", err)
		}
		return gdb
	}
}
