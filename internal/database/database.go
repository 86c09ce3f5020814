package database

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/ap-itemlog/internal/config"
	apperrors "github.com/wfunc/ap-itemlog/internal/errors"
	"github.com/wfunc/ap-itemlog/internal/logger"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Init 初始化数据库连接
func Init(cfg *config.DatabaseConfig) error {
	var err error
	once.Do(func() {
		err = initDatabase(cfg)
	})
	return err
}

func initDatabase(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return apperrors.Newf(apperrors.ErrConfigValidate, "不支持的数据库驱动: %s", cfg.Driver)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(),
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseConnect)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseConnect)
	}

	// 连接池参数
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseConnect)
	}

	db = gormDB
	logger.WithModule("database").Info("数据库连接成功",
		zap.String("driver", cfg.Driver),
	)

	return nil
}

// GetDB 获取数据库实例
func GetDB() *gorm.DB {
	return db
}

// SetDB 设置数据库实例（测试用）
func SetDB(d *gorm.DB) {
	db = d
}

// Close 关闭数据库连接
func Close() error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseConnect)
	}

	return sqlDB.Close()
}

// GormLogger 基于zap的gorm日志适配器
type GormLogger struct {
	zapLogger     *zap.Logger
	slowThreshold time.Duration
}

// NewGormLogger 创建gorm日志适配器
func NewGormLogger() *GormLogger {
	return &GormLogger{
		zapLogger:     logger.GetModuleLogger("gorm"),
		slowThreshold: 200 * time.Millisecond,
	}
}

// LogMode 实现gorm logger接口
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return l
}

// Info 信息日志
func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.zapLogger.Sugar().Infof(msg, data...)
}

// Warn 警告日志
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.zapLogger.Sugar().Warnf(msg, data...)
}

// Error 错误日志
func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.zapLogger.Sugar().Errorf(msg, data...)
}

// Trace SQL跟踪日志
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && err != gorm.ErrRecordNotFound:
		l.zapLogger.Error("SQL执行失败",
			zap.Error(err),
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	case elapsed > l.slowThreshold:
		l.zapLogger.Warn("慢查询",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	default:
		l.zapLogger.Debug("SQL执行",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	}
}
