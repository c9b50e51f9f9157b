// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rovshanmuradov/curve-engine/internal/storage"
	"github.com/rovshanmuradov/curve-engine/internal/storage/models"
)

// gormLogger adapts zap to GORM's logger.Interface.
type gormLogger struct {
	zapLogger *zap.Logger
	logLevel  logger.LogLevel
}

func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{
		zapLogger: zapLogger,
		logLevel:  logger.Warn,
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	if err != nil {
		l.zapLogger.Error("trace", append(fields, zap.Error(err))...)
		return
	}

	if l.logLevel >= logger.Info {
		l.zapLogger.Info("trace", fields...)
	}
}

// postgresStorage implements the storage.Storage interface.
type postgresStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStorage connects to Postgres, retrying with exponential backoff
// so the engine survives a database that comes up after it does.
func NewStorage(ctx context.Context, dsn string, zapLogger *zap.Logger) (storage.Storage, error) {
	gormLogger := newGormLogger(zapLogger.Named("gorm"))

	connect := func() (*gorm.DB, error) {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormLogger,
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
			DisableForeignKeyConstraintWhenMigrating: true,
			SkipDefaultTransaction:                   true,
		})
	}

	db, err := backoff.Retry(
		ctx,
		connect,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &postgresStorage{
		db:     db,
		logger: zapLogger,
	}, nil
}

// RunMigrations applies the schema through GORM AutoMigrate, guarded
// by an advisory lock so concurrent instances don't race.
func (p *postgresStorage) RunMigrations() error {
	var lockObtained bool
	err := p.db.Raw("SELECT pg_try_advisory_lock(101)").Scan(&lockObtained).Error
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !lockObtained {
		return fmt.Errorf("another migration is in progress")
	}
	defer p.db.Exec("SELECT pg_advisory_unlock(101)")

	err = p.db.AutoMigrate(
		&models.Curve{},
		&models.Trade{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (p *postgresStorage) SaveCurve(ctx context.Context, c *models.Curve) error {
	return p.db.WithContext(ctx).Create(c).Error
}

func (p *postgresStorage) UpdateCurve(ctx context.Context, c *models.Curve) error {
	return p.db.WithContext(ctx).Model(&models.Curve{}).
		Where("asset = ?", c.Asset).
		Updates(map[string]interface{}{
			"token_supply": c.TokenSupply,
			"sol_reserves": c.SolReserves,
			"graduated":    c.Graduated,
		}).Error
}

func (p *postgresStorage) GetCurve(ctx context.Context, asset string) (*models.Curve, error) {
	var c models.Curve
	err := p.db.WithContext(ctx).Where("asset = ?", asset).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (p *postgresStorage) ListCurves(ctx context.Context) ([]*models.Curve, error) {
	var curves []*models.Curve
	err := p.db.WithContext(ctx).Order("created_at asc").Find(&curves).Error
	return curves, err
}

func (p *postgresStorage) SaveTrade(ctx context.Context, trade *models.Trade) error {
	return p.db.WithContext(ctx).Create(trade).Error
}

func (p *postgresStorage) ListTrades(ctx context.Context, asset string, limit, offset int) ([]*models.Trade, error) {
	var trades []*models.Trade
	err := p.db.WithContext(ctx).
		Where("asset = ?", asset).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&trades).Error
	return trades, err
}

func (p *postgresStorage) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
