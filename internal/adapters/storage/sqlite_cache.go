package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/renato0307/prtrack/internal/domain"
	"github.com/renato0307/prtrack/internal/logging"
	"github.com/renato0307/prtrack/internal/ports"
)

// SQLiteCache implements ports.PRCache using GORM
type SQLiteCache struct {
	db *gorm.DB
}

// Verify interface compliance at compile time
var _ ports.PRCache = (*SQLiteCache)(nil)

// gormLogger wraps the prtrack logger for GORM
type gormLogger struct {
	level logger.LogLevel
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		logging.Logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		logging.Logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		logging.Logger.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level < logger.Info {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Logger.Error("gorm query error",
			"error", err,
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else if elapsed > 200*time.Millisecond {
		logging.Logger.Warn("slow query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else {
		logging.Logger.Debug("gorm query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	}
}

func newGormLogger() logger.Interface {
	if os.Getenv("PRTRACK_DEBUG") == "1" {
		return (&gormLogger{}).LogMode(logger.Info)
	}
	return (&gormLogger{}).LogMode(logger.Silent)
}

// NewSQLiteCache opens (or creates) the cache database at dbPath
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	// Expand home directory if present
	if len(dbPath) > 0 && dbPath[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, dbPath[1:])
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		PrepareStmt: false,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for concurrent access
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	db.Exec("PRAGMA synchronous=NORMAL")

	if err := db.AutoMigrate(&PRModel{}, &MetadataModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache schema: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	return &SQLiteCache{db: db}, nil
}

// Close closes the database connection
func (c *SQLiteCache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetAll implements PRReader.GetAll
func (c *SQLiteCache) GetAll(ctx context.Context) ([]domain.PullRequest, error) {
	var models []PRModel
	err := withRetry(func() error {
		return c.db.WithContext(ctx).Order("number DESC").Find(&models).Error
	}, 3)
	if err != nil {
		return nil, err
	}
	return modelsToDomain(models), nil
}

// GetByRepo implements PRReader.GetByRepo
func (c *SQLiteCache) GetByRepo(ctx context.Context, repo string) ([]domain.PullRequest, error) {
	var models []PRModel
	err := withRetry(func() error {
		return c.db.WithContext(ctx).Where("repo = ?", repo).Order("number DESC").Find(&models).Error
	}, 3)
	if err != nil {
		return nil, err
	}
	return modelsToDomain(models), nil
}

// GetByAccount implements PRReader.GetByAccount. Matches rows where the
// account is the author or appears in the assignees JSON array.
func (c *SQLiteCache) GetByAccount(ctx context.Context, login string) ([]domain.PullRequest, error) {
	var models []PRModel
	err := withRetry(func() error {
		return c.db.WithContext(ctx).
			Where("author = ? OR assignees LIKE ?", login, assigneePattern(login)).
			Order("number DESC").
			Find(&models).Error
	}, 3)
	if err != nil {
		return nil, err
	}
	return modelsToDomain(models), nil
}

// Upsert implements PRWriter.Upsert. Insert-or-replace by (repo, number);
// never deletes. No-op on empty input.
func (c *SQLiteCache) Upsert(ctx context.Context, prs []domain.PullRequest, fetchedAt int64) error {
	if len(prs) == 0 {
		return nil
	}
	ts := stampOrNow(fetchedAt)

	models := make([]PRModel, len(prs))
	for i, pr := range prs {
		models[i] = domainToPRModel(pr, ts)
	}

	return withRetry(func() error {
		return c.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "repo"}, {Name: "number"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "author", "assignees", "branch", "draft",
				"approvals", "html_url", "state", "fetched_at",
			}),
		}).Create(&models).Error
	}, 3)
}

// SyncRepo implements PRWriter.SyncRepo. Atomically replaces the repository's
// entire row set with prs: any cached row the fresh fetch no longer reports
// is gone after this call. The delete+insert is one transaction, so a write
// failure rolls back to the pre-sync state.
func (c *SQLiteCache) SyncRepo(ctx context.Context, repo string, prs []domain.PullRequest, fetchedAt int64) error {
	ts := stampOrNow(fetchedAt)

	return withRetry(func() error {
		return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("repo = ?", repo).Delete(&PRModel{}).Error; err != nil {
				return fmt.Errorf("failed to clear rows for %s: %w", repo, err)
			}
			if len(prs) == 0 {
				return nil
			}

			models := make([]PRModel, len(prs))
			for i, pr := range prs {
				models[i] = domainToPRModel(pr, ts)
			}
			if err := tx.Create(&models).Error; err != nil {
				return fmt.Errorf("failed to insert rows for %s: %w", repo, err)
			}
			return nil
		})
	}, 3)
}

// DeletePR implements PRWriter.DeletePR
func (c *SQLiteCache) DeletePR(ctx context.Context, repo string, number int) error {
	return withRetry(func() error {
		return c.db.WithContext(ctx).
			Where("repo = ? AND number = ?", repo, number).
			Delete(&PRModel{}).Error
	}, 3)
}

// DeleteByRepo implements PRWriter.DeleteByRepo
func (c *SQLiteCache) DeleteByRepo(ctx context.Context, repo string) error {
	return withRetry(func() error {
		return c.db.WithContext(ctx).Where("repo = ?", repo).Delete(&PRModel{}).Error
	}, 3)
}

// DeleteByAccount implements PRWriter.DeleteByAccount. Rows authored by the
// login are deleted. Rows that merely assign the login keep their other
// matches: the login is stripped from the assignees list and the row stays.
// The LIKE match on the assignees column is a pre-filter; membership is
// confirmed against the decoded array so substring logins cannot match.
func (c *SQLiteCache) DeleteByAccount(ctx context.Context, login, repo string) error {
	return withRetry(func() error {
		return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			authored := tx.Where("author = ?", login)
			if repo != "" {
				authored = authored.Where("repo = ?", repo)
			}
			if err := authored.Delete(&PRModel{}).Error; err != nil {
				return err
			}

			candidates := tx.Where("assignees LIKE ?", assigneePattern(login))
			if repo != "" {
				candidates = candidates.Where("repo = ?", repo)
			}
			var models []PRModel
			if err := candidates.Find(&models).Error; err != nil {
				return err
			}

			for _, m := range models {
				var assignees []string
				if err := json.Unmarshal([]byte(m.Assignees), &assignees); err != nil {
					continue
				}
				remaining := assignees[:0]
				for _, a := range assignees {
					if a != login {
						remaining = append(remaining, a)
					}
				}
				if len(remaining) == len(assignees) {
					continue // LIKE false positive
				}

				raw, err := json.Marshal(remaining)
				if err != nil {
					return err
				}
				if err := tx.Model(&PRModel{}).
					Where("repo = ? AND number = ?", m.Repo, m.Number).
					Update("assignees", string(raw)).Error; err != nil {
					return err
				}
			}
			return nil
		})
	}, 3)
}

// RecordLastRefresh implements RefreshMetadata.RecordLastRefresh.
// A non-positive ts means now. Overwrites any prior value for the scope.
func (c *SQLiteCache) RecordLastRefresh(ctx context.Context, scope string, ts int64) error {
	stamp := stampOrNow(ts)
	return withRetry(func() error {
		return c.db.WithContext(ctx).Save(&MetadataModel{
			Key:   lastRefreshKey(scope),
			Value: strconv.FormatInt(stamp, 10),
		}).Error
	}, 3)
}

// LastRefresh implements RefreshMetadata.LastRefresh. The second return is
// false when the scope was never refreshed.
func (c *SQLiteCache) LastRefresh(ctx context.Context, scope string) (int64, bool, error) {
	var meta MetadataModel
	err := withRetry(func() error {
		return c.db.WithContext(ctx).Where("key = ?", lastRefreshKey(scope)).First(&meta).Error
	}, 3)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	ts, err := strconv.ParseInt(meta.Value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt last refresh value for %s: %w", scope, err)
	}
	return ts, true, nil
}

// Stats implements CacheMaintenance.Stats
func (c *SQLiteCache) Stats(ctx context.Context) (ports.CacheStats, error) {
	var stats ports.CacheStats
	err := withRetry(func() error {
		db := c.db.WithContext(ctx)
		if err := db.Model(&PRModel{}).Count(&stats.TotalPRs).Error; err != nil {
			return err
		}
		if err := db.Model(&PRModel{}).Distinct("repo").Count(&stats.Repositories).Error; err != nil {
			return err
		}

		var size *int64
		err := db.Model(&PRModel{}).
			Select("SUM(LENGTH(title) + LENGTH(author) + LENGTH(assignees) + LENGTH(branch) + LENGTH(html_url))").
			Scan(&size).Error
		if err != nil {
			return err
		}
		if size != nil {
			stats.ApproximateSizeBytes = *size
		}
		return nil
	}, 3)
	return stats, err
}

// CleanupOld implements CacheMaintenance.CleanupOld. Purges PR rows and
// last refresh entries older than maxAgeDays. Maintenance only, never part
// of the refresh hot path.
func (c *SQLiteCache) CleanupOld(ctx context.Context, maxAgeDays int) error {
	cutoff := time.Now().Unix() - int64(maxAgeDays)*24*60*60
	return withRetry(func() error {
		return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("fetched_at < ?", cutoff).Delete(&PRModel{}).Error; err != nil {
				return err
			}
			return tx.Where("key LIKE 'last_refresh:%' AND CAST(value AS INTEGER) < ?", cutoff).
				Delete(&MetadataModel{}).Error
		})
	}, 3)
}

func modelsToDomain(models []PRModel) []domain.PullRequest {
	prs := make([]domain.PullRequest, len(models))
	for i, m := range models {
		prs[i] = prModelToDomain(m)
	}
	return prs
}

// assigneePattern matches a JSON-quoted login inside the assignees column
func assigneePattern(login string) string {
	return `%"` + login + `"%`
}

func lastRefreshKey(scope string) string {
	return "last_refresh:" + scope
}

func stampOrNow(ts int64) int64 {
	if ts > 0 {
		return ts
	}
	return time.Now().Unix()
}

// withRetry retries operations on SQLITE_BUSY with exponential backoff
func withRetry(fn func() error, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
			time.Sleep(time.Millisecond * time.Duration(50*(i+1)))
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries", maxRetries)
}
