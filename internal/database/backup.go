package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"yogastudio/internal/config"

	"github.com/rs/zerolog"
)

const backupPrefix = "studio_"

// BackupService snapshots the sqlite file on a fixed interval.
type BackupService struct {
	dbPath string
	config config.BackupConfig
	logger *zerolog.Logger
}

func NewBackupService(dbPath string, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		dbPath: dbPath,
		config: cfg,
		logger: logger,
	}
}

func (s *BackupService) interval() time.Duration {
	if s.config.Schedule == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(s.config.Schedule)
	if err != nil || d <= 0 {
		s.logger.Warn().Str("schedule", s.config.Schedule).Msg("Invalid backup schedule, using 24h")
		return 24 * time.Hour
	}
	return d
}

// Start blocks until ctx is done, taking a backup right away and then on every tick.
func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("Backup service is disabled")
		return
	}

	interval := s.interval()
	s.logger.Info().Dur("interval", interval).Msg("Backup service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *BackupService) runOnce(ctx context.Context) {
	if _, err := s.PerformBackup(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Backup failed")
		return
	}
	s.CleanupOldBackups()
}

// PerformBackup writes a consistent copy with VACUUM INTO and returns its path.
func (s *BackupService) PerformBackup(ctx context.Context) (string, error) {
	if s.dbPath == "" || s.dbPath == ":memory:" {
		return "", fmt.Errorf("backup requires a file database, got %q", s.dbPath)
	}
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("%s%s.db", backupPrefix, time.Now().Format("20060102_150405.000"))
	target := filepath.Join(s.config.StoragePath, name)

	src, err := sql.Open("sqlite3", s.dbPath+"?_busy_timeout=5000")
	if err != nil {
		return "", fmt.Errorf("failed to open source database: %w", err)
	}
	defer src.Close()

	quoted := strings.ReplaceAll(target, "'", "''")
	if _, err := src.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", quoted)); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", target, err)
	}

	s.logger.Info().Str("path", target).Msg("Backup completed")
	return target, nil
}

// CleanupOldBackups removes backups older than the retention window.
func (s *BackupService) CleanupOldBackups() {
	if s.config.RetentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read backup directory")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), backupPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(s.config.StoragePath, entry.Name())
			if err := os.Remove(path); err != nil {
				s.logger.Warn().Err(err).Str("file", path).Msg("Failed to delete old backup")
				continue
			}
			s.logger.Info().Str("file", entry.Name()).Msg("Deleted old backup")
		}
	}
}
