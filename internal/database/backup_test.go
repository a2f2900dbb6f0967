package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"yogastudio/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "studio.db")
	storagePath := filepath.Join(tempDir, "backups")

	logger := zerolog.Nop()
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	mustClass(t, db, time.Hour, 4)
	require.NoError(t, db.Close())

	s := NewBackupService(dbPath, config.BackupConfig{
		Enabled:       true,
		StoragePath:   storagePath,
		RetentionDays: 1,
	}, &logger)

	t.Run("PerformBackup", func(t *testing.T) {
		path, err := s.PerformBackup(context.Background())
		require.NoError(t, err)

		restored, err := NewDB(path, &logger)
		require.NoError(t, err)
		defer restored.Close()

		classes, err := restored.ListClasses(context.Background(), ClassFilter{})
		require.NoError(t, err)
		assert.Len(t, classes, 1)
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		old := filepath.Join(storagePath, "studio_old.db")
		require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
		past := time.Now().AddDate(0, 0, -3)
		require.NoError(t, os.Chtimes(old, past, past))

		s.CleanupOldBackups()

		_, err := os.Stat(old)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("MemoryDatabase", func(t *testing.T) {
		mem := NewBackupService(":memory:", config.BackupConfig{StoragePath: storagePath}, &logger)
		_, err := mem.PerformBackup(context.Background())
		assert.Error(t, err)
	})
}

func TestBackupInterval(t *testing.T) {
	logger := zerolog.Nop()
	assert.Equal(t, 24*time.Hour, NewBackupService("x", config.BackupConfig{}, &logger).interval())
	assert.Equal(t, 24*time.Hour, NewBackupService("x", config.BackupConfig{Schedule: "nope"}, &logger).interval())
	assert.Equal(t, time.Hour, NewBackupService("x", config.BackupConfig{Schedule: "1h"}, &logger).interval())
}
