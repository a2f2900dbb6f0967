package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`
app:
  timezone: UTC
database:
  path: %q
logging:
  level: error
  output: stderr
exports:
  path: %q
backup:
  storage_path: %q
  retention_days: 7
`, filepath.Join(dir, "studio.db"), filepath.Join(dir, "exports"), filepath.Join(dir, "backups"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path, dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := execute(t, "migrate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Regexp(t, `schema version [1-9]\d*`, out)
}

func TestSeedDefaultOnce(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := execute(t, "seed", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 3 classes")

	_, err = execute(t, "seed", "-c", cfgPath)
	assert.ErrorContains(t, err, "already has classes")

	out, err = execute(t, "seed", "-c", cfgPath, "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 3 classes")
}

func TestSeedFromFile(t *testing.T) {
	cfgPath, dir := writeConfig(t)
	schedule := filepath.Join(dir, "schedule.yaml")
	require.NoError(t, os.WriteFile(schedule, []byte(`
classes:
  - name: Хатха йога
    datetime: "2030-05-01T18:30:00"
    max_participants: 12
    price: 900
    subscription_types:
      - name: 8 занятий
        visits_allowed: 8
        price: 5600
`), 0o644))

	out, err := execute(t, "seed", "-c", cfgPath, "--file", schedule)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 1 classes")
}

func TestParseSchedule(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	seed, err := parseSchedule([]byte(`
classes:
  - name: Йога
    description: утро
    datetime: "2030-05-01T07:00:00+03:00"
    max_participants: 5
    price: 500
    subscription_types:
      - {name: Пять, visits_allowed: 5, price: 2000}
  - name: Пилатес
    datetime: "2030-05-02T19:00:00"
    max_participants: 10
`), msk)
	require.NoError(t, err)
	require.Len(t, seed, 2)
	assert.Equal(t, time.Date(2030, 5, 1, 4, 0, 0, 0, time.UTC), seed[0].Class.StartsAt)
	require.Len(t, seed[0].Types, 1)
	assert.Equal(t, 5, seed[0].Types[0].VisitsAllowed)
	assert.Empty(t, seed[1].Types)
	assert.Equal(t, time.Date(2030, 5, 2, 16, 0, 0, 0, time.UTC), seed[1].Class.StartsAt)

	bad := []string{
		"classes: []",
		"classes:\n  - name: X\n    datetime: tomorrow\n    max_participants: 1\n",
		"classes:\n  - name: X\n    datetime: \"2030-05-01T07:00:00\"\n",
		"classes:\n  - datetime: \"2030-05-01T07:00:00\"\n    max_participants: 1\n",
		"classes:\n  - name: X\n    datetime: \"2030-05-01T07:00:00\"\n    max_participants: 1\n    subscription_types:\n      - name: Y\n",
		"classes: [",
	}
	for _, doc := range bad {
		_, err := parseSchedule([]byte(doc), msk)
		assert.Error(t, err, doc)
	}
}

func TestCreateClass(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := execute(t, "create-class", "-c", cfgPath,
		"--name", "Вечерняя практика", "--datetime", "2030-05-01T18:30:00", "--max", "12", "--price", "900")
	require.NoError(t, err)
	assert.Contains(t, out, "class 1 created")

	_, err = execute(t, "create-class", "-c", cfgPath, "--name", "X", "--datetime", "завтра", "--max", "1")
	assert.ErrorContains(t, err, "invalid --datetime")

	_, err = execute(t, "create-class", "-c", cfgPath, "--datetime", "2030-05-01T18:30:00", "--max", "1")
	assert.ErrorContains(t, err, "--name is required")
}

func TestExport(t *testing.T) {
	cfgPath, dir := writeConfig(t)

	_, err := execute(t, "create-class", "-c", cfgPath,
		"--name", "Вечерняя практика", "--datetime", "2030-05-01T18:30:00", "--max", "12", "--price", "900")
	require.NoError(t, err)

	out, err := execute(t, "export", "-c", cfgPath, "--from", "2030-05-01", "--to", "2030-05-02")
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(dir, "exports", "bookings_2030-05-01_to_2030-05-02.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	name, err := f.GetCellValue("Занятия", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Вечерняя практика", name)
}

func TestExportRange(t *testing.T) {
	now := time.Date(2030, 5, 1, 15, 0, 0, 0, time.UTC)

	from, to, err := exportRange("", "", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2030, 5, 8, 0, 0, 0, 0, time.UTC), to)

	// Days start at studio midnight, which is 21:00 UTC the day before in Moscow.
	msk := time.FixedZone("MSK", 3*60*60)
	from, _, err = exportRange("", "", time.Date(2030, 5, 1, 22, 0, 0, 0, time.UTC), msk)
	require.NoError(t, err)
	assert.True(t, time.Date(2030, 5, 1, 21, 0, 0, 0, time.UTC).Equal(from))

	_, _, err = exportRange("2030-05-02", "2030-05-01", now, time.UTC)
	assert.Error(t, err)
	_, _, err = exportRange("01.05.2030", "", now, time.UTC)
	assert.Error(t, err)
}

func TestBackup(t *testing.T) {
	cfgPath, dir := writeConfig(t)

	out, err := execute(t, "backup", "-c", cfgPath)
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(dir, "backups"), filepath.Dir(path))
	assert.FileExists(t, path)
}
