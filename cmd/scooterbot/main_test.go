package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/scooter-intake/internal/domain"
	"github.com/tbourn/scooter-intake/internal/repo"
)

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		exportScope, exportYear, exportMonth, exportOut = "all", 0, 0, ""
		reportFrom, reportTo = "", ""
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_PATH", filepath.Join(dir, "scooters.db"))
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("ALIASES_FILE", "")
	return dir
}

func seedFile(t *testing.T, recs ...domain.Acceptance) {
	t.Helper()
	db, err := repo.OpenSQLite(os.Getenv("DB_PATH"))
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	_, err = repo.AppendAcceptances(context.Background(), db, recs)
	require.NoError(t, err)
	require.NoError(t, repo.Close(db))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
		assert.NotEmpty(t, c.Short, c.Name())
	}
	for _, want := range []string{"serve", "migrate", "export", "report"} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestMigrate(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")
	assert.FileExists(t, os.Getenv("DB_PATH"))
}

func TestExport(t *testing.T) {
	dir := setupEnv(t)
	seedFile(t,
		domain.Acceptance{Identifier: "AB1234", Service: domain.ServiceWhoosh, UserID: 1, Username: "ann", FullName: "Ann", AcceptedAt: time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC), ChatID: -100},
		domain.Acceptance{Identifier: "12345678", Service: domain.ServiceYandex, UserID: 2, Username: "bob", FullName: "Bob", AcceptedAt: time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC), ChatID: -100},
	)

	dst := filepath.Join(dir, "all.xlsx")
	out, err := run(t, "export", "--scope", "all", "-o", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "2 records")
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), data[:2])

	dst = filepath.Join(dir, "june.xlsx")
	out, err = run(t, "export", "--scope", "month", "--year", "2025", "--month", "6", "-o", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "2 records")

	_, err = run(t, "export", "--scope", "month", "--year", "2025", "--month", "13")
	assert.Error(t, err)

	_, err = run(t, "export", "--scope", "week")
	assert.ErrorContains(t, err, "unknown --scope")
}

func TestReport_EmptyRange(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "report", "--from", "2025-06-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing accepted from 2025-06-01 to 2025-06-01.")

	_, err = run(t, "report", "--from", "01.06.2025")
	assert.Error(t, err)
}
