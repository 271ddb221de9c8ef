package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/omeyang/xshard/pkg/observability/xlog"
	"github.com/omeyang/xshard/pkg/setting/xsetting"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// runApp 运行 CLI 并捕获标准输出。
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runAppWith(t, createApp(), append([]string{"--log-level", "error"}, args...)...)
}

func TestCreateCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range createCommands() {
		names[cmd.Name] = true
	}
	for _, name := range []string{"serve", "resolve", "set", "owners", "check-config"} {
		assert.True(t, names[name], "missing command %q", name)
	}
}

func TestOwners(t *testing.T) {
	path := writeConfig(t, "Owners:\n  bob: 2\n  alice: 1\n")

	out, err := runApp(t, "--config", path, "owners")
	require.NoError(t, err)
	assert.Equal(t, "alice\t1\nbob\t2\n", out)
}

func TestOwners_ConfigFromEnv(t *testing.T) {
	path := writeConfig(t, "Owners:\n  carol: 3\n")
	t.Setenv("XSHARD_CONFIG", path)

	out, err := runApp(t, "owners")
	require.NoError(t, err)
	assert.Equal(t, "carol\t3\n", out)
}

func TestOwners_MissingFile(t *testing.T) {
	_, err := runApp(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "owners")
	require.Error(t, err)
}

func TestCheckConfig(t *testing.T) {
	path := writeConfig(t, "Owners:\n  alice: 1\nbot:\n  name: shard\n")

	out, err := runApp(t, "--config", path, "check-config")
	require.NoError(t, err)
	assert.Contains(t, out, "格式: yaml")
	assert.Contains(t, out, "配置项: 2")
	assert.Contains(t, out, "Owners: 1")
}

func TestCheckConfig_Invalid(t *testing.T) {
	path := writeConfig(t, "Owners: [broken\n")

	_, err := runApp(t, "--config", path, "check-config")
	var exitErr *exitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.code)
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"resolve_no_args", []string{"resolve"}},
		{"resolve_bad_tenant", []string{"resolve", "abc"}},
		{"resolve_zero_tenant", []string{"resolve", "0"}},
		{"set_missing_prefix", []string{"set", "42"}},
		{"set_zero_tenant", []string{"set", "0", "!"}},
		{"set_blank_prefix", []string{"set", "42", "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, tt.args...)
			var usageErr *usageError
			require.ErrorAs(t, err, &usageErr)
		})
	}
}

func TestRun_ExitCodes(t *testing.T) {
	t.Cleanup(xlog.ResetDefault)
	path := writeConfig(t, "Owners:\n  alice: 1\n")
	bad := writeConfig(t, "Owners: [broken\n")

	assert.Equal(t, 0, run(context.Background(), []string{"xshardctl", "--config", path, "check-config"}))
	assert.Equal(t, 1, run(context.Background(), []string{"xshardctl", "--config", bad, "check-config"}))
	assert.Equal(t, 2, run(context.Background(), []string{"xshardctl", "resolve"}))
	assert.Equal(t, 2, run(context.Background(), []string{"xshardctl", "--log-level", "loud", "owners"}))
	assert.Equal(t, 2, run(context.Background(), []string{"xshardctl", "--no-such-flag", "owners"}))
}

func TestParseTenant(t *testing.T) {
	id, err := parseTenant(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, xsetting.TenantID(42), id)

	_, err = parseTenant("4x")
	var usageErr *usageError
	assert.ErrorAs(t, err, &usageErr)
}

func TestConnectionFlagsFromEnv(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "shards")
	t.Setenv("DATABASE_URL", "")

	app := createApp()
	app.Commands = append(app.Commands, createEnvCheckCommand(t))
	_, err := runAppWith(t, app, "env-check")
	require.NoError(t, err)
}

// createEnvCheckCommand 校验环境变量映射到连接配置。
func createEnvCheckCommand(t *testing.T) *cli.Command {
	return &cli.Command{
		Name: "env-check",
		Action: func(_ context.Context, cmd *cli.Command) error {
			rc := redisConfig(cmd)
			assert.Equal(t, "cache.internal", rc.Host)
			assert.Equal(t, 6380, rc.Port)
			assert.Empty(t, rc.URL)

			pc := pgConfig(cmd)
			assert.Equal(t, "db.internal", pc.Host)
			assert.Equal(t, "shards", pc.Name)
			assert.Equal(t, "aimod_user", pc.User)
			assert.Equal(t, 5432, pc.Port)
			return nil
		},
	}
}

func runAppWith(t *testing.T, app *cli.Command, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(xlog.ResetDefault)
	var out bytes.Buffer
	app.Writer = &out
	err := app.Run(context.Background(), append([]string{"xshardctl"}, args...))
	return out.String(), err
}

func TestCloseAll(t *testing.T) {
	var order []int
	errA := errors.New("a")
	err := closeAll([]io.Closer{
		closerFunc(func() error { order = append(order, 1); return errA }),
		closerFunc(func() error { order = append(order, 2); return nil }),
	})
	assert.ErrorIs(t, err, errA)
	assert.Equal(t, []int{2, 1}, order)
}
