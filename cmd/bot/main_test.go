package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/RemindMe/internal/ai"
	"github.com/hray3182/RemindMe/internal/config"
	"github.com/hray3182/RemindMe/internal/lock"
	"github.com/hray3182/RemindMe/internal/temporal"
)

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()

	f := cmd.Flags().Lookup("config")
	require.NotNil(t, f)
	assert.Equal(t, defaultConfigPath, f.DefValue)

	f = cmd.Flags().Lookup("wipedb")
	require.NotNil(t, f)
	assert.Equal(t, "false", f.DefValue)
}

func TestRootCmd_MissingExplicitConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.env")})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestOpenStore_SQLiteWipe(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{DatabaseDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "bot.db")}

	store, closeStore, err := openStore(ctx, cfg, false, zerolog.Nop())
	require.NoError(t, err)
	_, err = store.GetOrCreateUser(ctx, "alice")
	require.NoError(t, err)
	_, err = store.SetUserTimezone(ctx, "alice", "US/Pacific", 0)
	require.NoError(t, err)
	closeStore()

	store, closeStore, err = openStore(ctx, cfg, true, zerolog.Nop())
	require.NoError(t, err)
	defer closeStore()
	user, err := store.GetOrCreateUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, user.Timezone(), "wiped")
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, _, err := openStore(context.Background(), &config.Config{DatabaseDriver: "mysql"}, false, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewParser(t *testing.T) {
	p := newParser(&config.Config{DateParser: config.ParserDateparser}, zerolog.Nop())
	assert.IsType(t, &temporal.DateParser{}, p)

	p = newParser(&config.Config{DateParser: config.ParserOpenAI, AIAPIKey: "k", AIBaseURL: "http://localhost", AIModel: "m"}, zerolog.Nop())
	assert.IsType(t, &ai.DateParser{}, p)
}

func TestNewLocker_Default(t *testing.T) {
	l, closeLocker, err := newLocker(context.Background(), &config.Config{}, zerolog.Nop())
	require.NoError(t, err)
	defer closeLocker()
	assert.IsType(t, &lock.KeyedMutex{}, l)
}
