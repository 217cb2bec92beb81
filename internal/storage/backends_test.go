package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/orchard-engine/internal/config"
	"github.com/jwebster45206/orchard-engine/pkg/save"
	"github.com/jwebster45206/orchard-engine/pkg/world"
	"github.com/quasilyte/gdata/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// playedSnapshot returns the state of a game a few minutes into the
// tutorial, with the first quest accepted.
func playedSnapshot(t *testing.T) *save.Snapshot {
	t.Helper()
	ctx := context.Background()
	w := world.New(world.Options{Logger: testLogger()})
	w.NewGame()
	require.NoError(t, w.Tick(ctx, 5))
	require.NoError(t, w.Apply(ctx, world.Action{Kind: world.ActAccept, QuestID: "E1"}))
	require.NoError(t, w.Tick(ctx, 3))
	return w.Export()
}

// exerciseStorage runs the save/load/overwrite/delete contract every
// backend shares.
func exerciseStorage(t *testing.T, store Storage) {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.Ping(ctx))

	missing, err := store.LoadSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, missing)

	snap := playedSnapshot(t)
	require.NoError(t, store.SaveSnapshot(ctx, id, snap))
	loaded, err := store.LoadSnapshot(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, snap.Game.Level, loaded.Game.Level)
	assert.Equal(t, snap.Game.Coins, loaded.Game.Coins)
	assert.Equal(t, snap.Tutorial.CurrentStep, loaded.Tutorial.CurrentStep)
	assert.Len(t, loaded.Quest.Quests, len(snap.Quest.Quests))
	assert.Len(t, loaded.Quest.Queues, len(snap.Quest.Queues))

	snap.Game.Coins += 100
	require.NoError(t, store.SaveSnapshot(ctx, id, snap))
	loaded, err = store.LoadSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, snap.Game.Coins, loaded.Game.Coins, "saving overwrites the previous snapshot")

	require.NoError(t, store.DeleteSnapshot(ctx, id))
	loaded, err = store.LoadSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.NoError(t, store.DeleteSnapshot(ctx, id), "deleting a missing save is not an error")

	assert.Error(t, store.SaveSnapshot(ctx, id, nil))
}

func TestRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, codec := range []save.Codec{save.JSONCodec{}, save.YAMLCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			store, err := NewRedisStorage("redis://"+mr.Addr(), codec, 0, testLogger())
			require.NoError(t, err)
			defer store.Close()
			exerciseStorage(t, store)
		})
	}
}

func TestRedisStorage_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStorage(mr.Addr(), nil, time.Hour, testLogger())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, store.SaveSnapshot(ctx, id, playedSnapshot(t)))
	assert.True(t, mr.Exists("snapshot:"+id.String()))
	assert.Equal(t, time.Hour, mr.TTL("snapshot:"+id.String()))

	mr.FastForward(2 * time.Hour)
	loaded, err := store.LoadSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, loaded, "expired snapshots load as missing")
}

func TestRedisStorage_CorruptSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStorage(mr.Addr(), nil, 0, testLogger())
	require.NoError(t, err)
	defer store.Close()

	id := uuid.New()
	require.NoError(t, mr.Set("snapshot:"+id.String(), "{not json"))
	_, err = store.LoadSnapshot(context.Background(), id)
	assert.Error(t, err)
}

func TestRedisStorage_PingFailsWhenDown(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStorage(mr.Addr(), nil, 0, testLogger())
	require.NoError(t, err)
	defer store.Close()

	mr.Close()
	assert.Error(t, store.Ping(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, store.WaitForConnection(ctx))
}

func TestRedisOptions(t *testing.T) {
	opt, err := RedisOptions("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opt.Addr)

	opt, err = RedisOptions("redis://cache:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opt.Addr)
	assert.Equal(t, 2, opt.DB)

	_, err = RedisOptions("http://nope")
	assert.Error(t, err)
}

func TestFileStorage(t *testing.T) {
	for _, codec := range []save.Codec{save.JSONCodec{Indent: true}, save.YAMLCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			store, err := NewFileStorage(t.TempDir(), codec, testLogger())
			require.NoError(t, err)
			exerciseStorage(t, store)
		})
	}
}

func TestFileStorage_WritesNamedFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStorage(dir, save.YAMLCodec{}, testLogger())
	require.NoError(t, err)

	id := uuid.New()
	require.NoError(t, store.SaveSnapshot(context.Background(), id, playedSnapshot(t)))

	path := filepath.Join(dir, id.String()+".yaml")
	assert.Equal(t, path, store.Path(id))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tutorial:")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestFileStorage_PingMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "saves")
	store, err := NewFileStorage(dir, nil, testLogger())
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, store.Ping(context.Background()))
}

func TestGdataStorage(t *testing.T) {
	appName := fmt.Sprintf("orchard_storage_test_%d", time.Now().UnixNano())
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		t.Skip("Cannot create gdata manager for testing")
	}
	t.Cleanup(func() {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			os.RemoveAll(filepath.Join(homeDir, ".local", "share", appName))
		}
	})

	exerciseStorage(t, NewGdataStorageWithManager(manager, save.JSONCodec{}, testLogger()))
}

func TestMySQLStorage(t *testing.T) {
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set")
	}
	store, err := OpenMySQLStorage(context.Background(), dsn, save.JSONCodec{}, testLogger())
	require.NoError(t, err)
	defer store.Close()
	exerciseStorage(t, store)
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	t.Run("redis", func(t *testing.T) {
		store, err := Open(ctx, &config.Config{StorageBackend: config.BackendRedis, RedisURL: mr.Addr(), SaveFormat: "json"}, testLogger())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &RedisStorage{}, store)
		assert.NoError(t, store.Ping(ctx))
	})

	t.Run("file", func(t *testing.T) {
		store, err := Open(ctx, &config.Config{StorageBackend: config.BackendFile, DataDir: t.TempDir(), SaveFormat: "yaml"}, testLogger())
		require.NoError(t, err)
		assert.IsType(t, &FileStorage{}, store)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(ctx, &config.Config{StorageBackend: "floppy", SaveFormat: "json"}, testLogger())
		assert.Error(t, err)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := Open(ctx, &config.Config{StorageBackend: config.BackendFile, DataDir: t.TempDir(), SaveFormat: "xml"}, testLogger())
		assert.Error(t, err)
	})
}
