package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/quest"
	"github.com/jwebster45206/orchard-engine/pkg/save"
	"github.com/jwebster45206/orchard-engine/pkg/world"
)

func writeSnapshot(t *testing.T, name string, snap *save.Snapshot) string {
	t.Helper()
	codec, err := save.CodecFor(filepath.Ext(name))
	require.NoError(t, err)
	data, err := codec.Marshal(snap)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func playedSnapshot(t *testing.T) *save.Snapshot {
	t.Helper()
	w := world.New(world.Options{})
	w.NewGame()
	require.NoError(t, w.Tick(context.Background(), 6))
	return w.Export()
}

func TestValidateCatalogFile(t *testing.T) {
	data, err := json.Marshal(catalog.Default())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	v := &Validator{}
	assert.NoError(t, v.validateCatalogFile(path))
	assert.Empty(t, v.errors)
}

func TestValidateCatalogFile_Missing(t *testing.T) {
	v := &Validator{}
	assert.Error(t, v.validateCatalogFile(filepath.Join(t.TempDir(), "nope.json")))
}

func TestValidateSnapshotFile(t *testing.T) {
	for _, name := range []string{"save.json", "save.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := writeSnapshot(t, name, playedSnapshot(t))
			v := &Validator{}
			assert.NoError(t, v.validateSnapshotFile(path, ""))
			assert.Empty(t, v.errors)
		})
	}
}

func TestValidateSnapshotFile_UnknownRecords(t *testing.T) {
	snap := playedSnapshot(t)
	snap.Quest.Quests = append(snap.Quest.Quests, quest.Record{QuestID: "Z99", Active: true})
	snap.Tutorial.CurrentStep = "dance"
	path := writeSnapshot(t, "save.json", snap)

	v := &Validator{}
	err := v.validateSnapshotFile(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown quest "Z99"`)
	assert.Len(t, v.warnings, 1)
}

func TestValidateSnapshotFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.txt")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	v := &Validator{}
	assert.Error(t, v.validateSnapshotFile(path, ""))
}
