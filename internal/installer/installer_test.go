package installer

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/buddy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "http://127.0.0.1:5055/receive_text"

func newTestInstaller(t *testing.T) (*Installer, string) {
	t.Helper()
	root := t.TempDir()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	inst := New(filepath.Join(root, "ext"), testURL,
		WithStateFile(filepath.Join(root, "buddy-state.json")),
		WithClock(func() time.Time { return fixed }),
	)
	return inst, root
}

func TestInstall_WritesExtension(t *testing.T) {
	inst, _ := newTestInstaller(t)

	state, err := inst.Install()
	require.NoError(t, err)
	assert.True(t, state.ExtensionInstalled)
	assert.NotEmpty(t, state.InstallID)
	assert.Len(t, inst.Created(), 3)

	manifestRaw, err := os.ReadFile(filepath.Join(inst.Dir(), ManifestFile))
	require.NoError(t, err)
	var manifest struct {
		ManifestVersion int      `json:"manifest_version"`
		Name            string   `json:"name"`
		HostPermissions []string `json:"host_permissions"`
	}
	require.NoError(t, json.Unmarshal(manifestRaw, &manifest))
	assert.Equal(t, 3, manifest.ManifestVersion)
	assert.Equal(t, Name, manifest.Name)
	assert.Equal(t, []string{"http://127.0.0.1/*"}, manifest.HostPermissions)

	background, err := os.ReadFile(filepath.Join(inst.Dir(), BackgroundFile))
	require.NoError(t, err)
	assert.Contains(t, string(background), testURL)
	for _, a := range domain.Actions() {
		if a.Wire() == "" {
			continue
		}
		assert.Contains(t, string(background), `id: "`+a.Wire()+`"`)
	}

	icon, err := os.ReadFile(filepath.Join(inst.Dir(), IconFile))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(icon))
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
}

func TestInstall_StateFile(t *testing.T) {
	inst, root := newTestInstaller(t)

	first, err := inst.Install()
	require.NoError(t, err)

	loaded, err := LoadState(filepath.Join(root, "buddy-state.json"))
	require.NoError(t, err)
	assert.Equal(t, first, loaded)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), loaded.InstalledAt)

	second, err := inst.Install()
	require.NoError(t, err)
	assert.Equal(t, first.InstallID, second.InstallID, "reinstall keeps the install id")
	assert.Len(t, inst.Created(), 3, "rewritten files are tracked once")
}

func TestInstall_WithoutStateFile(t *testing.T) {
	inst := New(filepath.Join(t.TempDir(), "ext"), testURL)
	state, err := inst.Install()
	require.NoError(t, err)
	assert.True(t, state.ExtensionInstalled)
}

func TestInstall_InvalidURL(t *testing.T) {
	inst := New(t.TempDir(), "not a url")
	_, err := inst.Install()
	assert.Error(t, err)
	assert.Empty(t, inst.Created())
}

func TestCleanup(t *testing.T) {
	inst, root := newTestInstaller(t)
	_, err := inst.Install()
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(inst.Dir(), IconFile)), "already gone is fine")
	require.NoError(t, inst.Cleanup())

	assert.NoDirExists(t, inst.Dir())
	assert.FileExists(t, filepath.Join(root, "buddy-state.json"))
	assert.Empty(t, inst.Created())
	assert.NoError(t, inst.Cleanup(), "second cleanup is a no-op")
}

func TestCleanup_KeepsForeignFiles(t *testing.T) {
	inst, _ := newTestInstaller(t)
	_, err := inst.Install()
	require.NoError(t, err)

	foreign := filepath.Join(inst.Dir(), "notes.txt")
	require.NoError(t, os.WriteFile(foreign, []byte("mine"), 0o644))

	require.NoError(t, inst.Cleanup())
	assert.FileExists(t, foreign)
	assert.NoFileExists(t, filepath.Join(inst.Dir(), ManifestFile))
}

func TestInstructions(t *testing.T) {
	inst, _ := newTestInstaller(t)
	md := inst.Instructions()
	assert.Contains(t, md, "chrome://extensions/")
	assert.Contains(t, md, "Load unpacked")
	assert.Contains(t, md, testURL)
}
