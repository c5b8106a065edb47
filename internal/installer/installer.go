// Package installer writes the unpacked browser extension that posts to the ingress,
// records that it was installed and removes the generated files on shutdown.
package installer

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/aretw0/buddy/internal/logging"
	"github.com/aretw0/buddy/pkg/domain"
	"github.com/google/uuid"
)

// Name is the extension and context menu title.
const Name = "BASECAMP BUDDY"

// ExtensionVersion is written to manifest.json.
const ExtensionVersion = "1.0"

// Generated file names inside the extension directory.
const (
	ManifestFile   = "manifest.json"
	BackgroundFile = "background.js"
	IconFile       = "icon.png"
)

//go:embed assets
var assets embed.FS

var templates = template.Must(template.ParseFS(assets, "assets/*.tmpl"))

type menuItem struct {
	ID    string
	Title string
}

// Selection actions read the highlighted text; page actions read the whole document.
var (
	selectionMenu = []menuItem{
		{ID: domain.WireSendPlainText, Title: "Send Plain Text"},
		{ID: domain.WireTranslateToMandarin, Title: "Translate to Mandarin"},
		{ID: domain.WireSummarizeSelection, Title: "Provide Discussion Summary"},
	}
	pageMenu = []menuItem{
		{ID: domain.WireSummarizePage, Title: "Summarize Page"},
		{ID: domain.WireShowAllLinks, Title: "Show All Links"},
	}
)

// State is persisted next to the extension so later runs know it was installed.
type State struct {
	ExtensionInstalled bool      `json:"extension_installed"`
	InstallID          string    `json:"install_id"`
	InstalledAt        time.Time `json:"installed_at"`
}

// Installer generates the extension files. It is safe for concurrent use.
type Installer struct {
	dir        string
	ingressURL string
	stateFile  string
	logger     *slog.Logger
	clock      func() time.Time

	mu      sync.Mutex
	created []string
}

// Option configures the Installer.
type Option func(*Installer)

// WithStateFile sets where the install State is written. Empty disables it.
func WithStateFile(path string) Option {
	return func(i *Installer) {
		i.stateFile = path
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Installer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithClock overrides time.Now for the install timestamp.
func WithClock(clock func() time.Time) Option {
	return func(i *Installer) {
		if clock != nil {
			i.clock = clock
		}
	}
}

// New creates an Installer writing into dir, pointing the extension at ingressURL.
func New(dir, ingressURL string, opts ...Option) *Installer {
	i := &Installer{
		dir:        dir,
		ingressURL: ingressURL,
		logger:     logging.NewNop(),
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Dir returns the extension directory.
func (i *Installer) Dir() string {
	return i.dir
}

// Install writes the extension files and the state file.
// An existing install id is kept so repeated installs identify the same browser profile.
func (i *Installer) Install() (State, error) {
	hostPermission, err := hostPermission(i.ingressURL)
	if err != nil {
		return State{}, err
	}
	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return State{}, fmt.Errorf("installer: create %s: %w", i.dir, err)
	}

	data := map[string]any{
		"Name":           Name,
		"Version":        ExtensionVersion,
		"HostPermission": hostPermission,
		"IngressURL":     i.ingressURL,
		"Selection":      selectionMenu,
		"Page":           pageMenu,
	}
	for name, tmpl := range map[string]string{
		ManifestFile:   "manifest.json.tmpl",
		BackgroundFile: "background.js.tmpl",
	} {
		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, tmpl, data); err != nil {
			return State{}, fmt.Errorf("installer: render %s: %w", name, err)
		}
		if err := i.writeFile(name, buf.Bytes()); err != nil {
			return State{}, err
		}
	}

	icon, err := assets.ReadFile("assets/" + IconFile)
	if err != nil {
		return State{}, fmt.Errorf("installer: read icon: %w", err)
	}
	if err := i.writeFile(IconFile, icon); err != nil {
		return State{}, err
	}
	i.logger.Info("Extension files created", "dir", i.dir)

	state := State{
		ExtensionInstalled: true,
		InstallID:          uuid.NewString(),
		InstalledAt:        i.clock().UTC(),
	}
	if i.stateFile == "" {
		return state, nil
	}
	if prev, err := LoadState(i.stateFile); err == nil && prev.InstallID != "" {
		state.InstallID = prev.InstallID
	}
	if err := saveState(i.stateFile, state); err != nil {
		return State{}, err
	}
	i.logger.Debug("Install state written", "path", i.stateFile, "install_id", state.InstallID)
	return state, nil
}

func (i *Installer) writeFile(name string, content []byte) error {
	path := filepath.Join(i.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("installer: write %s: %w", path, err)
	}
	i.mu.Lock()
	if !slices.Contains(i.created, path) {
		i.created = append(i.created, path)
	}
	i.mu.Unlock()
	i.logger.Debug("File written", "path", path)
	return nil
}

// Created returns the files written by Install that have not been cleaned up.
func (i *Installer) Created() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return slices.Clone(i.created)
}

// Cleanup removes every file Install created, then the directory if it is left empty.
// Files already gone are not an error; the state file is kept.
func (i *Installer) Cleanup() error {
	i.mu.Lock()
	created := i.created
	i.created = nil
	i.mu.Unlock()

	var errs []error
	for _, path := range created {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			i.logger.Error("Error deleting generated file", "path", path, "error", err)
			errs = append(errs, err)
			continue
		}
		i.logger.Debug("Deleted", "path", path)
	}
	if len(created) > 0 {
		if entries, err := os.ReadDir(i.dir); err == nil && len(entries) == 0 {
			_ = os.Remove(i.dir)
		}
	}
	return errors.Join(errs...)
}

// Instructions returns the markdown shown after installing.
func (i *Installer) Instructions() string {
	abs, err := filepath.Abs(i.dir)
	if err != nil {
		abs = i.dir
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s extension\n\n", Name)
	fmt.Fprintf(&b, "Extension files created in `%s`.\n\n", abs)
	b.WriteString("## Load it in Chrome\n\n")
	b.WriteString("1. Open Google Chrome\n")
	b.WriteString("2. Go to `chrome://extensions/`\n")
	b.WriteString("3. Enable **Developer mode** in the top right corner\n")
	fmt.Fprintf(&b, "4. Click **Load unpacked** and select `%s`\n\n", abs)
	fmt.Fprintf(&b, "The extension posts to `%s`.\n", i.ingressURL)
	return b.String()
}

// LoadState reads a state file written by Install.
func LoadState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("installer: parse %s: %w", path, err)
	}
	return s, nil
}

func saveState(path string, s State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("installer: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("installer: write state: %w", err)
	}
	return nil
}

func hostPermission(ingressURL string) (string, error) {
	u, err := url.Parse(ingressURL)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return "", fmt.Errorf("installer: invalid ingress url %q", ingressURL)
	}
	return u.Scheme + "://" + u.Hostname() + "/*", nil
}
