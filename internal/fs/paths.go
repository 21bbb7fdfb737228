package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fedragon/go-vscrub/internal/models"

	"github.com/mitchellh/go-homedir"
)

const (
	Darwin  = "darwin"
	Linux   = "linux"
	Windows = "windows"
)

var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Platform captures the parts of the host environment that decide where
// editors keep their settings stores.
type Platform struct {
	OS      string
	HomeDir string
	// AppData is the value of %APPDATA%, only consulted on Windows.
	AppData string
}

func PlatformFromEnv() (Platform, error) {
	home, err := homedir.Dir()
	if err != nil {
		return Platform{}, fmt.Errorf("unable to determine home directory: %w", err)
	}

	return Platform{
		OS:      runtime.GOOS,
		HomeDir: home,
		AppData: os.Getenv("APPDATA"),
	}, nil
}

type editor struct {
	dir   string
	label string
}

var editors = []editor{
	{dir: "Cursor", label: "Cursor"},
	{dir: "Code", label: "VS Code"},
	{dir: "Void", label: "Void"},
}

var storeSuffix = filepath.Join("User", "globalStorage", "state.vscdb")

func baseDir(p Platform) (string, error) {
	switch p.OS {
	case Darwin:
		if p.HomeDir == "" {
			return "", nil
		}
		return filepath.Join(p.HomeDir, "Library", "Application Support"), nil
	case Windows:
		return p.AppData, nil
	case Linux:
		if p.HomeDir == "" {
			return "", nil
		}
		return filepath.Join(p.HomeDir, ".config"), nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, p.OS)
}

// Candidates returns every store location known for the platform, in a fixed
// order. When apps is not empty only the matching editors are returned.
func Candidates(p Platform, apps ...string) ([]models.StoreLocation, error) {
	base, err := baseDir(p)
	if err != nil {
		return nil, err
	}
	if base == "" {
		return nil, nil
	}

	var locations []models.StoreLocation
	for _, e := range editors {
		if !selected(e, apps) {
			continue
		}

		locations = append(locations, models.StoreLocation{
			Path: filepath.Join(base, e.dir, storeSuffix),
			App:  e.label,
		})
	}

	return locations, nil
}

// Resolve returns the candidates that exist on disk as regular files.
func Resolve(p Platform, apps ...string) ([]models.StoreLocation, error) {
	candidates, err := Candidates(p, apps...)
	if err != nil {
		return nil, err
	}

	return Existing(candidates), nil
}

func Existing(candidates []models.StoreLocation) []models.StoreLocation {
	existing := make([]models.StoreLocation, 0, len(candidates))
	for _, c := range candidates {
		if info, err := os.Stat(c.Path); err == nil && info.Mode().IsRegular() {
			existing = append(existing, c)
		}
	}

	return existing
}

// KnownApps lists the editor labels, in resolution order.
func KnownApps() []string {
	labels := make([]string, 0, len(editors))
	for _, e := range editors {
		labels = append(labels, e.label)
	}

	return labels
}

func selected(e editor, apps []string) bool {
	if len(apps) == 0 {
		return true
	}

	for _, a := range apps {
		a = strings.TrimSpace(a)
		if strings.EqualFold(a, e.dir) || strings.EqualFold(a, e.label) {
			return true
		}
	}

	return false
}
