// Package project loads the eiko.toml project manifest and checks a
// package's declared engine-version constraint against this build,
// grounded on the original compiler's eikobot/core/project.py.
package project

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/semver"
)

// Settings mirrors ProjectSettings: every field an eiko.toml [eiko.project]
// table may set (spec §6 "external interfaces").
type Settings struct {
	Exists bool `toml:"-"`

	EntryPoint      string   `toml:"entry_point"`
	EikobotVersion  string   `toml:"eikobot_version"`
	EikobotRequires []string `toml:"eikobot_requires"`
	PythonRequires  []string `toml:"python_requires"`
	DryRun          bool     `toml:"dry_run"`
	SSHTimeout      int      `toml:"ssh_timeout"`
}

type tomlFile struct {
	Eiko struct {
		Project *Settings `toml:"project"`
	} `toml:"eiko"`
}

func defaults() Settings {
	return Settings{SSHTimeout: 3}
}

// Read loads eiko.toml from the current directory. A missing file is
// not an error - it returns the defaults (ssh_timeout 3), matching
// read_project's "return ProjectSettings()" fallback.
func Read() (Settings, error) {
	return ReadFile("eiko.toml")
}

// ReadFile loads a project manifest from an explicit path.
func ReadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file tomlFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return Settings{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if file.Eiko.Project == nil {
		return defaults(), nil
	}

	settings := *file.Eiko.Project
	if settings.SSHTimeout == 0 {
		settings.SSHTimeout = 3
	}
	settings.Exists = true
	return settings, nil
}

// VersionMatch checks engineVersion (this build's own version, in
// semver form) against a comma-separated constraint list such as
// ">=0.3.0,<1.0.0" (spec §6). An empty constraint always matches.
func VersionMatch(constraint, engineVersion string) (bool, error) {
	if constraint == "" {
		return true, nil
	}
	v := normalize(engineVersion)

	for _, req := range strings.Split(constraint, ",") {
		req = strings.TrimSpace(req)
		ok, err := matchOne(req, v)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchOne(req, v string) (bool, error) {
	ops := []struct {
		prefix string
		cmp    func(c int) bool
	}{
		{">=", func(c int) bool { return c >= 0 }},
		{"<=", func(c int) bool { return c <= 0 }},
		{"==", func(c int) bool { return c == 0 }},
		{"!=", func(c int) bool { return c != 0 }},
		{">", func(c int) bool { return c > 0 }},
		{"<", func(c int) bool { return c < 0 }},
	}
	for _, op := range ops {
		if strings.HasPrefix(req, op.prefix) {
			other := normalize(strings.TrimPrefix(req, op.prefix))
			if !semver.IsValid(other) {
				return false, fmt.Errorf("failed to parse version constraint %q", req)
			}
			return op.cmp(semver.Compare(v, other)), nil
		}
	}
	return false, fmt.Errorf("failed to parse eikobot_version option %q", req)
}

func normalize(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
