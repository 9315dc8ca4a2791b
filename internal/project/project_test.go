package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kazaamjt/eikobot/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFileMissingReturnsDefaults(t *testing.T) {
	settings, err := project.ReadFile(filepath.Join(t.TempDir(), "nonexistent.toml"))
	require.NoError(t, err)
	assert.False(t, settings.Exists)
	assert.Equal(t, 3, settings.SSHTimeout)
}

func TestReadFileParsesProjectTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eiko.toml")
	content := `
[eiko.project]
entry_point = "main.eiko"
eikobot_version = ">=0.3.0"
ssh_timeout = 10
dry_run = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := project.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, settings.Exists)
	assert.Equal(t, "main.eiko", settings.EntryPoint)
	assert.Equal(t, ">=0.3.0", settings.EikobotVersion)
	assert.Equal(t, 10, settings.SSHTimeout)
	assert.True(t, settings.DryRun)
}

func TestReadFileDefaultsSSHTimeoutWhenUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eiko.toml")
	content := "[eiko.project]\nentry_point = \"main.eiko\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := project.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, settings.SSHTimeout)
}

func TestReadFileWithoutProjectTableReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eiko.toml")
	require.NoError(t, os.WriteFile(path, []byte("[other]\nkey = 1\n"), 0o644))

	settings, err := project.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, settings.Exists)
}

func TestReadFileMalformedTomlIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eiko.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid toml"), 0o644))

	_, err := project.ReadFile(path)
	assert.Error(t, err)
}

func TestVersionMatchEmptyConstraintAlwaysMatches(t *testing.T) {
	ok, err := project.VersionMatch("", "1.2.3")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVersionMatchSingleOperators(t *testing.T) {
	cases := []struct {
		constraint string
		version    string
		want       bool
	}{
		{">=0.3.0", "0.3.0", true},
		{">=0.3.0", "0.2.9", false},
		{"<1.0.0", "0.9.0", true},
		{"<1.0.0", "1.0.0", false},
		{"==0.3.0", "0.3.0", true},
		{"==0.3.0", "0.3.1", false},
		{"!=0.3.0", "0.3.1", true},
		{">0.3.0", "0.3.0", false},
		{"<=0.3.0", "0.3.0", true},
	}
	for _, c := range cases {
		ok, err := project.VersionMatch(c.constraint, c.version)
		require.NoError(t, err)
		assert.Equal(t, c.want, ok, "constraint %q against %q", c.constraint, c.version)
	}
}

func TestVersionMatchCombinedConstraints(t *testing.T) {
	ok, err := project.VersionMatch(">=0.3.0,<1.0.0", "0.5.0")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = project.VersionMatch(">=0.3.0,<1.0.0", "1.5.0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVersionMatchInvalidConstraintIsAnError(t *testing.T) {
	_, err := project.VersionMatch("~=0.3.0", "0.3.0")
	assert.Error(t, err)
}

func TestVersionMatchInvalidVersionOperandIsAnError(t *testing.T) {
	_, err := project.VersionMatch(">=not-a-version", "0.3.0")
	assert.Error(t, err)
}
