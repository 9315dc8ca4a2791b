package pkgmgr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPkgNameVersion(t *testing.T) {
	assert.Equal(t, "acme", PackageData{Name: "acme"}.PkgNameVersion())
	assert.Equal(t, "acme-1.2.3", PackageData{Name: "acme", Version: "1.2.3"}.PkgNameVersion())
}

func TestReadPackageTomlValid(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "eiko.toml")
	writeFile(t, tomlPath, `
[eiko.package]
name = "acme"
source_dir = "src"
version = "1.0.0"
requires = ["other"]
`)

	pkg, err := ReadPackageToml(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, "acme", pkg.Name)
	assert.Equal(t, "src", pkg.SourceDir)
	assert.Equal(t, []string{"other"}, pkg.Requires)
}

func TestReadPackageTomlMissingRequiredFieldFailsSchema(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "eiko.toml")
	// name is required by the schema and missing here.
	writeFile(t, tomlPath, `
[eiko.package]
source_dir = "src"
`)

	_, err := ReadPackageToml(tomlPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not contain a valid 'eiko.package' section")
}

func TestReadPackageTomlMissingSectionIsAnError(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "eiko.toml")
	writeFile(t, tomlPath, "[other]\nkey = 1\n")

	_, err := ReadPackageToml(tomlPath)
	require.Error(t, err)
}

func TestBuildPackageProducesArchive(t *testing.T) {
	projectDir := t.TempDir()
	writeFile(t, filepath.Join(projectDir, "eiko.toml"), `
[eiko.package]
name = "acme"
source_dir = "src"
version = "1.0.0"
`)
	writeFile(t, filepath.Join(projectDir, "src", "main.eiko"), "x = 1\n")

	archivePath, err := BuildPackage(projectDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(projectDir, "dist", "acme-1.0.0.eiko.tar.gz"), archivePath)

	info, err := os.Stat(archivePath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestBuildPackageMissingSourceDirIsAnError(t *testing.T) {
	projectDir := t.TempDir()
	writeFile(t, filepath.Join(projectDir, "eiko.toml"), `
[eiko.package]
name = "acme"
source_dir = "missing"
`)

	_, err := BuildPackage(projectDir)
	assert.Error(t, err)
}

func TestInstallFromPathAndUninstallRoundTrip(t *testing.T) {
	projectDir := t.TempDir()
	writeFile(t, filepath.Join(projectDir, "eiko.toml"), `
[eiko.package]
name = "acme"
source_dir = "src"
version = "1.0.0"
`)
	writeFile(t, filepath.Join(projectDir, "src", "main.eiko"), "x = 1\n")

	archivePath, err := BuildPackage(projectDir)
	require.NoError(t, err)

	root := t.TempDir()
	libRoot := filepath.Join(root, "lib")
	cachePath := filepath.Join(root, "cache")
	require.NoError(t, os.MkdirAll(libRoot, 0o755))
	reg := NewRegistry(libRoot, cachePath)

	require.NoError(t, reg.Install(archivePath, ""))

	installed, err := reg.Installed()
	require.NoError(t, err)
	pkg, ok := installed["acme"]
	require.True(t, ok)
	assert.Equal(t, "1.0.0", pkg.Version)

	// the package's source dir should be symlinked alongside the lib root.
	linkTarget, err := os.Readlink(filepath.Join(libRoot, "..", "src"))
	require.NoError(t, err)
	assert.Contains(t, linkTarget, "acme-1.0.0")

	require.NoError(t, reg.Uninstall("acme"))
	installed, err = reg.Installed()
	require.NoError(t, err)
	_, ok = installed["acme"]
	assert.False(t, ok)
}

func TestInstalledOnMissingLibRootReturnsEmpty(t *testing.T) {
	reg := NewRegistry(filepath.Join(t.TempDir(), "nope"), t.TempDir())
	installed, err := reg.Installed()
	require.NoError(t, err)
	assert.Empty(t, installed)
}

func TestInstallUnrecognizedSourceIsAnError(t *testing.T) {
	reg := NewRegistry(t.TempDir(), t.TempDir())
	err := reg.Install("not-a-real-source", "")
	assert.Error(t, err)
}
