// Package pkgmgr implements Eikobot's package archive format and the
// install/uninstall/build operations around it, grounded on the
// original compiler's eikobot/core/package_manager/__init__.py: a
// package is a gzipped tar of a source directory plus its eiko.toml,
// named "<name>[-<version>].eiko.tar.gz" (spec §6 "package
// distribution").
package pkgmgr

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// PackageData is the parsed [eiko.package] table of a package's
// eiko.toml (spec §6, grounded on PackageData).
type PackageData struct {
	Name        string   `toml:"name" json:"name"`
	SourceDir   string   `toml:"source_dir" json:"source_dir"`
	Version     string   `toml:"version" json:"version"`
	Description string   `toml:"description" json:"description"`
	Author      string   `toml:"author" json:"author"`
	AuthorEmail string   `toml:"author_email" json:"author_email"`
	License     string   `toml:"license" json:"license"`
	Requires    []string `toml:"requires" json:"requires"`
}

// PkgNameVersion returns the directory/archive name a package installs
// or builds under: "<name>-<version>" if versioned, else just "<name>".
func (p PackageData) PkgNameVersion() string {
	if p.Version == "" {
		return p.Name
	}
	return p.Name + "-" + p.Version
}

type pkgTomlFile struct {
	Eiko struct {
		Package *PackageData `toml:"package"`
	} `toml:"eiko"`
}

// ReadPackageToml parses and schema-validates an eiko.toml package
// manifest (spec §6 "eiko.toml [eiko.package] validation").
func ReadPackageToml(path string) (PackageData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PackageData{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return PackageData{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := validatePackageSection(raw); err != nil {
		return PackageData{}, fmt.Errorf("%s does not contain a valid 'eiko.package' section: %w", path, err)
	}

	var file pkgTomlFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return PackageData{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if file.Eiko.Package == nil {
		return PackageData{}, fmt.Errorf("%s does not contain an 'eiko.package' section", path)
	}
	return *file.Eiko.Package, nil
}

// BuildPackage archives source_dir plus eiko.toml into
// dist/<name>[-<version>].eiko.tar.gz, mirroring build_pkg's layout.
func BuildPackage(projectDir string) (string, error) {
	tomlPath := filepath.Join(projectDir, "eiko.toml")
	pkg, err := ReadPackageToml(tomlPath)
	if err != nil {
		return "", err
	}

	sourceDir := filepath.Join(projectDir, pkg.SourceDir)
	info, err := os.Stat(sourceDir)
	if err != nil {
		return "", fmt.Errorf("no such source directory: %q", pkg.SourceDir)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%q is not a directory", pkg.SourceDir)
	}

	distDir := filepath.Join(projectDir, "dist")
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return "", err
	}

	distName := pkg.PkgNameVersion()
	archivePath := filepath.Join(distDir, distName+".eiko.tar.gz")

	f, err := os.Create(archivePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	if err := addDirToTar(tw, sourceDir, filepath.Join(distName, pkg.SourceDir)); err != nil {
		return "", err
	}
	if err := addFileToTar(tw, tomlPath, filepath.Join(distName, "eiko.toml")); err != nil {
		return "", err
	}

	return archivePath, nil
}

func addDirToTar(tw *tar.Writer, dir, archiveBase string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Name() == "__pycache__" {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := filepath.Join(archiveBase, rel)
		if info.IsDir() {
			return nil
		}
		return addFileToTar(tw, path, name)
	})
}

func addFileToTar(tw *tar.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}

func rawToJSON(raw map[string]interface{}) ([]byte, error) {
	return json.Marshal(raw)
}
