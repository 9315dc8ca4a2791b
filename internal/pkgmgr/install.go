package pkgmgr

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// Registry tracks installed packages under libRoot (the internal
// library directory every compiled module searches, alongside the
// built-in std library), keyed by package name - the Go analogue of
// PKG_INDEX/_construct_pkg_index.
type Registry struct {
	LibRoot   string
	CachePath string
}

func NewRegistry(libRoot, cachePath string) *Registry {
	return &Registry{LibRoot: libRoot, CachePath: cachePath}
}

// Installed scans LibRoot for previously installed packages.
func (r *Registry) Installed() (map[string]PackageData, error) {
	entries, err := os.ReadDir(r.LibRoot)
	if os.IsNotExist(err) {
		return map[string]PackageData{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make(map[string]PackageData)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		tomlPath := filepath.Join(r.LibRoot, entry.Name(), "eiko.toml")
		if _, err := os.Stat(tomlPath); err != nil {
			continue
		}
		pkg, err := ReadPackageToml(tomlPath)
		if err != nil {
			continue
		}
		out[pkg.Name] = pkg
	}
	return out, nil
}

// Install resolves pkgDef - a local .eiko.tar.gz path, an http(s) URL, or
// a git+ssh URL - and installs it, mirroring install_pkg's dispatch.
func (r *Registry) Install(pkgDef string, sshKeyPath string) error {
	switch {
	case strings.HasPrefix(pkgDef, "http://"), strings.HasPrefix(pkgDef, "https://"):
		return r.installFromHTTP(pkgDef)
	case strings.HasPrefix(pkgDef, "git+ssh://"):
		return r.installFromGitSSH(pkgDef, sshKeyPath)
	case strings.HasSuffix(pkgDef, ".eiko.tar.gz"):
		return r.installFromPath(pkgDef)
	default:
		return fmt.Errorf("unrecognized package source %q", pkgDef)
	}
}

func (r *Registry) installFromPath(path string) error {
	if err := os.MkdirAll(r.CachePath, 0o755); err != nil {
		return err
	}
	dest := filepath.Join(r.CachePath, filepath.Base(path))
	if err := copyFile(path, dest); err != nil {
		return fmt.Errorf("failed to add archive to cache: %w", err)
	}
	return r.installFromCache(filepath.Base(path))
}

func (r *Registry) installFromHTTP(url string) error {
	if err := os.MkdirAll(r.CachePath, 0o755); err != nil {
		return err
	}
	archiveName := filepath.Base(url)
	dest := filepath.Join(r.CachePath, archiveName)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to fetch package %q: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch package %q: HTTP %d", url, resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	return r.installFromCache(archiveName)
}

// installFromGitSSH clones a git+ssh package source. The ssh key is
// validated with golang.org/x/crypto/ssh before delegating the actual
// clone to the system git binary, since a from-scratch git smart-http/
// ssh-transport client is out of scope here (see DESIGN.md).
func (r *Registry) installFromGitSSH(url, sshKeyPath string) error {
	repoURL := strings.TrimPrefix(url, "git+")

	if sshKeyPath != "" {
		keyData, err := os.ReadFile(sshKeyPath)
		if err != nil {
			return fmt.Errorf("failed to read ssh key %q: %w", sshKeyPath, err)
		}
		if _, err := ssh.ParsePrivateKey(keyData); err != nil {
			return fmt.Errorf("invalid ssh key %q: %w", sshKeyPath, err)
		}
	}

	cloneDir, err := os.MkdirTemp("", "eiko-pkg-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(cloneDir)

	cmd := exec.Command("git", "clone", "--depth", "1", repoURL, cloneDir)
	if sshKeyPath != "" {
		cmd.Env = append(os.Environ(), fmt.Sprintf("GIT_SSH_COMMAND=ssh -i %s -o IdentitiesOnly=yes", sshKeyPath))
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git clone failed: %w: %s", err, out)
	}

	tomlPath := filepath.Join(cloneDir, "eiko.toml")
	pkg, err := ReadPackageToml(tomlPath)
	if err != nil {
		return err
	}
	return r.installFromDir(cloneDir, pkg)
}

func (r *Registry) installFromCache(archiveName string) error {
	pkgName := strings.TrimSuffix(archiveName, ".eiko.tar.gz")
	archivePath := filepath.Join(r.CachePath, archiveName)

	if err := extractTarGz(archivePath, r.LibRoot); err != nil {
		return fmt.Errorf("failed to unpack archive: %w", err)
	}

	pkgLibPath := filepath.Join(r.LibRoot, pkgName)
	tomlPath := filepath.Join(pkgLibPath, "eiko.toml")
	pkg, err := ReadPackageToml(tomlPath)
	if err != nil {
		return err
	}
	return r.finishInstall(pkgLibPath, pkg)
}

func (r *Registry) installFromDir(srcDir string, pkg PackageData) error {
	destDir := filepath.Join(r.LibRoot, pkg.PkgNameVersion())
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	if err := copyDir(srcDir, destDir); err != nil {
		return err
	}
	return r.finishInstall(destDir, pkg)
}

func (r *Registry) finishInstall(pkgLibPath string, pkg PackageData) error {
	installed, err := r.Installed()
	if err != nil {
		return err
	}
	if prev, ok := installed[pkg.Name]; ok && filepath.Join(r.LibRoot, prev.PkgNameVersion()) != filepath.Clean(pkgLibPath) {
		if err := r.Uninstall(prev.Name); err != nil {
			return err
		}
	}

	for _, req := range pkg.Requires {
		if err := r.Install(req, ""); err != nil {
			return fmt.Errorf("failed to install requirement %q of %q: %w", req, pkg.Name, err)
		}
	}

	internalSourceDir := filepath.Join(r.LibRoot, "..", pkg.SourceDir)
	packageSourceDir := filepath.Join(pkgLibPath, pkg.SourceDir)
	if err := os.Symlink(packageSourceDir, internalSourceDir); err != nil && !os.IsExist(err) {
		return fmt.Errorf("failed to link package source: %w", err)
	}
	return nil
}

// Uninstall removes a previously installed package by name, mirroring
// uninstall_pkg/_uninstall_pkg.
func (r *Registry) Uninstall(name string) error {
	installed, err := r.Installed()
	if err != nil {
		return err
	}
	pkg, ok := installed[name]
	if !ok {
		return fmt.Errorf("package not installed: %q", name)
	}

	internalSourceDir := filepath.Join(r.LibRoot, "..", pkg.SourceDir)
	if err := os.Remove(internalSourceDir); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.RemoveAll(filepath.Join(r.LibRoot, pkg.PkgNameVersion()))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func extractTarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		target := filepath.Join(destDir, hdr.Name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.Create(target)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		}
	}
}
