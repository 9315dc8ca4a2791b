package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kazaamjt/eikobot/internal/pkgmgr"
	"github.com/spf13/cobra"
)

// defaultRegistry builds the package registry over ./libs. compileModule
// searches the libs directory beside the entry-point file, so an install
// is importable when the entry point sits in the working directory.
func defaultRegistry() *pkgmgr.Registry {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	libRoot := filepath.Join(cwd, "libs")
	cachePath := filepath.Join(cwd, ".eikobot-cache")
	return pkgmgr.NewRegistry(libRoot, cachePath)
}

func newPackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Build, install or uninstall Eikobot packages",
	}
	cmd.AddCommand(newPackageBuildCmd(), newPackageInstallCmd(), newPackageUninstallCmd())
	return cmd
}

func newPackageBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build [project-dir]",
		Short: "Build an eiko.toml package into a distributable archive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			archivePath, err := pkgmgr.BuildPackage(dir)
			if err != nil {
				return err
			}
			fmt.Println(archivePath)
			return nil
		},
	}
}

func newPackageInstallCmd() *cobra.Command {
	var sshKeyPath string
	cmd := &cobra.Command{
		Use:   "install <source>",
		Short: "Install a package from a local archive, an http(s) URL, or a git+ssh URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return defaultRegistry().Install(args[0], sshKeyPath)
		},
	}
	cmd.Flags().StringVar(&sshKeyPath, "ssh-key", "", "Private key to use for git+ssh installs")
	return cmd
}

func newPackageUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Uninstall a previously installed package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return defaultRegistry().Uninstall(args[0])
		},
	}
}
