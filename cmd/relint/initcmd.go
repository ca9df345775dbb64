package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"relint/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config and project manifest into the workspace",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
	rootCmd.AddCommand(initCmd)
}

const sampleManifest = `# Projects resolved for relint. Globs are relative to this file's directory.
projects:
  - name: app
    files: ["../src/*.cpp"]
`

func runInit(cmd *cobra.Command, args []string) error {
	confDir := filepath.Join(workspaceFlag, config.ConfigDirName)
	confPath := filepath.Join(confDir, "config.yaml")
	manifestPath := filepath.Join(confDir, "projects.yaml")

	for _, path := range []string{confPath, manifestPath} {
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := config.Default().Write(confPath); err != nil {
		return err
	}
	if err := os.WriteFile(manifestPath, []byte(sampleManifest), 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	fmt.Printf("wrote %s\nwrote %s\n", confPath, manifestPath)
	return nil
}
