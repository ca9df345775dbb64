package main

import (
	"fmt"

	"github.com/spf13/cobra"

	relinterr "relint/internal/errors"
	"relint/internal/runner"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the configured toolchain is resolvable",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	exec := runner.NewRealRunner(0)
	ok := true
	for _, tool := range []struct {
		role string
		path string
	}{
		{"compiler", cfg.Compiler.Path},
		{"linter", cfg.Linter.Path},
	} {
		resolved, err := exec.LookPath(tool.path)
		if err != nil {
			ok = false
			fmt.Printf("✗ %s %q not found\n", tool.role, tool.path)
			continue
		}
		fmt.Printf("✓ %s %q -> %s\n", tool.role, tool.path, resolved)
	}

	if !ok {
		for _, fix := range relinterr.GetSuggestedFixes(relinterr.ToolchainMissing) {
			if fix.Command != "" {
				fmt.Printf("  suggestion: %s (%s)\n", fix.Command, fix.Description)
			} else {
				fmt.Printf("  suggestion: %s\n", fix.Description)
			}
		}
		return relinterr.New(relinterr.ToolchainMissing, "toolchain incomplete")
	}
	return nil
}
