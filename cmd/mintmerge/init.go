package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/mintmerge/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/mintmerge.yaml
var configTemplate embed.FS

// templatePath is the embedded configuration template.
const templatePath = "templates/mintmerge.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new mintmerge configuration file",
		Long: `Initialize creates a new .mintmerge configuration file in the current directory.

The generated file includes:
- The default output, backup and base directories
- Fragment file names and excluded directories
- Documentation for all available options

Examples:
  # Create .mintmerge in current directory
  mintmerge init

  # Create config file at a specific path
  mintmerge init -o docs/.mintmerge

  # Force overwrite existing file
  mintmerge init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure settings such as:")
	fmt.Fprintln(out, "  - Output and backup locations")
	fmt.Fprintln(out, "  - Directories excluded from fragment discovery")
	fmt.Fprintln(out, "  - Build history recording")

	return nil
}
