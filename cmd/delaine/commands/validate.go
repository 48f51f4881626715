package commands

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/focusondelaine/website/internal/content"
	"github.com/focusondelaine/website/internal/render"
)

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate [directory]",
		Short: "Check the configuration and page copy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir(args)
			if err != nil {
				return err
			}
			return validate(cmd, dir, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file (default: <directory>/delaine.yaml)")
	return cmd
}

func validate(cmd *cobra.Command, dir, configPath string) error {
	out := cmd.OutOrStdout()
	ok := color.New(color.FgGreen).SprintFunc()

	cfg, configPath, err := loadConfig(dir, configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", configPath, err)
	}
	fmt.Fprintf(out, "%s config\n", ok("ok"))

	contentDir := cfg.Content.Dir
	if contentDir != "" && !filepath.IsAbs(contentDir) {
		contentDir = filepath.Join(dir, contentDir)
	}
	site, err := content.LoadDir(contentDir)
	if err != nil {
		return fmt.Errorf("content: %w", err)
	}
	fmt.Fprintf(out, "%s content (%d projects, %d pricing tiers)\n", ok("ok"),
		len(site.Portfolio.Projects), len(site.Pricing.Tiers))

	if _, err := render.New(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s templates\n", ok("ok"))
	return nil
}
