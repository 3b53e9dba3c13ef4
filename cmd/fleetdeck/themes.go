package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HerbHall/fleetdeck/internal/services"
	"github.com/HerbHall/fleetdeck/internal/theme"
	"github.com/HerbHall/fleetdeck/pkg/models"
)

func newThemesCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List, preview, and select color themes",
	}
	cmd.AddCommand(newThemesListCmd(flags))
	cmd.AddCommand(newThemesPreviewCmd(flags))
	cmd.AddCommand(newThemesUseCmd(flags))
	return cmd
}

func newThemesListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available themes; the active one is marked with *",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openCLI(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			active := a.themes.CurrentThemeID()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\tID\tNAME\tPRIMARY")
			for _, t := range a.themes.Themes() {
				mark := ""
				if t.ID == active {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark, t.ID, t.Name, t.Palette[models.RolePrimary])
			}
			return tw.Flush()
		},
	}
}

// newThemesPreviewCmd renders a theme's palette in the terminal without
// touching the persisted selection.
func newThemesPreviewCmd(flags *rootFlags) *cobra.Command {
	var withCSS bool

	cmd := &cobra.Command{
		Use:   "preview <id>",
		Short: "Render a theme's palette as terminal swatches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(flags.configPath)
			if err != nil {
				return err
			}
			logger, err := cliLogger()
			if err != nil {
				return err
			}

			catalog := theme.NewCatalog()
			if cfg.Themes.File != "" {
				if _, err := catalog.LoadFile(cfg.Themes.File, logger); err != nil {
					return fmt.Errorf("load themes file: %w", err)
				}
			}

			term := theme.NewTerminalSink()
			css := theme.NewCSSSink()
			scratch := services.NewKeyValue(services.NewMemorySettingsRepository())
			s := theme.NewStore(scratch, theme.MultiSink{term, css}, catalog, nil, zap.NewNop())
			if err := s.Initialize(cmd.Context()); err != nil {
				return err
			}
			applied, err := s.SetTheme(cmd.Context(), models.ThemeID(args[0]))
			if err != nil {
				return err
			}
			if string(applied) != args[0] {
				fmt.Fprintf(cmd.ErrOrStderr(), "unknown theme %q, showing %q\n", args[0], applied)
			}
			fmt.Fprint(cmd.OutOrStdout(), term.Render())
			if withCSS {
				fmt.Fprintln(cmd.OutOrStdout())
				if _, err := css.WriteTo(cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withCSS, "css", false, "Also print the stylesheet the dashboard would load")
	return cmd
}

func newThemesUseCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Select and persist the active theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openCLI(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			applied, err := a.themes.SetTheme(cmd.Context(), models.ThemeID(args[0]))
			if err != nil {
				return err
			}
			if string(applied) != args[0] {
				fmt.Fprintf(cmd.OutOrStdout(), "unknown theme %q, active theme is now %s\n", args[0], applied)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active theme is now %s\n", applied)
			return nil
		},
	}
}
