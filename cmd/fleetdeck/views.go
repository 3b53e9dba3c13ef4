package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HerbHall/fleetdeck/internal/views"
	"github.com/HerbHall/fleetdeck/pkg/models"
)

type viewsListOptions struct {
	kind   string
	groups []string
}

func newViewsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "List dashboard views and select the current one",
	}
	cmd.AddCommand(newViewsListCmd(flags))
	cmd.AddCommand(newViewsShowCmd(flags))
	cmd.AddCommand(newViewsUseCmd(flags))
	return cmd
}

func newViewsListCmd(flags *rootFlags) *cobra.Command {
	opts := &viewsListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List views; the current one is marked with *",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openCLI(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			var list []models.View
			switch opts.kind {
			case "", "all":
				list = a.views.Views()
				if len(opts.groups) > 0 {
					list = a.views.ViewsForGroups(opts.groups...)
				}
			case "default":
				list = a.views.ListDefaultViews()
			case "user":
				list = a.views.ListUserViews()
			default:
				return fmt.Errorf("unknown kind %q: must be all, default, or user", opts.kind)
			}
			if opts.kind != "" && opts.kind != "all" && len(opts.groups) > 0 {
				list = views.FilterVisible(list, opts.groups...)
			}

			current := a.views.CurrentViewID()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\tID\tNAME\tKIND\tSECTIONS\tGROUPS")
			for _, v := range list {
				mark, kind := "", "user"
				if v.ID == current {
					mark = "*"
				}
				if v.IsDefault {
					kind = "default"
				}
				groups := strings.Join(v.UserGroups, ",")
				if groups == "" {
					groups = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", mark, v.ID, v.Name, kind, len(views.VisibleSections(v)), groups)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&opts.kind, "kind", "all", "Which views to list: all, default, or user")
	cmd.Flags().StringSliceVar(&opts.groups, "group", nil, "Only views visible to these groups")

	return cmd
}

func newViewsShowCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a view's visible sections in display order (default: current view)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openCLI(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			var v models.View
			if len(args) == 0 {
				v, err = a.views.CurrentView()
			} else {
				v, err = a.views.View(args[0])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", v.Name, v.ID)
			if v.Description != "" {
				fmt.Fprintf(out, "  %s\n", v.Description)
			}
			for _, s := range views.VisibleSections(v) {
				fmt.Fprintf(out, "  %d. %s [%s]\n", s.Order, s.Name, s.Type)
			}
			return nil
		},
	}
}

func newViewsUseCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Select and persist the current view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openCLI(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.views.SetCurrentView(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "current view is now %s\n", args[0])
			return nil
		},
	}
}
