package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lichtwerk/internal/session"
)

func newTourCommand(ctx *commandContext) *cobra.Command {
	tourCmd := &cobra.Command{
		Use:   "tour",
		Short: "Edit the virtual tour graph of a job",
		Long: `Edit the virtual tour graph of a job. Panoramas are named by their
source asset's file name or by an ID prefix.`,
	}
	tourCmd.AddCommand(newTourShowCommand(ctx))
	tourCmd.AddCommand(newTourAddCommand(ctx))
	tourCmd.AddCommand(newTourRemoveCommand(ctx))
	tourCmd.AddCommand(newTourLinkCommand(ctx, true))
	tourCmd.AddCommand(newTourLinkCommand(ctx, false))
	tourCmd.AddCommand(newTourStartCommand(ctx))
	tourCmd.AddCommand(newTourFloorplanCommand(ctx))
	return tourCmd
}

func newTourShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show the tour graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openSession(cmd, args[0])
			if err != nil {
				return err
			}
			view := s.View()
			if ctx.jsonOutput() {
				return writeJSON(cmd, view.Tour)
			}
			out := cmd.OutOrStdout()
			if len(view.Tour.Panoramas) == 0 {
				fmt.Fprintln(out, "Tour is empty")
				return nil
			}
			fmt.Fprintln(out, tourTable(view))
			if fp := view.Tour.FloorplanAsset; fp != "" {
				for _, asset := range view.Assets {
					if asset.ID == fp {
						fp = asset.Name
						break
					}
				}
				fmt.Fprintf(out, "Floorplan: %s\n", fp)
			}
			for _, problem := range s.Annotator().TourProblems() {
				fmt.Fprintf(out, "! %s\n", problem)
			}
			return nil
		},
	}
}

func newTourAddCommand(ctx *commandContext) *cobra.Command {
	var category string
	var floor int

	cmd := &cobra.Command{
		Use:   "add <job-id> <asset>",
		Short: "Add a 360° asset as a panorama",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			_, err := ctx.withDraft(cmd, args[0], func(_ context.Context, s *session.Session) error {
				asset, err := resolveAsset(s.View().Assets, args[1])
				if err != nil {
					return err
				}
				p, err := s.Annotator().AddPanorama(asset.ID, category, floor)
				id = p.ID
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added panorama %s\n", shortID(id))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Panorama category, for example a room name")
	cmd.Flags().IntVar(&floor, "floor", 0, "Floor number")
	return cmd
}

func newTourRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <job-id> <panorama>",
		Short: "Remove a panorama and its connections",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.withDraft(cmd, args[0], func(_ context.Context, s *session.Session) error {
				view := s.View()
				id, err := resolvePanorama(view.Tour, view.Assets, args[1])
				if err != nil {
					return err
				}
				return s.Annotator().RemovePanorama(id)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Removed panorama")
			return nil
		},
	}
}

func newTourLinkCommand(ctx *commandContext, connect bool) *cobra.Command {
	use, short, done := "connect", "Connect two panoramas", "Connected"
	if !connect {
		use, short, done = "disconnect", "Remove the connection between two panoramas", "Disconnected"
	}
	return &cobra.Command{
		Use:   use + " <job-id> <panorama> <panorama>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.withDraft(cmd, args[0], func(_ context.Context, s *session.Session) error {
				view := s.View()
				from, err := resolvePanorama(view.Tour, view.Assets, args[1])
				if err != nil {
					return err
				}
				to, err := resolvePanorama(view.Tour, view.Assets, args[2])
				if err != nil {
					return err
				}
				if connect {
					return s.Annotator().Connect(from, to)
				}
				return s.Annotator().Disconnect(from, to)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s and %s\n", done, args[1], args[2])
			return nil
		},
	}
}

func newTourStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start <job-id> <panorama>",
		Short: "Choose the panorama the tour opens with",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.withDraft(cmd, args[0], func(_ context.Context, s *session.Session) error {
				view := s.View()
				id, err := resolvePanorama(view.Tour, view.Assets, args[1])
				if err != nil {
					return err
				}
				return s.Annotator().SetStartPanorama(id)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tour starts at %s\n", args[1])
			return nil
		},
	}
}

func newTourFloorplanCommand(ctx *commandContext) *cobra.Command {
	var clearPlan bool

	cmd := &cobra.Command{
		Use:   "floorplan <job-id> [asset]",
		Short: "Attach a floorplan image to the tour",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clearPlan && len(args) < 2 {
				return fmt.Errorf("name a floorplan asset or pass --clear")
			}
			_, err := ctx.withDraft(cmd, args[0], func(_ context.Context, s *session.Session) error {
				if clearPlan {
					return s.Annotator().SetFloorplanAsset("")
				}
				asset, err := resolveAsset(s.View().Assets, args[1])
				if err != nil {
					return err
				}
				return s.Annotator().SetFloorplanAsset(asset.ID)
			})
			if err != nil {
				return err
			}
			if clearPlan {
				fmt.Fprintln(cmd.OutOrStdout(), "Floorplan removed")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Floorplan set to %s\n", args[1])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearPlan, "clear", false, "Remove the floorplan")
	return cmd
}
