package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lichtwerk/internal/directives"
	"lichtwerk/internal/session"
)

type editFlags struct {
	style     string
	window    string
	sky       string
	retouch   []string
	noRetouch []string
	notes     string
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var flags editFlags

	cmd := &cobra.Command{
		Use:   "edit <job-id>",
		Short: "Choose the editing directives of a job",
		Long: fmt.Sprintf(`Choose the editing directives of a job.

Styles:  %v
Windows: %v
Skies:   %v
Retouch: %v

Pass an empty value (for example --sky "") to clear a choice.`,
			directives.Styles(), directives.Windows(), directives.Skies(), directives.RetouchFlags()),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var advisories []directives.Advisory
			s, err := ctx.withDraft(cmd, args[0], func(_ context.Context, s *session.Session) error {
				var err error
				advisories, err = applyEditFlags(cmd, s.Directives(), flags)
				return err
			})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, s.Directives().Compile())
			}
			out := cmd.OutOrStdout()
			for _, adv := range advisories {
				fmt.Fprintf(out, "! %s\n", adv.Message)
			}
			d := s.Directives().Compile()
			fmt.Fprintf(out, "Style %s, windows %s, sky %s, %d retouch service(s)\n",
				orDash(string(d.Style)), orDash(string(d.Window)), orDash(string(d.Sky)), len(d.Retouch))
			if total, formatted := s.Directives().EstimatedSurcharge(); total > 0 {
				fmt.Fprintf(out, "Estimated surcharge: %s per image\n", formatted)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.style, "style", "", "Colour grading style")
	cmd.Flags().StringVar(&flags.window, "window", "", "Window treatment")
	cmd.Flags().StringVar(&flags.sky, "sky", "", "Sky treatment")
	cmd.Flags().StringSliceVar(&flags.retouch, "retouch", nil, "Enable retouch services")
	cmd.Flags().StringSliceVar(&flags.noRetouch, "no-retouch", nil, "Disable retouch services")
	cmd.Flags().StringVar(&flags.notes, "notes", "", "Freeform notes for the editor")
	return cmd
}

// applyEditFlags changes only the selections whose flags were given and
// returns the advisories of newly enabled retouch services.
func applyEditFlags(cmd *cobra.Command, c *directives.Compiler, flags editFlags) ([]directives.Advisory, error) {
	changed := cmd.Flags().Changed
	if changed("style") {
		if err := c.SetStyle(flags.style); err != nil {
			return nil, err
		}
	}
	if changed("window") {
		if err := c.SetWindow(flags.window); err != nil {
			return nil, err
		}
	}
	if changed("sky") {
		if err := c.SetSky(flags.sky); err != nil {
			return nil, err
		}
	}
	if changed("notes") {
		c.SetNotes(flags.notes)
	}
	for _, value := range flags.noRetouch {
		if _, err := c.SetRetouch(value, false); err != nil {
			return nil, err
		}
	}
	var advisories []directives.Advisory
	for _, value := range flags.retouch {
		adv, err := c.SetRetouch(value, true)
		if err != nil {
			return nil, err
		}
		if adv != nil {
			advisories = append(advisories, *adv)
		}
	}
	return advisories, nil
}
