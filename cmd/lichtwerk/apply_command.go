package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lichtwerk/internal/session"
	"lichtwerk/internal/tour"
)

// plan is a YAML description of the annotations, directives and tour of a
// job, applied in one invocation.
type plan struct {
	Rooms      []roomPlan      `yaml:"rooms"`
	Directives *directivesPlan `yaml:"directives"`
	Tour       *tourPlan       `yaml:"tour"`
}

type roomPlan struct {
	Stack   string  `yaml:"stack"`
	Room    string  `yaml:"room"`
	Comment *string `yaml:"comment"`
}

type directivesPlan struct {
	Style   *string  `yaml:"style"`
	Window  *string  `yaml:"window"`
	Sky     *string  `yaml:"sky"`
	Retouch []string `yaml:"retouch"`
	Notes   *string  `yaml:"notes"`
}

type tourPlan struct {
	Panoramas []struct {
		Asset    string `yaml:"asset"`
		Category string `yaml:"category"`
		Floor    int    `yaml:"floor"`
	} `yaml:"panoramas"`
	Connections [][2]string `yaml:"connections"`
	Start       string      `yaml:"start"`
	Floorplan   string      `yaml:"floorplan"`
}

func loadPlan(path string) (plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return plan{}, fmt.Errorf("read plan: %w", err)
	}
	var p plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return plan{}, fmt.Errorf("parse plan %s: %w", path, err)
	}
	return p, nil
}

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var lock bool

	cmd := &cobra.Command{
		Use:   "apply <job-id> <plan.yaml>",
		Short: "Apply room types, directives and a tour from a YAML plan",
		Long: `Apply room types, directives and a tour from a YAML plan:

  rooms:
    - stack: 1
      room: Küche
      comment: Arbeitsplatte freistellen
  directives:
    style: bright
    window: pulled
    retouch: [day_to_dusk]
  tour:
    panoramas:
      - asset: pano-living.jpg
        category: Wohnzimmer
    connections:
      - [pano-living.jpg, pano-kitchen.jpg]
    start: pano-living.jpg

A directives section replaces the retouch selection. A tour section replaces
the whole tour.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPlan(args[1])
			if err != nil {
				return err
			}
			s, err := ctx.withDraft(cmd, args[0], func(c context.Context, s *session.Session) error {
				return applyPlan(c, s, p)
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Applied %d room assignment(s)\n", len(p.Rooms))
			for _, adv := range s.View().Advisories {
				fmt.Fprintf(out, "! %s\n", adv.Message)
			}
			if !lock {
				return nil
			}
			return lockSession(cmd, ctx, s)
		},
	}
	cmd.Flags().BoolVar(&lock, "lock", false, "Lock the job after applying the plan")
	return cmd
}

func applyPlan(ctx context.Context, s *session.Session, p plan) error {
	annotator := s.Annotator()
	for i, room := range p.Rooms {
		stack, err := resolveStack(s.View().Stacks, room.Stack)
		if err != nil {
			return fmt.Errorf("rooms[%d]: %w", i, err)
		}
		if room.Room != "" {
			if err := annotator.SetRoomType(ctx, stack.ID, room.Room); err != nil {
				return fmt.Errorf("rooms[%d]: %w", i, err)
			}
		}
		if room.Comment != nil {
			if err := annotator.SetComment(ctx, stack.ID, *room.Comment); err != nil {
				return fmt.Errorf("rooms[%d]: %w", i, err)
			}
		}
	}
	if p.Directives != nil {
		if err := applyDirectivesPlan(s, *p.Directives); err != nil {
			return fmt.Errorf("directives: %w", err)
		}
	}
	if p.Tour != nil {
		if err := applyTourPlan(s, *p.Tour); err != nil {
			return fmt.Errorf("tour: %w", err)
		}
	}
	return nil
}

func applyDirectivesPlan(s *session.Session, p directivesPlan) error {
	c := s.Directives()
	if p.Style != nil {
		if err := c.SetStyle(*p.Style); err != nil {
			return err
		}
	}
	if p.Window != nil {
		if err := c.SetWindow(*p.Window); err != nil {
			return err
		}
	}
	if p.Sky != nil {
		if err := c.SetSky(*p.Sky); err != nil {
			return err
		}
	}
	if p.Notes != nil {
		c.SetNotes(*p.Notes)
	}
	for _, flag := range c.Compile().Retouch {
		if _, err := c.SetRetouch(string(flag), false); err != nil {
			return err
		}
	}
	for _, value := range p.Retouch {
		if _, err := c.SetRetouch(value, true); err != nil {
			return err
		}
	}
	return nil
}

func applyTourPlan(s *session.Session, p tourPlan) error {
	a := s.Annotator()
	if err := a.LoadTour(tour.Tour{}); err != nil {
		return err
	}
	view := s.View()
	for i, pano := range p.Panoramas {
		asset, err := resolveAsset(view.Assets, pano.Asset)
		if err != nil {
			return fmt.Errorf("panoramas[%d]: %w", i, err)
		}
		if _, err := a.AddPanorama(asset.ID, pano.Category, pano.Floor); err != nil {
			return fmt.Errorf("panoramas[%d]: %w", i, err)
		}
	}
	current := a.Tour()
	for i, pair := range p.Connections {
		from, err := resolvePanorama(current, view.Assets, pair[0])
		if err != nil {
			return fmt.Errorf("connections[%d]: %w", i, err)
		}
		to, err := resolvePanorama(current, view.Assets, pair[1])
		if err != nil {
			return fmt.Errorf("connections[%d]: %w", i, err)
		}
		if err := a.Connect(from, to); err != nil {
			return fmt.Errorf("connections[%d]: %w", i, err)
		}
	}
	if p.Start != "" {
		id, err := resolvePanorama(current, view.Assets, p.Start)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		if err := a.SetStartPanorama(id); err != nil {
			return err
		}
	}
	if p.Floorplan != "" {
		asset, err := resolveAsset(view.Assets, p.Floorplan)
		if err != nil {
			return fmt.Errorf("floorplan: %w", err)
		}
		if err := a.SetFloorplanAsset(asset.ID); err != nil {
			return err
		}
	}
	return nil
}
