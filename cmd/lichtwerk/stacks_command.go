package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"lichtwerk/internal/api"
	"lichtwerk/internal/backend"
	"lichtwerk/internal/order"
	"lichtwerk/internal/session"
)

func newStacksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stacks <job-id>",
		Short: "List the stacks of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openSession(cmd, args[0])
			if err != nil {
				return err
			}
			view := s.View()
			if ctx.jsonOutput() {
				return writeJSON(cmd, api.FromStackSet(backend.StackSet{
					Assets:   view.Assets,
					Stacks:   view.Stacks,
					Revision: view.Revision,
				}))
			}
			out := cmd.OutOrStdout()
			if len(view.Stacks) == 0 {
				fmt.Fprintln(out, "No stacks yet; upload photos first")
				return nil
			}
			fmt.Fprintln(out, stackTable(view.Stacks))
			return nil
		},
	}
}

func stackTable(stacks []order.Stack) string {
	list := newListing(num("#"), col("Stack"), col("Type"), col("Files"), num("Size"), col("Captured"), col("Room"), col("Comment"))
	var files int
	var total int64
	for _, stack := range stacks {
		names := make([]string, 0, len(stack.Assets))
		var size int64
		for _, asset := range stack.Assets {
			names = append(names, asset.Name)
			size += asset.Size
		}
		files += len(stack.Assets)
		total += size
		captured := "-"
		if first := stack.Assets[0].CapturedAt; !first.IsZero() {
			captured = first.Local().Format("15:04:05")
		}
		list.add(
			itoa(stack.Position + 1),
			shortID(stack.ID),
			string(stack.Type),
			strings.Join(names, ", "),
			humanize.IBytes(uint64(size)),
			captured,
			orDash(string(stack.RoomType)),
			stack.Comment,
		)
	}
	list.total("", itoa(len(stacks))+" stacks", "", itoa(files)+" files", humanize.IBytes(uint64(total)))
	return list.String()
}

func tourTable(view session.View) string {
	names := make(map[string]string, len(view.Assets))
	for _, asset := range view.Assets {
		names[asset.ID] = asset.Name
	}
	list := newListing(col(""), col("Panorama"), col("Asset"), col("Category"), num("Floor"), col("Connections"))
	for _, p := range view.Tour.Panoramas {
		start := ""
		if p.ID == view.Tour.StartPanorama {
			start = "*"
		}
		links := make([]string, 0, len(p.Connections))
		for _, id := range p.Connections {
			links = append(links, shortID(id))
		}
		list.add(
			start,
			shortID(p.ID),
			names[p.AssetID],
			p.Category,
			itoa(p.Floor),
			strings.Join(links, ", "),
		)
	}
	return list.String()
}
