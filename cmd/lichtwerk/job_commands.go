package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"lichtwerk/internal/api"
	"lichtwerk/internal/backend"
	"lichtwerk/internal/session"
)

func newJobCommand(ctx *commandContext) *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Create, list and inspect jobs",
	}
	jobCmd.AddCommand(newJobCreateCommand(ctx))
	jobCmd.AddCommand(newJobListCommand(ctx))
	jobCmd.AddCommand(newJobShowCommand(ctx))
	return jobCmd
}

func newJobCreateCommand(ctx *commandContext) *cobra.Command {
	var address, customer, date string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a job",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ctx.openBackend(cmd)
			if err != nil {
				return err
			}
			shootDate, err := api.ParseJobDate(date)
			if err != nil {
				return err
			}
			job, err := b.CreateJob(cmd.Context(), backend.NewJob{
				Address:  address,
				Customer: customer,
				Date:     shootDate,
			})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, api.FromJob(job))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created job %s (%s)\n", job.ID, job.Address)
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Property address")
	cmd.Flags().StringVar(&customer, "customer", "", "Customer name")
	cmd.Flags().StringVar(&date, "date", "", "Shoot date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func newJobListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ctx.openBackend(cmd)
			if err != nil {
				return err
			}
			jobs, err := b.ListJobs(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, api.JobListResponse{Jobs: api.FromJobs(jobs)})
			}
			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No jobs")
				return nil
			}
			list := newListing(col("ID"), col("Address"), col("Customer"), col("Date"), col("Step"), col("Locked"), col("Created"))
			for _, job := range jobs {
				list.add(
					job.ID,
					job.Address,
					job.Customer,
					api.FormatJobDate(job.Date),
					job.Step.Label(),
					yesNo(job.Locked),
					humanize.Time(job.CreatedAt),
				)
			}
			fmt.Fprintln(out, list)
			return nil
		},
	}
}

func newJobShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show the workflow state of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openSession(cmd, args[0])
			if err != nil {
				return err
			}
			view := s.View()
			if view.Validation == nil && !view.State.Locked {
				view.Validation = s.Check()
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, newViewPayload(view))
			}
			renderView(cmd, view)
			return nil
		},
	}
}

// viewPayload is the JSON form of a session view.
type viewPayload struct {
	Job        api.Job         `json:"job"`
	Assets     []api.Asset     `json:"assets"`
	Stacks     []api.Stack     `json:"stacks"`
	Directives any             `json:"directives"`
	Advisories any             `json:"advisories"`
	Tour       any             `json:"tour"`
	Validation *validationInfo `json:"validation,omitempty"`
}

type validationInfo struct {
	Stacks   []string `json:"stacks,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

func newViewPayload(view session.View) viewPayload {
	set := api.FromStackSet(backend.StackSet{Assets: view.Assets, Stacks: view.Stacks, Revision: view.Revision})
	payload := viewPayload{
		Job:        api.FromJob(view.Job),
		Assets:     set.Assets,
		Stacks:     set.Stacks,
		Directives: view.Directives,
		Advisories: view.Advisories,
		Tour:       view.Tour,
	}
	if v := view.Validation; v != nil {
		payload.Validation = &validationInfo{Stacks: v.Stacks, Problems: v.Problems}
	}
	return payload
}

func renderView(cmd *cobra.Command, view session.View) {
	out := cmd.OutOrStdout()
	job := view.Job
	fmt.Fprintf(out, "%s\n", colorize(out, ansiBold, job.Address))
	fmt.Fprintf(out, "Job:      %s\n", job.ID)
	if job.Customer != "" {
		fmt.Fprintf(out, "Customer: %s\n", job.Customer)
	}
	fmt.Fprintf(out, "Step:     %d/4 %s\n", view.State.Step, view.State.Step.Label())
	fmt.Fprintf(out, "Locked:   %s\n", yesNo(view.State.Locked))
	fmt.Fprintf(out, "Revision: %d\n", view.Revision)

	var total int64
	for _, asset := range view.Assets {
		total += asset.Size
	}
	fmt.Fprintf(out, "Assets:   %d (%s)\n\n", len(view.Assets), humanize.IBytes(uint64(total)))

	if len(view.Stacks) > 0 {
		fmt.Fprintln(out, stackTable(view.Stacks))
		fmt.Fprintln(out)
	}

	d := view.Directives
	fmt.Fprintln(out, colorize(out, ansiBold, "Editing"))
	fmt.Fprintf(out, "  Style:   %s\n", orDash(string(d.Style)))
	fmt.Fprintf(out, "  Windows: %s\n", orDash(string(d.Window)))
	fmt.Fprintf(out, "  Sky:     %s\n", orDash(string(d.Sky)))
	flags := make([]string, 0, len(d.Retouch))
	for _, flag := range d.Retouch {
		flags = append(flags, flag.Label())
	}
	fmt.Fprintf(out, "  Retouch: %s\n", orDash(strings.Join(flags, ", ")))
	if d.Notes != "" {
		fmt.Fprintf(out, "  Notes:   %s\n", d.Notes)
	}
	for _, adv := range view.Advisories {
		fmt.Fprintf(out, "  ! %s\n", adv.Message)
	}

	if len(view.Tour.Panoramas) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, colorize(out, ansiBold, "Tour"))
		fmt.Fprintln(out, tourTable(view))
	}

	if v := view.Validation; v != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, colorize(out, ansiRed, "Not ready to lock"))
		renderValidation(out, view.Stacks, v)
	} else if !view.State.Locked {
		fmt.Fprintln(out)
		fmt.Fprintln(out, colorize(out, ansiGreen, "Ready to lock"))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func itoa(n int) string { return strconv.Itoa(n) }
