package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lichtwerk/internal/order"
	"lichtwerk/internal/session"
)

func newStepCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step <job-id> [next|<1-4>]",
		Short: "Show or move the workflow step of a job",
		Long: `Show or move the workflow step of a job. "next" advances one step; a
number jumps to any earlier step or to the immediately following one.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				s, err := ctx.openSession(cmd, args[0])
				if err != nil {
					return err
				}
				printStep(cmd, s.Workflow().Snapshot())
				return nil
			}
			s, err := ctx.withDraft(cmd, args[0], func(_ context.Context, s *session.Session) error {
				if args[1] == "next" {
					if !s.Workflow().AdvanceStep() {
						return fmt.Errorf("already at the last step")
					}
					return nil
				}
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid step %q", args[1])
				}
				return s.Workflow().JumpToStep(order.Step(n))
			})
			if err != nil {
				return err
			}
			printStep(cmd, s.Workflow().Snapshot())
			return nil
		},
	}
	return cmd
}

func printStep(cmd *cobra.Command, state order.WorkflowState) {
	out := cmd.OutOrStdout()
	for step := order.FirstStep; step <= order.LastStep; step++ {
		marker := " "
		if step == state.Step {
			marker = ">"
		}
		fmt.Fprintf(out, "%s %d %s\n", marker, step, step.Label())
	}
	if state.Locked {
		fmt.Fprintln(out, "Job is locked")
	}
}
