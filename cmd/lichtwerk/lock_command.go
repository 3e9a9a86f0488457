package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"lichtwerk/internal/api"
	"lichtwerk/internal/backend"
	"lichtwerk/internal/services"
	"lichtwerk/internal/session"
)

func newLockCommand(ctx *commandContext) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "lock <job-id>",
		Short: "Validate a job and hand it to production",
		Long: `Validate a job and lock it. Every stack needs a room type and a tour
with panoramas needs a start panorama. A locked job accepts no further
changes. Use --check to validate without locking.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openSession(cmd, args[0])
			if err != nil {
				return err
			}
			if check {
				return reportCheck(cmd, s)
			}
			if s.Workflow().Locked() {
				fmt.Fprintln(cmd.OutOrStdout(), "Job is already locked")
				return nil
			}
			return lockSession(cmd, ctx, s)
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Only report what blocks the lock")
	return cmd
}

func reportCheck(cmd *cobra.Command, s *session.Session) error {
	out := cmd.OutOrStdout()
	v := s.Check()
	if v == nil {
		fmt.Fprintln(out, colorize(out, ansiGreen, "Ready to lock"))
		return nil
	}
	fmt.Fprintln(out, colorize(out, ansiRed, "Not ready to lock"))
	renderValidation(out, s.View().Stacks, v)
	return v
}

// lockSession locks s and reports the outcome. Validation failures are
// listed stack by stack before the error is returned.
func lockSession(cmd *cobra.Command, ctx *commandContext, s *session.Session) error {
	out := cmd.OutOrStdout()
	result, err := s.Lock(cmd.Context())
	if err != nil {
		var validation *services.ValidationError
		if errors.As(err, &validation) {
			fmt.Fprintln(out, colorize(out, ansiRed, "Not ready to lock"))
			renderValidation(out, s.View().Stacks, validation)
			return err
		}
		if errors.Is(err, services.ErrConflict) {
			return fmt.Errorf("%w (the job changed since it was opened; run the command again)", err)
		}
		return err
	}
	if ctx.jsonOutput() {
		return writeJSON(cmd, api.FromCommitResult(result))
	}
	printLocked(cmd, result)
	return nil
}

func printLocked(cmd *cobra.Command, result backend.CommitResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s at revision %d", colorize(out, ansiGreen, "Locked"), result.Revision)
	if !result.LockedAt.IsZero() {
		fmt.Fprintf(out, " (%s)", result.LockedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(out)
}
