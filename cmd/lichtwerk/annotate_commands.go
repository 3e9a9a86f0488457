package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"lichtwerk/internal/order"
	"lichtwerk/internal/services"
	"lichtwerk/internal/session"
)

func newRoomCommand(ctx *commandContext) *cobra.Command {
	var clearRoom bool

	cmd := &cobra.Command{
		Use:   "room <job-id> <stack> [room-type]",
		Short: "Assign a room type to a stack",
		Long: `Assign a room type to a stack. The stack is named by its position in
"lichtwerk stacks" or by an ID prefix. Run "lichtwerk room --list" for the
room types.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list, _ := cmd.Flags().GetBool("list"); list {
				return nil
			}
			if clearRoom {
				return cobra.ExactArgs(2)(cmd, args)
			}
			return cobra.ExactArgs(3)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if list, _ := cmd.Flags().GetBool("list"); list {
				for _, room := range order.AllRoomTypes() {
					fmt.Fprintln(cmd.OutOrStdout(), room)
				}
				return nil
			}
			var stack order.Stack
			_, err := ctx.withDraft(cmd, args[0], func(c context.Context, s *session.Session) error {
				var err error
				stack, err = resolveStack(s.View().Stacks, args[1])
				if err != nil {
					return err
				}
				if clearRoom {
					return s.Annotator().ClearRoomType(c, stack.ID)
				}
				return s.Annotator().SetRoomType(c, stack.ID, args[2])
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if clearRoom {
				fmt.Fprintf(out, "Cleared room type of stack #%d\n", stack.Position+1)
				return nil
			}
			room, _ := order.ParseRoomType(args[2])
			fmt.Fprintf(out, "Stack #%d is %s\n", stack.Position+1, room)
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearRoom, "clear", false, "Remove the room type")
	cmd.Flags().Bool("list", false, "List the available room types")
	return cmd
}

func newCommentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <job-id> <stack> [text...]",
		Short: "Set the free-text comment of a stack",
		Long:  "Set the free-text comment of a stack. Omit the text to clear it.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[2:], " ")
			var stack order.Stack
			_, err := ctx.withDraft(cmd, args[0], func(c context.Context, s *session.Session) error {
				var err error
				stack, err = resolveStack(s.View().Stacks, args[1])
				if err != nil {
					return err
				}
				return s.Annotator().SetComment(c, stack.ID, text)
			})
			if err != nil {
				return err
			}
			if text == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared comment of stack #%d\n", stack.Position+1)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Commented stack #%d\n", stack.Position+1)
			}
			return nil
		},
	}
}

// renderValidation lists what blocks a lock, naming stacks by position.
func renderValidation(out io.Writer, stacks []order.Stack, v *services.ValidationError) {
	positions := make(map[string]int, len(stacks))
	for _, stack := range stacks {
		positions[stack.ID] = stack.Position + 1
	}
	for _, id := range v.Stacks {
		if n, ok := positions[id]; ok {
			fmt.Fprintf(out, "  - stack #%d (%s) needs a room type\n", n, shortID(id))
		} else {
			fmt.Fprintf(out, "  - stack %s needs a room type\n", shortID(id))
		}
	}
	for _, problem := range v.Problems {
		fmt.Fprintf(out, "  - %s\n", problem)
	}
}
