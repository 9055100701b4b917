package cli

import (
	"fmt"
	"time"

	"github.com/me/timetable/internal/protocol"
	"github.com/me/timetable/pkg/model"
	"github.com/spf13/cobra"
)

// validateLecture applies the checks a client makes before sending.
func validateLecture(date, tm string) error {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}
	if !model.IsSlot(tm) {
		return fmt.Errorf("invalid time %q: want one of %v", tm, model.Slots)
	}
	return nil
}

func newLectureCmd(action, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " DATE TIME ROOM MODULE",
		Short: short,
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateLecture(args[0], args[1]); err != nil {
				return err
			}
			return sendAndPrint(cmd, protocol.Format(action, args...))
		},
	}
}

func newAddCmd() *cobra.Command {
	return newLectureCmd(protocol.ActionAdd, "add", "Schedule a lecture")
}

func newRemoveCmd() *cobra.Command {
	return newLectureCmd(protocol.ActionRemove, "remove", "Remove a scheduled lecture")
}

func newDisplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "display",
		Short: "Show this week's lectures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndPrint(cmd, protocol.ActionDisplaySchedule)
		},
	}
}

func newEarlyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "early",
		Short: "Move this week's lectures into the earliest free slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndPrint(cmd, protocol.ActionEarlyLectures)
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "End the session with the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sendAndPrint(cmd, protocol.ActionStop); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Connection closed by client.")
			return nil
		},
	}
}

func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send [RAW]",
		Short: "Send a raw request line (default: unknownaction)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := "unknownaction"
			if len(args) == 1 {
				msg = args[0]
			}
			return sendAndPrint(cmd, msg)
		},
	}
}

func sendAndPrint(cmd *cobra.Command, msg string) error {
	reply, err := tc.Send(cmd.Context(), msg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
