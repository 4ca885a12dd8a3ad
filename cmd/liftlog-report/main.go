// Package main provides an offline analytics report over an exported workout history.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mansoorceksport/liftlog/internal/domain"
	"github.com/mansoorceksport/liftlog/internal/service"
)

type reportFlags struct {
	userID       string
	workoutID    string
	exerciseID   string
	exerciseName string
	from         string
	to           string
	limit        int
	offset       int
	summary      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "liftlog-report",
		Short:        "Offline tools for liftlog workout histories",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newAnalyticsCmd())
	rootCmd.AddCommand(newMapCmd())

	return rootCmd
}

func newAnalyticsCmd() *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "analytics [histories.json|-]",
		Short: "Aggregate an exported JSON array of history records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := flags.filter()
			if err != nil {
				return err
			}

			var histories []*domain.WorkoutHistoryRecord
			if err := readJSON(cmd, args, &histories); err != nil {
				return err
			}

			analytics := service.AggregateHistory(histories, filter)
			if flags.summary {
				return writeJSON(cmd.OutOrStdout(), analytics.WorkoutAnalytics)
			}
			return writeJSON(cmd.OutOrStdout(), analytics)
		},
	}

	cmd.Flags().StringVar(&flags.userID, "user", "", "only records of this user")
	cmd.Flags().StringVar(&flags.workoutID, "workout", "", "only records of this workout plan")
	cmd.Flags().StringVar(&flags.exerciseID, "exercise-id", "", "only records containing this exercise id")
	cmd.Flags().StringVar(&flags.exerciseName, "exercise-name", "", "case-insensitive exercise name fragment")
	cmd.Flags().StringVar(&flags.from, "from", "", "earliest date, RFC 3339 or YYYY-MM-DD")
	cmd.Flags().StringVar(&flags.to, "to", "", "latest date, RFC 3339 or YYYY-MM-DD (inclusive)")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "keep at most this many records after offset")
	cmd.Flags().IntVar(&flags.offset, "offset", 0, "skip this many newest records")
	cmd.Flags().BoolVar(&flags.summary, "summary", false, "print only the workout summary")

	return cmd
}

func newMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map [session.json|-]",
		Short: "Map a saved execution session into the history record it would produce",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var session domain.ExecutionSession
			if err := readJSON(cmd, args, &session); err != nil {
				return err
			}

			record, err := service.MapToWorkoutHistory(&session)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), record)
		},
	}
}

func (f reportFlags) filter() (domain.HistoryFilter, error) {
	if f.limit < 0 || f.offset < 0 {
		return domain.HistoryFilter{}, fmt.Errorf("limit and offset cannot be negative")
	}

	from, err := service.ParseDateBound(f.from, false)
	if err != nil {
		return domain.HistoryFilter{}, fmt.Errorf("invalid --from: %w", err)
	}
	to, err := service.ParseDateBound(f.to, true)
	if err != nil {
		return domain.HistoryFilter{}, fmt.Errorf("invalid --to: %w", err)
	}

	return domain.HistoryFilter{
		UserID:       f.userID,
		WorkoutID:    f.workoutID,
		ExerciseID:   f.exerciseID,
		ExerciseName: f.exerciseName,
		DateFrom:     from,
		DateTo:       to,
		Limit:        f.limit,
		Offset:       f.offset,
	}, nil
}

// readJSON decodes the file named by args[0], or stdin when it is absent or "-"
func readJSON(cmd *cobra.Command, args []string, dest interface{}) error {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode input: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
