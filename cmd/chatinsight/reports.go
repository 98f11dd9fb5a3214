package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/report"
	"github.com/edgard/chatinsight/internal/service"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDateFlags parses optional YYYY-MM-DD flag values in order.
func parseDateFlags(values ...string) ([]*query.Date, error) {
	out := make([]*query.Date, len(values))
	for i, v := range values {
		d, err := optionalDate(v)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func newSummarizeCommand(opts *rootOptions) *cobra.Command {
	var (
		kind, user, start, end string
		asJSON                 bool
	)

	kinds := make([]string, 0, len(report.Kinds()))
	for _, k := range report.Kinds() {
		kinds = append(kinds, string(k))
	}

	cmd := &cobra.Command{
		Use:   "summarize <group>",
		Short: "Summarize a stored group",
		Long: `Summarize a stored group over an optional date range.

Summary types: ` + strings.Join(kinds, ", ") + `.
The user_messages_for_user and user_wise_detailed types need --user.`,
		Example: `  chatinsight summarize "Project Team" --type brief --start 2024-03-01
  chatinsight summarize "Project Team" --type user_wise_detailed --user "Jane Doe"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dates, err := parseDateFlags(start, end)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			sum, err := a.service.Summarize(cmd.Context(), args[0], service.SummaryRequest{
				Kind:  report.Kind(kind),
				User:  user,
				Start: dates[0],
				End:   dates[1],
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), sum)
			}
			fmt.Fprintln(cmd.OutOrStdout(), sum.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "type", string(report.KindTotal), "Summary type")
	cmd.Flags().StringVar(&user, "user", "", "Participant for the per-user summary types")
	cmd.Flags().StringVar(&start, "start", "", "First day to consider (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day to consider (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the full summary as JSON")
	return cmd
}

func newActivityCommand(opts *rootOptions) *cobra.Command {
	var (
		day, weekStart, weekEnd, start, end, user string
		asJSON                                    bool
	)

	cmd := &cobra.Command{
		Use:   "activity <group>",
		Short: "Break down the activity of a stored group by hour, weekday and participant",
		Long: `Break down the activity of a stored group.

--day selects one day, --week-start with --week-end one week, and --start or
--end an arbitrary range, in that order of precedence. A range with both ends
is also split into Monday-aligned weeks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dates, err := parseDateFlags(day, weekStart, weekEnd, start, end)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			act, err := a.service.Activity(cmd.Context(), args[0], report.ActivityRequest{
				Day:       dates[0],
				WeekStart: dates[1],
				WeekEnd:   dates[2],
				Start:     dates[3],
				End:       dates[4],
				User:      user,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), act)
			}
			return printActivity(cmd.OutOrStdout(), act)
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "Single day to break down (YYYY-MM-DD)")
	cmd.Flags().StringVar(&weekStart, "week-start", "", "First day of the week (YYYY-MM-DD)")
	cmd.Flags().StringVar(&weekEnd, "week-end", "", "Last day of the week (YYYY-MM-DD)")
	cmd.Flags().StringVar(&start, "start", "", "First day to consider (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day to consider (YYYY-MM-DD)")
	cmd.Flags().StringVar(&user, "user", "", "Only count this participant")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the full breakdown as JSON")
	return cmd
}

func printActivity(out io.Writer, a report.Activity) error {
	fmt.Fprintf(out, "Messages: %d from %d participants (%s)\n", a.TotalMessages, a.TotalUsers, a.AnalysisType)
	if a.PeakHour != nil {
		fmt.Fprintf(out, "Peak: %02d:00 on %s\n", *a.PeakHour, a.PeakDay)
	}
	if a.Sampled {
		fmt.Fprintln(out, "Large period, counts come from a sample")
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nUSER\tMESSAGES\tSHARE")
	for _, u := range a.TopUsers {
		fmt.Fprintf(w, "%s\t%d\t%.1f%%\n", u.User, u.Count, u.Percentage)
	}
	if len(a.Weeks) > 0 {
		fmt.Fprintln(w, "\nWEEK\tMESSAGES\tMOST ACTIVE")
		for _, wk := range a.Weeks {
			fmt.Fprintf(w, "%s\t%d\t%s\n", wk.Start, wk.MessageCount, wk.MostActiveUser)
		}
	}
	return w.Flush()
}

func newSentimentCommand(opts *rootOptions) *cobra.Command {
	var (
		start, end string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "sentiment <group>",
		Short: "Report the mood of a stored group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dates, err := parseDateFlags(start, end)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			o, err := a.service.Sentiment(cmd.Context(), args[0], dates[0], dates[1])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), o)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Overall: %s (average %.2f over %d messages)\n", o.Overall, o.AverageScore, o.TotalAnalyzed)
			fmt.Fprintf(out, "Positive: %d | Neutral: %d | Negative: %d\n", o.Breakdown.Positive, o.Breakdown.Neutral, o.Breakdown.Negative)
			for _, u := range o.ByUser {
				fmt.Fprintf(out, "- %s: %.2f (%d messages)\n", u.User, u.AverageScore, u.Messages)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "First day to consider (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day to consider (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the full report as JSON")
	return cmd
}
