package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/markusmobius/go-dateparser"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/adhan/internal/prayer"
)

var timetableOpts struct {
	date string
}

var timetableCmd = &cobra.Command{
	Use:   "timetable",
	Short: "Print the prayer times for a day",
	Long: `Print the prayer times for today, or for the day given with --date.

--date accepts natural language such as "tomorrow", "next friday",
"in 3 days" or "2025-03-14".`,
	Args: cobra.NoArgs,
	RunE: runTimetable,
}

func init() {
	rootCmd.AddCommand(timetableCmd)

	timetableCmd.Flags().StringVarP(&timetableOpts.date, "date", "d", "",
		"Day to print (default: today)")
}

func runTimetable(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	now := time.Now().In(cfg.TimeLocation())
	day := now
	if timetableOpts.date != "" {
		day, err = parseDate(timetableOpts.date, now)
		if err != nil {
			return err
		}
	}

	schedule, err := prayer.NewCalculator(cfg.Monitor.RestrictedMarkers).
		Build(cfg.Coordinates(), cfg.Parameters(), day)
	if err != nil {
		return err
	}

	renderTimetable(cmd.OutOrStdout(), schedule, now)
	return nil
}

// parseDate resolves a natural-language date relative to now. The result
// is midday of that calendar day in now's location.
func parseDate(expr string, now time.Time) (time.Time, error) {
	result, err := dateparser.Parse(&dateparser.Configuration{
		CurrentTime: now,
	}, expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse date %q: %w", expr, err)
	}

	t := result.Time
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, now.Location()), nil
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
	nextStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))
)

// renderTimetable writes one line per event, marking the one in progress
// and the next one due.
func renderTimetable(w io.Writer, s *prayer.Schedule, now time.Time) {
	coords := s.Coordinates()
	fmt.Fprintln(w, headerStyle.Render(s.Day().Format("Monday, 2 January 2006")))
	fmt.Fprintln(w, labelStyle.Render(fmt.Sprintf("%.4f, %.4f  %s  %s",
		coords.Latitude, coords.Longitude, s.Parameters().Method, s.Day().Location())))
	fmt.Fprintln(w)

	next, hasNext := s.Next(time.Time{}, now)
	current, hasCurrent := s.Current(now)

	for _, ev := range s.Events() {
		name := ev.Name()
		if ev.Kind == prayer.KindFajrTomorrow {
			name += " (tomorrow)"
		}

		line := fmt.Sprintf("%-22s %s  %s", name, ev.Instant.Format("15:04"), humanize.RelTime(ev.Instant, now, "ago", "from now"))
		switch {
		case hasNext && ev.Instant.Equal(next.Instant):
			line = nextStyle.Render(line + "  <- next")
		case hasCurrent && ev.Instant.Equal(current.Instant):
			line = labelStyle.Render(line + "  <- now")
		case !ev.Audible():
			line = labelStyle.Render(line)
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}
