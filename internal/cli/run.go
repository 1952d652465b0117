package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/reglet-dev/sudo-plugin-sdk/host"
)

func newRunCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "run <plugin.so> <scenario.yaml>",
		Short: "Replay a session: open, stream chunks, close",
		Long: `Replay the session described by a YAML scenario against the plugin.
Every return code and every message the plugin sent to the host is printed.

Scenario keys: version, settings, user_info, command_info, argv, argc,
user_env, plugin_options, replies, streams (list of {stream, data}),
exit_status, error.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := host.LoadScenario(args[1])
			if err != nil {
				return err
			}
			p, err := load(args[0])
			if err != nil {
				return err
			}
			report, err := host.Run(p, sc)
			if err != nil {
				return err
			}
			writeReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

// styles highlights refusals when w is a terminal. Anything else gets
// plain text.
type styles struct {
	header lipgloss.Style
	refuse lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		header: r.NewStyle().Bold(true),
		refuse: r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	}
}

func writeReport(w io.Writer, r *host.Report) {
	st := newStyles(w)
	for _, s := range r.Steps {
		switch {
		case s.Skipped:
			fmt.Fprintf(w, "%-18s skipped (no entry)\n", s.Call)
		case s.Call == "close":
			fmt.Fprintf(w, "%-18s delivered\n", s.Call)
		case s.Code != 1:
			fmt.Fprintf(w, "%-18s %s\n", s.Call, st.refuse.Render(strconv.Itoa(s.Code)))
		default:
			fmt.Fprintf(w, "%-18s %d\n", s.Call, s.Code)
		}
	}
	if !r.Closed {
		fmt.Fprintf(w, "%-18s not called\n", "close")
	}
	if len(r.Events) > 0 {
		fmt.Fprintln(w, st.header.Render("--- host messages"))
		writeEvents(w, r.Events)
	}
}

func writeEvents(w io.Writer, events []host.Event) {
	for _, e := range events {
		line := fmt.Sprintf("[%s %s] %s", e.Call, e.Kind, strconv.Quote(e.Text))
		if e.Kind.IsPrompt() {
			line += " -> " + strconv.Quote(e.Reply)
		}
		fmt.Fprintln(w, line)
	}
}
