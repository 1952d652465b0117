package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/sudo-plugin-sdk/host"
)

func newVersionCommand(load loader) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "version <plugin.so>",
		Short: "Open the plugin with a default session and call show_version",
		Long: `Open the plugin with a session describing the current user running
/bin/true, call show_version, then close. Everything the plugin prints is
written to standard output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := load(args[0])
			if err != nil {
				return err
			}
			return runVersion(cmd.OutOrStdout(), p, host.DefaultScenario(), verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Ask for verbose version output")
	return cmd
}

func runVersion(w io.Writer, p probe, sc *host.Scenario, verbose bool) error {
	t := host.NewTranscript(sc.Replies)
	rc, err := p.Open(sc, t)
	if err != nil {
		return err
	}
	if rc != 1 {
		writeEvents(w, t.Events())
		return fmt.Errorf("open returned %d", rc)
	}
	defer p.Close(0, 0)

	vrc := p.ShowVersionTo(t, verbose)
	writeEvents(w, t.Events())
	if vrc != 1 {
		return fmt.Errorf("show_version returned %d", vrc)
	}
	return nil
}
