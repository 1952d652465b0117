package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
	"github.com/reglet-dev/sudo-plugin-sdk/host"
)

func newInspectCommand(load loader) *cobra.Command {
	var withHooks bool

	cmd := &cobra.Command{
		Use:   "inspect <plugin.so>",
		Short: "Show the plugin table: type, API version and entry points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := load(args[0])
			if err != nil {
				return err
			}
			return runInspect(cmd.OutOrStdout(), p, withHooks)
		},
	}
	cmd.Flags().BoolVar(&withHooks, "hooks", false, "Register and deregister the plugin's hooks and list them")
	return cmd
}

func runInspect(w io.Writer, p probe, withHooks bool) error {
	info := p.Info()

	fmt.Fprintf(w, "path:     %s\n", info.Path)
	fmt.Fprintf(w, "type:     %d (%s)\n", info.Type, pluginType(info.Type))
	fmt.Fprintf(w, "version:  %s", info.Version)
	if info.Version != entities.CompiledVersion {
		fmt.Fprintf(w, " (probe speaks %s)", entities.CompiledVersion)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "bound:    %t\n", info.Bound)
	fmt.Fprintf(w, "entries:  %s\n", strings.Join(info.Entries, ","))
	if info.LoadEntries != nil && !slices.Equal(info.LoadEntries, info.Entries) {
		// The front end only ever sees the table as it was after dlopen.
		fmt.Fprintf(w, "at load:  %s\n", strings.Join(info.LoadEntries, ","))
	}

	if !withHooks {
		return nil
	}
	types, err := p.ProbeHooks()
	var ne *host.NoEntryError
	if errors.As(err, &ne) {
		fmt.Fprintln(w, "hooks:    none")
		return nil
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	fmt.Fprintf(w, "hooks:    %s\n", strings.Join(names, ","))
	return err
}

func pluginType(t uint32) string {
	if t == 2 {
		return "io"
	}
	return "unexpected"
}
