// Package cli implements the sudo-plugin-probe commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/sudo-plugin-sdk/domain/entities"
	"github.com/reglet-dev/sudo-plugin-sdk/host"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// loader opens a plugin. Tests replace it.
type loader func(path string) (probe, error)

// probe is the part of host.Plugin the commands use.
type probe interface {
	host.Driver
	Info() host.TableInfo
	ShowVersionTo(t *host.Transcript, verbose bool) int
	ProbeHooks() ([]entities.HookType, error)
}

func loadPlugin(path string) (probe, error) {
	p, err := host.Load(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewRootCommand builds the probe command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(loadPlugin)
}

func newRootCommand(load loader) *cobra.Command {
	var debugLog bool

	rootCmd := &cobra.Command{
		Use:   "sudo-plugin-probe",
		Short: "Load and exercise sudo I/O plugins built with the Go SDK",
		Long: `sudo-plugin-probe dlopens a plugin shared object, inspects the
sudo_go_io_plugin table it exports, and replays command sessions against it
through the same calling convention the sudo front end uses.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if debugLog {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\nPlugin API: %s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH, entities.CompiledVersion))

	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newInspectCommand(load))
	rootCmd.AddCommand(newVersionCommand(load))
	rootCmd.AddCommand(newRunCommand(load))

	return rootCmd
}

// Execute runs the probe and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}
