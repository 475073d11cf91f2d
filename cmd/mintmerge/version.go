package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/nao1215/mintmerge/internal/report"
	"github.com/spf13/cobra"
)

// Set at build time via ldflags. Empty values fall back to the module build info.
var (
	version = ""
	commit  = ""
	date    = ""
)

const unknown = "unknown"

// versionInfo describes the running binary.
type versionInfo struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Built    string `json:"built"`
	Go       string `json:"go"`
	Platform string `json:"platform"`
}

// currentVersion collects version information from ldflags and the embedded
// build info, preferring ldflags.
func currentVersion() versionInfo {
	info := versionInfo{
		Version:  version,
		Commit:   commit,
		Built:    date,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}

	var settings map[string]string
	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "" {
			info.Version = bi.Main.Version
		}
		settings = make(map[string]string, len(bi.Settings))
		for _, s := range bi.Settings {
			settings[s.Key] = s.Value
		}
	}

	if info.Version == "" {
		info.Version = "(devel)"
	}
	if info.Commit == "" {
		info.Commit = shortRevision(settings["vcs.revision"])
	}
	if info.Built == "" {
		info.Built = settings["vcs.time"]
	}
	if info.Built == "" {
		info.Built = unknown
	}
	return info
}

// shortRevision abbreviates a VCS revision to seven characters.
func shortRevision(rev string) string {
	switch {
	case rev == "":
		return unknown
	case len(rev) > 7:
		return rev[:7]
	default:
		return rev
	}
}

// write prints the version information as text.
func (v versionInfo) write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "mintmerge version %s\n  commit: %s\n  built:  %s\n  go:     %s (%s)\n",
		v.Version, v.Commit, v.Built, v.Go, v.Platform)
	return err
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, build date and Go toolchain of mintmerge.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return configError(err)
			}
			info := currentVersion()
			if asJSON {
				_, err = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint(), report.WithTrailingNewline()).WriteDocument(info)
				return err
			}
			return info.write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	return cmd
}
