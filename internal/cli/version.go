package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// shputilVersion is set at build time with
// -ldflags "-X github.com/Ulysses-Xu/go-shp/internal/cli.shputilVersion=v1.2.3".
var shputilVersion = ""

func versionCommand() *SubCommand {
	return newSubCommand(&cobra.Command{
		Use:   "version",
		Short: "Prints the shputil version details",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shputil %s (%s %s/%s)\n",
				buildVersion(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	})
}

func buildVersion() string {
	if shputilVersion != "" {
		return shputilVersion
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}
