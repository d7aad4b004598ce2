package cli

import (
	"fmt"

	"github.com/Ulysses-Xu/go-shp"
	"github.com/spf13/cobra"
)

func infoCommand() *SubCommand {
	sc := newSubCommand(&cobra.Command{
		Use:   "info SHP_FILE",
		Short: "Print the shape type and record count of a shapefile",
		Args:  cobra.ExactArgs(1),
	})
	sc.Cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runInfo(sc, args[0])
	}
	return sc
}

func runInfo(sc *SubCommand, path string) error {
	r, err := shp.OpenFile(path, sc.options("")...)
	if err != nil {
		return err
	}
	defer r.Close()

	out := sc.Cmd.OutOrStdout()
	fmt.Fprintln(out, "Shape type:", r.ShapeType())
	fmt.Fprintln(out, "Number of records:", r.NumRecords())
	return nil
}
