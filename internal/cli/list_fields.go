package cli

import (
	"fmt"

	"github.com/Ulysses-Xu/go-shp"
	"github.com/spf13/cobra"
)

func listFieldsCommand() *SubCommand {
	sc := newSubCommand(&cobra.Command{
		Use:   "list-fields SHP_FILE",
		Short: "List the fields of a shapefile",
		Long: `
List the attribute fields of a shapefile with their type and width.
Numbering starts at 2: field 1 is the deletion flag every record carries.`,
		Args: cobra.ExactArgs(1),
	})
	sc.Cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runListFields(sc, args[0])
	}
	return sc
}

func runListFields(sc *SubCommand, path string) error {
	r, err := shp.OpenFile(path, sc.options("")...)
	if err != nil {
		return err
	}
	defer r.Close()

	out := sc.Cmd.OutOrStdout()
	for i, f := range r.Schema() {
		fmt.Fprintf(out, "%03d: %-16s\t%-7s\t%4d\n", i+2, f.Name, f.Type.Label(), f.Length)
	}
	return nil
}
