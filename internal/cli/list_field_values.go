package cli

import (
	"fmt"

	"github.com/Ulysses-Xu/go-shp"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

func listFieldValuesCommand() *SubCommand {
	sc := newSubCommand(&cobra.Command{
		Use:   "list-field-values SHP_FILE FIELD_NAME",
		Short: "List the distinct values of a field",
		Long: `
List the distinct values of the field FIELD_NAME in the order they first
appear. Blank values are skipped.`,
		Args: cobra.ExactArgs(2),
	})
	sc.Cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runListFieldValues(sc, args[0], args[1])
	}
	return sc
}

func runListFieldValues(sc *SubCommand, path, field string) error {
	r, err := shp.OpenFile(path, sc.options("Reading records")...)
	if err != nil {
		return err
	}
	defer r.Close()

	if r.Schema().Index(field) < 0 {
		glog.Warningf("%s has no field named %q", path, field)
	}

	var values []string
	seen := make(map[string]bool)
	it := r.Iterate()
	defer it.Close()
	for it.Next() {
		v := it.Record().Get(field)
		if v.IsAbsent() {
			continue
		}
		s := v.String()
		if !seen[s] {
			seen[s] = true
			values = append(values, s)
		}
	}
	if err := it.Err(); err != nil {
		return err
	}

	out := sc.Cmd.OutOrStdout()
	fmt.Fprintln(out, "Field values:")
	for i, s := range values {
		fmt.Fprintf(out, "  %02d:  %s\n", i+1, s)
	}
	return nil
}
