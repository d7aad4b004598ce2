package cli

import (
	"os"
	"path/filepath"

	"github.com/Ulysses-Xu/go-shp"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// sidecarExts lists the companion files copied along when the output is
// written to a new path.
var sidecarExts = []string{".prj", ".cpg"}

func replaceFieldValuesCommand() *SubCommand {
	sc := newSubCommand(&cobra.Command{
		Use:   "replace-field-values SRC_SHP_FILE DST_SHP_FILE FIELD_NAME [OLD NEW]...",
		Short: "Search and replace values within a field",
		Long: `
Copy SRC_SHP_FILE to DST_SHP_FILE, replacing values of the field
FIELD_NAME. The replacements come in pairs:

  OLD1 NEW1 OLD2 NEW2 ... OLDn NEWn

Every value equal to OLD1 becomes NEW1 and so forth, so many
replacements happen in one pass. Values matching no OLD are copied
unchanged, as is every geometry. SRC_SHP_FILE and DST_SHP_FILE may be
the same file.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 {
				return errors.Errorf("requires SRC_SHP_FILE, DST_SHP_FILE and FIELD_NAME, received %d arg(s)", len(args))
			}
			if n := len(args) - 3; n%2 != 0 {
				return errors.Errorf("replacements must come in OLD NEW pairs, received %d value(s)", n)
			}
			return nil
		},
	})
	sc.Cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runReplaceFieldValues(sc, args[0], args[1], args[2], args[3:])
	}
	return sc
}

func runReplaceFieldValues(sc *SubCommand, src, dst, field string, pairs []string) error {
	if err := replaceFieldValues(sc, src, dst, field, pairs); err != nil {
		return err
	}
	if samePath(src, dst) {
		return nil
	}
	return copySidecars(src, dst)
}

func replaceFieldValues(sc *SubCommand, src, dst, field string, pairs []string) (err error) {
	opts := sc.options("Replacing field values in records")

	// The destination is opened first and closed last, so src and dst
	// may name the same files.
	w, err := shp.CreateFile(dst, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = w.Abort()
			return
		}
		err = w.Close()
	}()

	r, err := shp.OpenFile(src, opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	schema := r.Schema()
	idx := schema.Index(field)
	if idx < 0 {
		return errors.Errorf("%s has no field named %q", src, field)
	}
	table, err := replacementTable(schema[idx], pairs)
	if err != nil {
		return err
	}

	if err := w.SetShapeType(r.ShapeType()); err != nil {
		return err
	}
	if err := w.SetSchema(schema); err != nil {
		return err
	}

	replaced := 0
	it := r.Iterate()
	defer it.Close()
	for it.Next() {
		rec := it.Record()
		if v := rec.Get(field); !v.IsAbsent() {
			if nv, ok := table[v.String()]; ok {
				if err := rec.Set(field, nv); err != nil {
					return err
				}
				replaced++
			}
		}
		if err := w.WriteRecord(it.Geometry(), rec); err != nil {
			return err
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	glog.V(1).Infof("replaced %d values of %s in %d records", replaced, field, r.NumRecords())
	return nil
}

// replacementTable parses OLD NEW pairs as values of f, keyed by the
// display form of OLD. A repeated OLD keeps its last NEW.
func replacementTable(f shp.Field, pairs []string) (map[string]shp.Value, error) {
	table := make(map[string]shp.Value, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		oldVal, err := shp.ParseValue(f, pairs[i])
		if err != nil {
			return nil, errors.Wrapf(err, "replacement %q", pairs[i])
		}
		newVal, err := shp.ParseValue(f, pairs[i+1])
		if err != nil {
			return nil, errors.Wrapf(err, "replacement %q", pairs[i+1])
		}
		if oldVal.IsAbsent() {
			glog.Warningf("ignoring replacement of blank value by %q", pairs[i+1])
			continue
		}
		table[oldVal.String()] = newVal
	}
	return table, nil
}

func samePath(a, b string) bool {
	a, errA := filepath.Abs(shp.SidecarPath(a, ".shp"))
	b, errB := filepath.Abs(shp.SidecarPath(b, ".shp"))
	return errA == nil && errB == nil && a == b
}

func copySidecars(src, dst string) error {
	for _, ext := range sidecarExts {
		from, to := shp.SidecarPath(src, ext), shp.SidecarPath(dst, ext)
		data, err := os.ReadFile(from)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "copying %s", from)
		}
		if err := os.WriteFile(to, data, 0644); err != nil {
			return errors.Wrapf(err, "copying %s", from)
		}
		glog.V(1).Infof("copied %s to %s", from, to)
	}
	return nil
}
