package cli

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/Ulysses-Xu/go-shp"
	"github.com/golang/glog"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func toGeoJSONCommand() *SubCommand {
	sc := newSubCommand(&cobra.Command{
		Use:   "to-geojson SHP_FILE",
		Short: "Export a shapefile as a GeoJSON FeatureCollection",
		Long: `
Export every record of SHP_FILE as a GeoJSON feature whose properties are
the record's attributes. Output goes to stdout unless --out names a file;
a file name ending in .gz is gzip compressed.`,
		Args: cobra.ExactArgs(1),
	})
	sc.Cmd.Flags().StringP("out", "o", "-", "Output file, - for stdout.")
	sc.Cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runToGeoJSON(sc, args[0], sc.Conf.GetString("out"))
	}
	return sc
}

// output is the destination of an export: a buffered, possibly
// compressed, file or stdout.
type output struct {
	bw *bufio.Writer
	gz *gzip.Writer
	f  *os.File
}

func createOutput(path string, stdout io.Writer) (*output, error) {
	if path == "" || path == "-" {
		return &output{bw: bufio.NewWriter(stdout)}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "creating output")
	}
	o := &output{f: f}
	if strings.HasSuffix(path, ".gz") {
		o.gz = gzip.NewWriter(f)
		o.bw = bufio.NewWriter(o.gz)
	} else {
		o.bw = bufio.NewWriter(f)
	}
	return o, nil
}

func (o *output) Close() error {
	err := o.bw.Flush()
	if o.gz != nil {
		if cerr := o.gz.Close(); err == nil {
			err = cerr
		}
	}
	if o.f != nil {
		if cerr := o.f.Close(); err == nil {
			err = cerr
		}
	}
	return errors.Wrap(err, "writing output")
}

func runToGeoJSON(sc *SubCommand, path, outPath string) (err error) {
	r, err := shp.OpenFile(path, sc.options("Exporting records")...)
	if err != nil {
		return err
	}
	defer r.Close()

	out, err := createOutput(outPath, sc.Cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil && out.f != nil {
			_ = os.Remove(out.f.Name())
		}
	}()

	gw := shp.NewGeoJSONWriter(out.bw)
	it := r.Iterate()
	defer it.Close()
	for it.Next() {
		if err := gw.Write(it.Index(), it.Geometry(), it.Record()); err != nil {
			return err
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	if err := gw.Close(); err != nil {
		return err
	}
	glog.V(1).Infof("exported %d records of %s", r.NumRecords(), path)
	return nil
}
