package cli

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "shputil",
	Short: "Inspect and edit ESRI shapefiles",
	Long: `
shputil lists the fields and field values of a shapefile, replaces
attribute values in bulk while copying geometry unchanged, and exports
shapefiles to GeoJSON.`,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Arguments are valid by now; further errors are not usage errors.
		cmd.SilenceUsage = true
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

// run executes the command line in args. Go flags such as glog's -v are
// parsed by cobra through pflag, wherever they appear; the go flag set is
// only marked parsed so glog does not complain.
func run(args []string) error {
	if err := goflag.CommandLine.Parse(nil); err != nil {
		return err
	}
	RootCmd.SetArgs(args)
	return RootCmd.Execute()
}

var rootConf = viper.New()

func init() {
	RootCmd.PersistentFlags().String("config", "",
		"Configuration file. Takes precedence over default values, but is "+
			"overridden to values set with environment variables and flags.")
	RootCmd.PersistentFlags().String("encoding", "",
		"Character set of DBF text fields, e.g. gbk or latin1. Text is passed through by default.")
	RootCmd.PersistentFlags().Bool("progress", false,
		"Report record progress on stderr.")
	_ = rootConf.BindPFlags(RootCmd.PersistentFlags())

	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)

	var subcommands = []*SubCommand{
		infoCommand(), listFieldsCommand(), listFieldValuesCommand(),
		replaceFieldValuesCommand(), toGeoJSONCommand(), versionCommand(),
	}
	for _, sc := range subcommands {
		RootCmd.AddCommand(sc.Cmd)
		sc.Conf = viper.New()
		_ = sc.Conf.BindPFlags(sc.Cmd.Flags())
		_ = sc.Conf.BindPFlags(RootCmd.PersistentFlags())
		sc.Conf.AutomaticEnv()
		sc.Conf.SetEnvPrefix(sc.EnvPrefix)
	}
	cobra.OnInitialize(func() {
		cfg := rootConf.GetString("config")
		if cfg == "" {
			return
		}
		for _, sc := range subcommands {
			sc.Conf.SetConfigFile(cfg)
			if err := sc.Conf.ReadInConfig(); err != nil {
				glog.Exitf("%v", errors.Wrap(err, "reading config"))
			}
		}
	})
}
