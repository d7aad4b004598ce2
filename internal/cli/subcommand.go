package cli

import (
	"github.com/Ulysses-Xu/go-shp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "SHPUTIL"

// SubCommand pairs a command with the viper instance its flags are
// bound to.
type SubCommand struct {
	Cmd  *cobra.Command
	Conf *viper.Viper

	EnvPrefix string
}

func newSubCommand(cmd *cobra.Command) *SubCommand {
	return &SubCommand{Cmd: cmd, EnvPrefix: envPrefix}
}

// options turns the global flags into codec options. title labels the
// progress display, if one was requested.
func (s *SubCommand) options(title string) []shp.Option {
	opts := []shp.Option{shp.WithEncoding(s.Conf.GetString("encoding"))}
	if s.Conf.GetBool("progress") {
		opts = append(opts, shp.WithProgress(newProgress(s.Cmd.ErrOrStderr(), title)))
	}
	return opts
}
