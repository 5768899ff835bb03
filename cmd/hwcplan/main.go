// Command hwcplan runs one frame of the composer core against a real
// DRM device: it allocates dumb buffers for the layers listed in its
// configuration, imports them through the configured importer and
// prints which layers land on which planes.
package main

import (
	"os"

	"github.com/NeowayLabs/drmhwc/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "hwcplan",
		Short:         "Plan hardware plane usage for a set of test layers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	root.AddCommand(infoCmd(), planCmd())

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("hwcplan failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	c := config.Default()
	if configPath != "" {
		var err error
		if c, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}
	lvl, err := c.Level()
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return c, nil
}
