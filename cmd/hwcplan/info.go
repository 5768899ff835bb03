package main

import (
	"fmt"

	drm "github.com/NeowayLabs/drmhwc"
	"github.com/NeowayLabs/drmhwc/kms"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print driver version, capabilities and planes",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			dev, err := kms.Open(c.Device)
			if err != nil {
				return err
			}
			defer dev.Close()

			v, err := drm.GetVersion(dev.File())
			if err != nil {
				return errors.Annotate(err, "version")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "driver: %s\n", v)
			fmt.Fprintf(out, "dumb buffers: %v\n", drm.HasDumbBuffer(dev.File()))
			fmt.Fprintf(out, "prime import: %v\n", drm.HasPrimeImport(dev.File()))

			planes, err := dev.Planes(kms.Options{
				CrtcIndex:     c.Display.CrtcIndex,
				Screen:        c.Screen(),
				ScalingPlanes: c.Display.ScalingPlanes,
			})
			if err != nil {
				return err
			}
			for _, p := range planes {
				fmt.Fprintf(out, "%v: scale=%v position=%v formats=%v\n",
					p, p.CanScale, p.CanPosition, p.Formats)
			}
			return nil
		},
	}
}
