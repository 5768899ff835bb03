package main

import (
	"fmt"

	"github.com/NeowayLabs/drmhwc/hwc"
	"github.com/NeowayLabs/drmhwc/importer"
	"github.com/NeowayLabs/drmhwc/kms"
	"github.com/NeowayLabs/drmhwc/planner"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Import the configured test layers and plan one frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			if len(c.Layers) == 0 {
				return errors.NotValidf("no layers configured")
			}

			dev, err := kms.Open(c.Device)
			if err != nil {
				return err
			}
			defer dev.Close()

			variant, err := c.Variant()
			if err != nil {
				return err
			}
			im, err := importer.New(variant, dev, c.Module(),
				importer.WithExpectedAuthor(c.Importer.ExpectedAuthor))
			if err != nil {
				return err
			}

			stages, err := c.Stages()
			if err != nil {
				return err
			}
			planes, err := dev.Planes(kms.Options{
				CrtcIndex:     c.Display.CrtcIndex,
				Screen:        c.Screen(),
				ScalingPlanes: c.Display.ScalingPlanes,
			})
			if err != nil {
				return err
			}

			pool, err := openBufferPool(c.Device)
			if err != nil {
				return err
			}
			defer pool.Close()
			var reqs []hwc.LayerRequest
			for _, l := range c.Layers {
				tl, err := l.Request()
				if err != nil {
					return err
				}
				h, err := pool.Allocate(tl)
				if err != nil {
					return errors.Annotatef(err, "layer %d", tl.ID)
				}
				reqs = append(reqs, hwc.LayerRequest{
					ID:     tl.ID,
					ZOrder: tl.Z,
					Kind:   tl.Kind,
					Blend:  tl.Blend,
					Dst:    tl.Dst,
					Handle: h,
				})
			}

			composer := &hwc.Composer{
				Importer: im,
				Planner:  planner.New(stages...),
			}
			frame, err := composer.Prepare(reqs, planes)
			if err != nil {
				return err
			}
			defer frame.Release()

			out := cmd.OutOrStdout()
			for _, a := range frame.Plan.Assignments {
				target := "gpu"
				if !a.Composited() {
					target = a.Plane.String()
				}
				fb := uint32(0)
				if bo := frame.Buffers[a.Layer.ID]; bo != nil {
					fb = bo.FbID
				}
				fmt.Fprintf(out, "%v fb=%d -> %s\n", a.Layer, fb, target)
			}
			logrus.WithFields(logrus.Fields{
				"layers":  len(reqs),
				"planes":  len(planes),
				"claimed": len(frame.Plan.Claimed()),
			}).Info("frame planned")
			return nil
		},
	}
}
