package main

import (
	"fmt"

	"github.com/arbakker/pdok-services/internal/batch"

	"github.com/spf13/cobra"
)

const defaultCoverage = "dtm_05m"

func NewCmdElevation(c *cli) *cobra.Command {
	var (
		layer      layerFlags
		coverageID string
		attribute  string
		targetCRS  string
	)

	cmd := &cobra.Command{
		Use:     "elevation",
		Short:   "Sample an AHN coverage at every point",
		Example: `  pdok elevation -i points.csv -o heights.geojson --input-crs EPSG:28992 --coverage dsm_05m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := c.targetEPSG(targetCRS)
			if err != nil {
				return err
			}

			in, err := c.readLayer(layer)
			if err != nil {
				return err
			}
			tools, err := c.tools()
			if err != nil {
				return err
			}
			out, err := tools.Elevation(cmd.Context(), in, batch.ElevationParams{
				CoverageID:    coverageID,
				AttributeName: attribute,
				TargetEPSG:    target,
			})
			if err != nil {
				return err
			}
			return c.writeLayer(layer, out)
		},
	}

	layer.register(cmd)
	cmd.Flags().StringVar(&coverageID, "coverage", defaultCoverage, "AHN coverage id, see the coverages command")
	cmd.Flags().StringVarP(&attribute, "attribute", "a", "", "Name of the added attribute (default elevation)")
	cmd.Flags().StringVar(&targetCRS, "target-crs", "", "CRS of the output geometries (default batch.targetCRS)")

	return cmd
}

func NewCmdCoverages(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "coverages",
		Short: "List the AHN coverages",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services()
			if err != nil {
				return err
			}
			ids, err := svc.Elevation.CoverageIDs(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, err := fmt.Fprintln(c.out, id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
