package main

import (
	"github.com/arbakker/pdok-services/internal/batch"
	"github.com/arbakker/pdok-services/internal/providers/locatieserver"

	"github.com/spf13/cobra"
)

func NewCmdReverseGeocode(c *cli) *cobra.Command {
	var (
		layer             layerFlags
		resultType        string
		attribute         string
		distanceThreshold float64
	)

	cmd := &cobra.Command{
		Use:     "reverse-geocode",
		Short:   "Add the name of the nearest Locatieserver record to every point",
		Example: `  pdok reverse-geocode -i points.csv -o points.geojson --input-crs EPSG:28992 --type woonplaats --distance-threshold 500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := batch.ReverseGeocoderParams{
				ResultType:    locatieserver.ResultType(resultType),
				AttributeName: attribute,
			}
			if cmd.Flags().Changed("distance-threshold") {
				params.DistanceThreshold = &distanceThreshold
			}

			in, err := c.readLayer(layer)
			if err != nil {
				return err
			}
			tools, err := c.tools()
			if err != nil {
				return err
			}
			out, err := tools.ReverseGeocode(cmd.Context(), in, params)
			if err != nil {
				return err
			}
			return c.writeLayer(layer, out)
		},
	}

	layer.register(cmd)
	cmd.Flags().StringVarP(&resultType, "type", "t", string(locatieserver.Adres), "Result type")
	cmd.Flags().StringVarP(&attribute, "attribute", "a", "", "Name of the added attribute (default the result type)")
	cmd.Flags().Float64Var(&distanceThreshold, "distance-threshold", 0, "Leave the attribute empty when the nearest record is further away, in metres")

	return cmd
}
