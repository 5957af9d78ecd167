package main

import (
	"github.com/arbakker/pdok-services/internal/batch"
	"github.com/arbakker/pdok-services/internal/providers/locatieserver"

	"github.com/spf13/cobra"
)

func NewCmdGeocode(c *cli) *cobra.Command {
	var (
		layer          layerFlags
		field          string
		resultType     string
		targetCRS      string
		actualGeometry bool
		addXY          bool
		addDisplayName bool
		scoreThreshold float64
	)

	cmd := &cobra.Command{
		Use:   "geocode",
		Short: "Geocode the values of a field with the Locatieserver",
		Example: `  pdok geocode -i addresses.csv -o addresses.geojson --field adres --type adres
  pdok geocode -i places.csv -o places.geojson --field naam --type woonplaats --actual-geometry --target-crs EPSG:28992`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := locatieserver.ParseResultType(resultType)
			if err != nil {
				return err
			}
			target, err := c.targetEPSG(targetCRS)
			if err != nil {
				return err
			}

			params := batch.GeocoderParams{
				SourceField:    field,
				ResultType:     rt,
				TargetEPSG:     target,
				ActualGeometry: actualGeometry,
				AddXY:          addXY,
				AddDisplayName: addDisplayName,
			}
			if cmd.Flags().Changed("score-threshold") {
				params.ScoreThreshold = &scoreThreshold
			}

			in, err := c.readLayer(layer)
			if err != nil {
				return err
			}
			tools, err := c.tools()
			if err != nil {
				return err
			}
			out, err := tools.Geocode(cmd.Context(), in, params)
			if err != nil {
				return err
			}
			return c.writeLayer(layer, out)
		},
	}

	layer.register(cmd)
	cmd.Flags().StringVarP(&field, "field", "f", "", "Field holding the text to geocode")
	cmd.Flags().StringVarP(&resultType, "type", "t", string(locatieserver.Adres), "Result type (adres, gemeente, postcode, weg, woonplaats)")
	cmd.Flags().StringVar(&targetCRS, "target-crs", "", "CRS of the output geometries (default batch.targetCRS)")
	cmd.Flags().BoolVar(&actualGeometry, "actual-geometry", false, "Write the full geometry instead of the centroid")
	cmd.Flags().BoolVar(&addXY, "add-xy", false, "Add x and y attributes holding the centroid")
	cmd.Flags().BoolVar(&addDisplayName, "add-display-name", false, "Add the weergavenaam attribute")
	cmd.Flags().Float64Var(&scoreThreshold, "score-threshold", 0, "Skip rows whose best match scores at or below this value")
	_ = cmd.MarkFlagRequired("field")

	return cmd
}
