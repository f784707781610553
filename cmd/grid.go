package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/visibility-audit/internal/geogrid"
	"github.com/sells-group/visibility-audit/internal/model"
)

var (
	gridLat    float64
	gridLng    float64
	gridRadius float64
	gridSize   int
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Print the sampling grid for a coordinate (debugging aid)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cells, err := geogrid.Generate(model.Location{Lat: gridLat, Lng: gridLng}, gridRadius, gridSize)
		if err != nil {
			return err
		}

		for _, c := range cells {
			fmt.Printf("(%d,%d)  %.6f, %.6f\n", c.Row, c.Col, c.Lat, c.Lng)
		}
		return nil
	},
}

func init() {
	gridCmd.Flags().Float64Var(&gridLat, "lat", 0, "center latitude")
	gridCmd.Flags().Float64Var(&gridLng, "lng", 0, "center longitude")
	gridCmd.Flags().Float64Var(&gridRadius, "radius", geogrid.DefaultRadiusMeters, "radius in meters")
	gridCmd.Flags().IntVar(&gridSize, "size", geogrid.DefaultSize, "grid dimension (odd, >= 3)")
	_ = gridCmd.MarkFlagRequired("lat")
	_ = gridCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(gridCmd)
}
