package main

import (
	"encoding/json"
	"fmt"
	"os"

	"drtdispatch/corpus"
	"drtdispatch/geo"
	"drtdispatch/routing"

	"github.com/spf13/cobra"
)

var recomputeSpeedKmph float64

var recomputeDistancesCmd = &cobra.Command{
	Use:   "recompute-distances <stops.json> <routes.json>",
	Short: "Rebuild an all-pairs routes corpus from a stops corpus using geodesic distance",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecomputeDistances,
}

func init() {
	recomputeDistancesCmd.Flags().Float64Var(&recomputeSpeedKmph, "speed-kmph", 30.0, "assumed driving speed used to derive duration_s from distance")
}

func runRecomputeDistances(cmd *cobra.Command, args []string) error {
	stopsPath, outPath := args[0], args[1]

	f, err := os.Open(stopsPath)
	if err != nil {
		return fmt.Errorf("opening stops corpus: %w", err)
	}
	defer f.Close()
	points, err := corpus.LoadStops(f)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(points))
	for id := range points {
		ids = append(ids, id)
	}

	out := make(map[string]routing.Entry, len(ids)*(len(ids)-1))
	for _, aID := range ids {
		for _, bID := range ids {
			if aID == bID {
				continue
			}
			a, b := points[aID], points[bID]
			key := geo.PairKey(a, b)
			if _, ok := out[key]; ok {
				continue
			}
			distKM := geo.GeodesicKM(a, b)
			out[key] = routing.Entry{
				Path:      []geo.Coords{a, b},
				DistanceM: distKM * 1000,
				DurationS: distKM / recomputeSpeedKmph * 3600,
			}
		}
	}

	raw, err := json.MarshalIndent(rawRoutesCorpus(out), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding routes corpus: %w", err)
	}
	if err := os.WriteFile(outPath, raw, 0o644); err != nil {
		return fmt.Errorf("writing routes corpus: %w", err)
	}
	fmt.Printf("wrote %d pairwise routes to %s\n", len(out), outPath)
	return nil
}

// rawRoutesCorpus mirrors the on-disk routes-corpus shape: path points
// stored as [lat, lon], the convention corpus.LoadRoutes expects.
func rawRoutesCorpus(entries map[string]routing.Entry) map[string]any {
	out := make(map[string]any, len(entries))
	for key, e := range entries {
		path := make([][2]float64, len(e.Path))
		for i, p := range e.Path {
			path[i] = [2]float64{p.Lat, p.Lon}
		}
		out[key] = map[string]any{
			"path":        path,
			"distance_m":  e.DistanceM,
			"duration_s":  e.DurationS,
		}
	}
	return out
}
