// Package report writes the end-of-run JSON outputs (vehicle and
// customer itineraries) and a human-readable console summary, the same
// way a batch simulator writes a timestamped report file and prints a
// summary to stdout.
package report

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"drtdispatch/model"
	"drtdispatch/scheduler"
)

// Summary carries end-of-run aggregates for the console report.
type Summary struct {
	RequestsGenerated int
	RequestsAccepted  int
	RequestsRejected  int
	VehicleKms        map[string]float64
}

// WriteVehicleItineraries writes vehicle_id -> ordered stop list to
// outDir/vehicle_itineraries-<timestamp>.json and returns that path. If
// outDir is empty, writing is
// skipped and the empty string is returned.
func WriteVehicleItineraries(outDir string, sched *scheduler.Scheduler, vehicleIDs []string) (string, error) {
	if outDir == "" {
		return "", nil
	}
	out := make(map[string][]*model.Stop, len(vehicleIDs))
	for _, id := range vehicleIDs {
		it, ok := sched.Itinerary(id)
		if !ok {
			continue
		}
		out[id] = it.Stops
	}
	return writeTimestampedJSON(outDir, "vehicle_itineraries.json", out)
}

// WriteCustomerItineraries writes passenger_id -> [pickup, dropoff] (or
// an empty list for a rejected request) to
// outDir/customer_itineraries-<timestamp>.json.
func WriteCustomerItineraries(outDir string, sched *scheduler.Scheduler) (string, error) {
	if outDir == "" {
		return "", nil
	}
	out := map[string][]*model.Stop{}
	for _, req := range sched.Scheduled() {
		out[req.PassengerID] = []*model.Stop{req.Spu, req.Ssd}
	}
	for _, req := range sched.Rejected() {
		out[req.PassengerID] = []*model.Stop{}
	}
	return writeTimestampedJSON(outDir, "customer_itineraries.json", out)
}

func writeTimestampedJSON(dir, name string, v any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory %s: %w", dir, err)
	}
	ts := time.Now().Format("20060102-150405")
	ext := filepath.Ext(name)
	base := name[:len(name)-len(ext)]
	outPath := filepath.Join(dir, fmt.Sprintf("%s-%s%s", base, ts, ext))

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("creating report file %s: %w", outPath, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding %s: %w", outPath, err)
	}
	log.Printf("report written to %s", outPath)
	return outPath, nil
}

// PrintConsole prints a human-readable run summary to stdout.
func PrintConsole(sum Summary) {
	fmt.Println("=== Dispatch Report ===")
	fmt.Printf("Requests generated: %d\n", sum.RequestsGenerated)
	fmt.Printf("Requests accepted:  %d\n", sum.RequestsAccepted)
	fmt.Printf("Requests rejected:  %d\n", sum.RequestsRejected)
	total := 0.0
	for id, km := range sum.VehicleKms {
		fmt.Printf("Vehicle %s: %.2f km\n", id, km)
		total += km
	}
	fmt.Printf("Total fleet distance: %.2f km\n", total)
}
