package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"Horacle/internal/di"
	"Horacle/internal/domain/models"
	"Horacle/pkg/config"
)

// predictCmd runs one prediction without starting any server.
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run a single prediction and print the result as JSON",
	Long: `Run a single prediction against the configured ephemeris service.
The request comes from a JSON file or from flags; flags override the file.

Examples:
  horacle predict --request request.json
  horacle predict --date 1990-04-12 --time 06:30 --lat 28.61 --lon 77.21 \
    --tz Asia/Kolkata --start 2026-01-01 --end 2027-12-31 --min-prob 70`,
	RunE: runPredict,
}

// requestFlags holds the request file and per-field overrides shared by the
// commands that build a prediction request.
type requestFlags struct {
	file    string
	minProb int
	req     models.PredictionRequest
}

func (rf *requestFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&rf.file, "request", "", "request JSON file")
	f.StringVar(&rf.req.Birth.Date, "date", "", "birth date YYYY-MM-DD")
	f.StringVar(&rf.req.Birth.Time, "time", "", "birth time HH:MM")
	f.Float64Var(&rf.req.Birth.Latitude, "lat", 0, "birth latitude")
	f.Float64Var(&rf.req.Birth.Longitude, "lon", 0, "birth longitude")
	f.StringVar(&rf.req.Birth.Timezone, "tz", "", "birth timezone (IANA name or +HH:MM)")
	f.StringVar(&rf.req.StartDate, "start", "", "window start YYYY-MM-DD")
	f.StringVar(&rf.req.EndDate, "end", "", "window end YYYY-MM-DD")
	f.IntVar(&rf.minProb, "min-prob", 0, "minimum probability 0-100 (default from config)")
	f.StringVar(&rf.req.RequestID, "request-id", "", "request id")
}

var (
	predictFlags      requestFlags
	predictOutputFile string
)

func init() {
	rootCmd.AddCommand(predictCmd)

	predictFlags.register(predictCmd)
	predictCmd.Flags().StringVar(&predictOutputFile, "output", "", "output file (default: stdout)")
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	req, err := predictFlags.build(cmd, cfg.Prediction.DefaultMinProbability)
	if err != nil {
		return err
	}

	svc, cleanup, err := di.InitializePredictionService(cfg)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer cleanup()

	res, err := svc.Predict(context.Background(), req)
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}
	return writeJSON(predictOutputFile, res)
}

// build loads the optional request file, overlays the flags the user
// actually set, and falls back to minProb when no threshold was given.
func (rf *requestFlags) build(cmd *cobra.Command, minProb int) (models.PredictionRequest, error) {
	var req models.PredictionRequest
	if rf.file != "" {
		b, err := os.ReadFile(rf.file)
		if err != nil {
			return req, fmt.Errorf("read request: %w", err)
		}
		if err := json.Unmarshal(b, &req); err != nil {
			return req, fmt.Errorf("decode request: %w", err)
		}
	}

	set := cmd.Flags().Changed
	if set("date") {
		req.Birth.Date = rf.req.Birth.Date
	}
	if set("time") {
		req.Birth.Time = rf.req.Birth.Time
	}
	if set("lat") {
		req.Birth.Latitude = rf.req.Birth.Latitude
	}
	if set("lon") {
		req.Birth.Longitude = rf.req.Birth.Longitude
	}
	if set("tz") {
		req.Birth.Timezone = rf.req.Birth.Timezone
	}
	if set("start") {
		req.StartDate = rf.req.StartDate
	}
	if set("end") {
		req.EndDate = rf.req.EndDate
	}
	if set("min-prob") {
		v := rf.minProb
		req.MinProbability = &v
	}
	if req.MinProbability == nil {
		req.MinProbability = &minProb
	}
	if set("request-id") {
		req.RequestID = rf.req.RequestID
	}
	return req, nil
}

func writeJSON(path string, v interface{}) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
