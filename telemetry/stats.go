package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Units at window end
	Macrophages int `csv:"macrophages"`
	Civilians   int `csv:"civilians"`
	Infected    int `csv:"infected"`
	Orders      int `csv:"orders"`

	// Events during window
	Hops          int `csv:"hops"`
	Arrivals      int `csv:"arrivals"`
	Cancellations int `csv:"cancellations"`
	BlockedTicks  int `csv:"blocked_ticks"`
	Infections    int `csv:"infections"`
	Crushes       int `csv:"crushes"`
	Spawns        int `csv:"spawns"`
	Removals      int `csv:"removals"`

	// Pathfinding during window
	PathSearches int `csv:"path_searches"`
	PathFailures int `csv:"path_failures"`

	// Substances at window end
	VirusTotal    float64 `csv:"virus_total"`
	AntibodyTotal float64 `csv:"antibody_total"`
	InfectedTiles int     `csv:"infected_tiles"`
	VirusMean     float64 `csv:"virus_mean"` // over infected tiles
	VirusP50      float64 `csv:"virus_p50"`
	VirusP90      float64 `csv:"virus_p90"`

	// Fog
	VisibleFrac float64 `csv:"visible_frac"` // visible / floor tiles
}

// ComputeDistribution returns the mean and the empirical median and 90th
// percentile of values. It returns zeros for an empty slice.
func ComputeDistribution(values []float64) (mean, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mean = stat.Mean(sorted, nil)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return mean, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("macrophages", s.Macrophages),
		slog.Int("civilians", s.Civilians),
		slog.Int("infected", s.Infected),
		slog.Int("orders", s.Orders),
		slog.Int("hops", s.Hops),
		slog.Int("arrivals", s.Arrivals),
		slog.Int("cancellations", s.Cancellations),
		slog.Int("blocked_ticks", s.BlockedTicks),
		slog.Int("infections", s.Infections),
		slog.Int("crushes", s.Crushes),
		slog.Int("spawns", s.Spawns),
		slog.Int("removals", s.Removals),
		slog.Int("path_searches", s.PathSearches),
		slog.Int("path_failures", s.PathFailures),
		slog.Float64("virus_total", s.VirusTotal),
		slog.Float64("antibody_total", s.AntibodyTotal),
		slog.Int("infected_tiles", s.InfectedTiles),
		slog.Float64("virus_mean", s.VirusMean),
		slog.Float64("virus_p50", s.VirusP50),
		slog.Float64("virus_p90", s.VirusP90),
		slog.Float64("visible_frac", s.VisibleFrac),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
