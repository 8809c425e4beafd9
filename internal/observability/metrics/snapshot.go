package metrics

import (
	"math"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const metricPrefix = namespace + "_" + subsystem + "_"

// FulfillmentSnapshot is a JSON friendly view of the fulfillment counters.
type FulfillmentSnapshot struct {
	TurnsByDirective    map[string]int64 `json:"turnsByDirective"`
	TurnsByPhase        map[string]int64 `json:"turnsByPhase"`
	ValidationFailures  map[string]int64 `json:"validationFailures"`
	Bookings            map[string]int64 `json:"bookings"`
	AvailabilityLookups map[string]int64 `json:"availabilityLookups"`
	TurnLatency         LatencySnapshot  `json:"turnLatency"`
}

// LatencySnapshot summarizes the turn latency histogram across phases.
type LatencySnapshot struct {
	Total int64   `json:"total"`
	P50Ms float64 `json:"p50Ms"`
	P95Ms float64 `json:"p95Ms"`
}

// Snapshot reads the current values from gatherer. Missing families yield
// empty maps; a gather error yields an empty snapshot.
func Snapshot(gatherer prometheus.Gatherer) FulfillmentSnapshot {
	out := FulfillmentSnapshot{
		TurnsByDirective:    map[string]int64{},
		TurnsByPhase:        map[string]int64{},
		ValidationFailures:  map[string]int64{},
		Bookings:            map[string]int64{},
		AvailabilityLookups: map[string]int64{},
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return out
	}

	for _, mf := range mfs {
		if mf == nil {
			continue
		}
		switch mf.GetName() {
		case metricPrefix + "turns_total":
			sumCounterBy(mf, "directive", out.TurnsByDirective)
			sumCounterBy(mf, "phase", out.TurnsByPhase)
		case metricPrefix + "validation_failures_total":
			sumCounterBy(mf, "slot", out.ValidationFailures)
		case metricPrefix + "bookings_total":
			sumCounterBy(mf, "status", out.Bookings)
		case metricPrefix + "availability_lookups_total":
			sumCounterBy(mf, "source", out.AvailabilityLookups)
		case metricPrefix + "turn_latency_seconds":
			out.TurnLatency = summarizeLatency(mf)
		}
	}
	return out
}

func sumCounterBy(mf *dto.MetricFamily, label string, into map[string]int64) {
	for _, metric := range mf.Metric {
		if metric == nil || metric.GetCounter() == nil {
			continue
		}
		key := labelValue(metric, label)
		into[key] += int64(metric.GetCounter().GetValue())
	}
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.Label {
		if lp == nil {
			continue
		}
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func summarizeLatency(mf *dto.MetricFamily) LatencySnapshot {
	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64

	for _, metric := range mf.Metric {
		if metric == nil {
			continue
		}
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		sampleCount += h.GetSampleCount()
		for _, b := range h.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if sampleCount == 0 || len(cumulativeByUpper) == 0 {
		return LatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	return LatencySnapshot{
		Total: int64(sampleCount),
		P50Ms: histogramQuantile(0.50, sampleCount, uppers, cumulativeByUpper) * 1000.0,
		P95Ms: histogramQuantile(0.95, sampleCount, uppers, cumulativeByUpper) * 1000.0,
	}
}

// histogramQuantile interpolates linearly inside the bucket holding the
// q-th sample.
func histogramQuantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	if total == 0 || q <= 0 {
		return 0
	}
	if q >= 1 {
		for i := len(uppers) - 1; i >= 0; i-- {
			if !math.IsInf(uppers[i], 1) {
				return uppers[i]
			}
		}
		return 0
	}

	target := q * float64(total)
	var prevUpper, prevCum float64
	for _, upper := range uppers {
		cum := float64(cumulativeByUpper[upper])
		if cum < target {
			prevUpper = upper
			prevCum = cum
			continue
		}
		bucketCount := cum - prevCum
		if bucketCount <= 0 || upper == prevUpper {
			return upper
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}
		fraction := math.Min(math.Max((target-prevCum)/bucketCount, 0), 1)
		return prevUpper + fraction*(upper-prevUpper)
	}
	return uppers[len(uppers)-1]
}
