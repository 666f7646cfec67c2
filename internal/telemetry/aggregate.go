package telemetry

import (
	"sort"
	"time"

	"github.com/citysense/citysense-core/internal/reading"
)

// bucketLayout formats a minute-truncated timestamp as the bucket key.
const bucketLayout = "2006-01-02 15:04"

// Row is one time bucket of the aggregated series: a minute-resolution
// label and the latest value seen per sensor type within that minute.
type Row struct {
	Time   time.Time                      `json:"time"`
	Bucket string                         `json:"bucket"`
	Values map[reading.SensorType]float64 `json:"values"`
}

// Aggregate folds readings into minute buckets, ordered oldest first.
// Within a bucket the chronologically latest reading of each sensor
// type wins. The input slice is not modified.
func Aggregate(readings []reading.Reading) []Row {
	if len(readings) == 0 {
		return nil
	}

	sorted := make([]reading.Reading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var rows []Row
	index := make(map[string]int)
	for _, r := range sorted {
		bucket := r.Timestamp.Truncate(time.Minute)
		key := bucket.Format(bucketLayout)

		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, Row{
				Time:   bucket,
				Bucket: key,
				Values: make(map[reading.SensorType]float64),
			})
		}
		rows[i].Values[r.SensorType] = r.Value
	}
	return rows
}

// Summary describes a series of readings for one sensor type.
type Summary struct {
	Current float64 `json:"current"`
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
}

// Summarize computes the summary for readings of the given sensor
// type. Readings of other types are ignored. The second return is
// false when no matching reading exists.
func Summarize(readings []reading.Reading, t reading.SensorType) (Summary, bool) {
	var (
		matched []reading.Reading
		sum     float64
	)
	for _, r := range readings {
		if r.SensorType != t {
			continue
		}
		matched = append(matched, r)
		sum += r.Value
	}
	if len(matched) == 0 {
		return Summary{}, false
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})

	s := Summary{
		Current: matched[len(matched)-1].Value,
		Average: sum / float64(len(matched)),
		Max:     matched[0].Value,
		Min:     matched[0].Value,
	}
	for _, r := range matched[1:] {
		if r.Value > s.Max {
			s.Max = r.Value
		}
		if r.Value < s.Min {
			s.Min = r.Value
		}
	}
	return s, true
}
