package telemetry

import (
	"testing"
	"time"

	"github.com/citysense/citysense-core/internal/reading"
)

func at(min, sec int) time.Time {
	return time.Date(2026, 8, 27, 14, min, sec, 0, time.UTC)
}

func TestAggregate_BucketsByMinute(t *testing.T) {
	readings := []reading.Reading{
		{SensorType: reading.SensorTemperature, Value: 21.0, Timestamp: at(5, 10)},
		{SensorType: reading.SensorHumidity, Value: 60.0, Timestamp: at(5, 40)},
		{SensorType: reading.SensorTemperature, Value: 22.5, Timestamp: at(6, 0)},
	}

	rows := Aggregate(readings)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	if rows[0].Bucket != "2026-08-27 14:05" {
		t.Errorf("rows[0].Bucket = %q", rows[0].Bucket)
	}
	if rows[0].Values[reading.SensorTemperature] != 21.0 {
		t.Errorf("rows[0] temperature = %v", rows[0].Values[reading.SensorTemperature])
	}
	if rows[0].Values[reading.SensorHumidity] != 60.0 {
		t.Errorf("rows[0] humidity = %v", rows[0].Values[reading.SensorHumidity])
	}
	if rows[1].Bucket != "2026-08-27 14:06" {
		t.Errorf("rows[1].Bucket = %q", rows[1].Bucket)
	}
	if len(rows[1].Values) != 1 || rows[1].Values[reading.SensorTemperature] != 22.5 {
		t.Errorf("rows[1].Values = %v", rows[1].Values)
	}
}

func TestAggregate_LatestInBucketWins(t *testing.T) {
	// Out of chronological order on purpose.
	readings := []reading.Reading{
		{SensorType: reading.SensorTemperature, Value: 23.0, Timestamp: at(5, 50)},
		{SensorType: reading.SensorTemperature, Value: 21.0, Timestamp: at(5, 5)},
	}

	rows := Aggregate(readings)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if got := rows[0].Values[reading.SensorTemperature]; got != 23.0 {
		t.Errorf("value = %v, want latest 23.0", got)
	}
}

func TestAggregate_RowsOldestFirst(t *testing.T) {
	readings := []reading.Reading{
		{SensorType: reading.SensorNoise, Value: 44, Timestamp: at(9, 0)},
		{SensorType: reading.SensorNoise, Value: 41, Timestamp: at(3, 0)},
		{SensorType: reading.SensorNoise, Value: 42, Timestamp: at(7, 0)},
	}

	rows := Aggregate(readings)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if !rows[i-1].Time.Before(rows[i].Time) {
			t.Errorf("rows not ascending at %d: %v then %v", i, rows[i-1].Time, rows[i].Time)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	if rows := Aggregate(nil); rows != nil {
		t.Errorf("Aggregate(nil) = %v, want nil", rows)
	}
}

func TestSummarize(t *testing.T) {
	readings := []reading.Reading{
		{SensorType: reading.SensorTemperature, Value: 10, Timestamp: at(1, 0)},
		{SensorType: reading.SensorTemperature, Value: 20, Timestamp: at(2, 0)},
		{SensorType: reading.SensorTemperature, Value: 30, Timestamp: at(3, 0)},
		{SensorType: reading.SensorHumidity, Value: 99, Timestamp: at(2, 30)},
	}

	s, ok := Summarize(readings, reading.SensorTemperature)
	if !ok {
		t.Fatal("Summarize() ok = false")
	}
	if s.Current != 30 {
		t.Errorf("Current = %v, want 30 (latest)", s.Current)
	}
	if s.Average != 20 {
		t.Errorf("Average = %v, want 20", s.Average)
	}
	if s.Max != 30 || s.Min != 10 {
		t.Errorf("Max/Min = %v/%v, want 30/10", s.Max, s.Min)
	}
}

func TestSummarize_CurrentIsChronologicallyLatest(t *testing.T) {
	// Latest by timestamp, not by slice position.
	readings := []reading.Reading{
		{SensorType: reading.SensorLight, Value: 500, Timestamp: at(8, 0)},
		{SensorType: reading.SensorLight, Value: 300, Timestamp: at(2, 0)},
	}

	s, ok := Summarize(readings, reading.SensorLight)
	if !ok {
		t.Fatal("Summarize() ok = false")
	}
	if s.Current != 500 {
		t.Errorf("Current = %v, want 500", s.Current)
	}
}

func TestSummarize_SingleReading(t *testing.T) {
	readings := []reading.Reading{
		{SensorType: reading.SensorMotion, Value: 1, Timestamp: at(0, 0)},
	}

	s, ok := Summarize(readings, reading.SensorMotion)
	if !ok {
		t.Fatal("Summarize() ok = false")
	}
	if s.Current != 1 || s.Average != 1 || s.Max != 1 || s.Min != 1 {
		t.Errorf("Summary = %+v, want all 1", s)
	}
}

func TestSummarize_NoMatch(t *testing.T) {
	readings := []reading.Reading{
		{SensorType: reading.SensorHumidity, Value: 55, Timestamp: at(0, 0)},
	}

	if _, ok := Summarize(readings, reading.SensorTemperature); ok {
		t.Error("Summarize() ok = true for unmatched type")
	}
	if _, ok := Summarize(nil, reading.SensorTemperature); ok {
		t.Error("Summarize(nil) ok = true")
	}
}
