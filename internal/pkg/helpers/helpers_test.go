package helpers

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  interface{}
	}{
		{"nil", nil, nil},
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"false", false, nil},
		{"iso date", "2024-03-05", "2024-03-05"},
		{"iso timestamp", "2024-03-05T13:45:00.000Z", "2024-03-05"},
		{"iso with space", "2024-03-05 08:00:00", "2024-03-05"},
		{"brazilian", "05/03/2024", "2024-03-05"},
		{"brazilian invalid month", "05/13/2024", nil},
		{"time value", time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC), "2023-12-31"},
		{"zero time", time.Time{}, nil},
		{"textual", "March 5, 2024", "2024-03-05"},
		{"rfc1123", "Tue, 05 Mar 2024 10:00:00 GMT", "2024-03-05"},
		{"garbage", "amanhã", nil},
		{"invalid iso", "2024-02-30", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDate(tt.input); got != tt.want {
				t.Errorf("NormalizeDate(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		requested, want int
	}{
		{0, 10},
		{-5, 10},
		{1, 1},
		{50, 50},
		{100, 100},
		{1000, 100},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.requested, DefaultHistoryLimit, MaxHistoryLimit); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.requested, got, tt.want)
		}
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in     interface{}
		want   float64
		wantOK bool
	}{
		{float64(5), 5, true},
		{"2.5", 2.5, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		got, ok := ToFloat(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ToFloat(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseDuration(t *testing.T) {
	if got := ParseDuration("30m", time.Hour); got != 30*time.Minute {
		t.Errorf("ParseDuration(30m) = %v", got)
	}
	if got := ParseDuration("soon", time.Hour); got != time.Hour {
		t.Errorf("ParseDuration(soon) = %v, want default", got)
	}
}
