package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Month
		wantErr bool
	}{
		{"valid", "2024-02", Month{2024, time.February}, false},
		{"december", "2023-12", Month{2023, time.December}, false},
		{"no day allowed", "2024-02-15", Month{}, true},
		{"month out of range", "2024-13", Month{}, true},
		{"empty", "", Month{}, true},
		{"garbage", "not-a-month", Month{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonth(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMonth(%q) failed: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthString(t *testing.T) {
	if got := MustParseMonth("2024-03").String(); got != "2024-03" {
		t.Errorf("got %q, want %q", got, "2024-03")
	}
	if got := (Month{}).String(); got != "" {
		t.Errorf("zero month should format empty, got %q", got)
	}
}

func TestMonthOf(t *testing.T) {
	ts := time.Date(2024, time.January, 15, 13, 45, 0, 0, time.UTC)
	if got := MonthOf(ts); !got.Equal(MustParseMonth("2024-01")) {
		t.Errorf("got %v", got)
	}
	if !MonthOf(time.Time{}).IsZero() {
		t.Error("MonthOf(zero time) should be the zero Month")
	}
}

func TestMonthNext(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2024-01", "2024-02"},
		{"2024-12", "2025-01"},
	}
	for _, tt := range tests {
		if got := MustParseMonth(tt.in).Next(); got.String() != tt.want {
			t.Errorf("Next(%s): got %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestMonthSpan(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"same month", "2024-01", "2024-01", 1},
		{"four months", "2024-01", "2024-04", 4},
		{"across year", "2023-11", "2024-02", 4},
		{"end before start", "2024-04", "2024-01", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MustParseMonth(tt.start).Span(MustParseMonth(tt.end))
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMonthRange(t *testing.T) {
	got := MustParseMonth("2023-11").Range(MustParseMonth("2024-02"))
	want := []string{"2023-11", "2023-12", "2024-01", "2024-02"}
	if len(got) != len(want) {
		t.Fatalf("got %d months, want %d", len(got), len(want))
	}
	for i, m := range got {
		if m.String() != want[i] {
			t.Errorf("months[%d] = %s, want %s", i, m, want[i])
		}
	}

	if r := MustParseMonth("2024-02").Range(MustParseMonth("2024-01")); r != nil {
		t.Errorf("inverted range should be nil, got %v", r)
	}
}

func TestMonthJSONRoundTrip(t *testing.T) {
	original := MustParseMonth("2024-07")
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"2024-07"` {
		t.Errorf("got %s", data)
	}

	var restored Month
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !restored.Equal(original) {
		t.Errorf("round-trip mismatch: %v != %v", restored, original)
	}

	var zero Month
	if err := json.Unmarshal([]byte(`""`), &zero); err != nil {
		t.Fatalf("unmarshal empty failed: %v", err)
	}
	if !zero.IsZero() {
		t.Error("expected zero Month from empty string")
	}
}

func TestMonthOrdering(t *testing.T) {
	a := MustParseMonth("2024-01")
	b := MustParseMonth("2024-02")
	if !a.Before(b) || b.Before(a) {
		t.Error("Before is wrong")
	}
	if !b.After(a) || a.After(b) {
		t.Error("After is wrong")
	}
	if !a.Equal(a) || a.Equal(b) {
		t.Error("Equal is wrong")
	}
}
