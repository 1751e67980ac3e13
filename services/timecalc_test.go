package services

import "testing"

func TestParseTimeToMinutes(t *testing.T) {
	cases := map[string]int{
		"2h":       120,
		"1.5h":     90,
		"3.5h":     210,
		"0.25h":    15,
		"90min":    90,
		"45 min":   45,
		"1h 30min": 90,
		"2H":       120,
		"":         0,
		"soon":     0,
		"abc h":    0,
		"-1h":      0,
		"10":       0,
	}
	for in, want := range cases {
		if got := ParseTimeToMinutes(in); got != want {
			t.Errorf("ParseTimeToMinutes(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	cases := map[int]string{
		0:   "0min",
		45:  "45min",
		60:  "1h",
		90:  "1h 30min",
		144: "2h 24min",
		600: "10h",
	}
	for in, want := range cases {
		if got := FormatMinutes(in); got != want {
			t.Errorf("FormatMinutes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, m := range []int{1, 59, 60, 61, 125, 600, 1439} {
		if got := ParseTimeToMinutes(FormatMinutes(m)); got != m {
			t.Errorf("round trip %d -> %q -> %d", m, FormatMinutes(m), got)
		}
	}
}

func TestEstimatedSpentMinutes(t *testing.T) {
	if got := EstimatedSpentMinutes(180); got != 144 {
		t.Fatalf("expected 144, got %d", got)
	}
	if got := EstimatedSpentMinutes(1); got != 0 {
		t.Fatalf("expected truncation to 0, got %d", got)
	}
}

func TestProgressPercentAndStatus(t *testing.T) {
	if got := ProgressPercent(3, 10); got != 30 {
		t.Fatalf("expected 30, got %d", got)
	}
	if got := ProgressPercent(0, 0); got != 0 {
		t.Fatalf("expected 0 for no topics, got %d", got)
	}
	// 1/8 = 12.5 làm tròn về số chẵn
	if got := ProgressPercent(1, 8); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
	if got := ProgressPercent(3, 8); got != 38 {
		t.Fatalf("expected 38, got %d", got)
	}

	statuses := map[int]string{
		0:   StatusNotStarted,
		1:   StatusDelayed,
		49:  StatusDelayed,
		50:  StatusInProgress,
		99:  StatusInProgress,
		100: StatusCompleted,
	}
	for p, want := range statuses {
		if got := StatusFromProgress(p); got != want {
			t.Errorf("StatusFromProgress(%d) = %q, want %q", p, got, want)
		}
	}
}
