package handler

import (
	"testing"
	"time"
)

func TestRefundEligible(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		start time.Time
		want  bool
	}{
		{"two days out", now.Add(48 * time.Hour), true},
		{"just outside cutoff", now.Add(24*time.Hour + time.Minute), true},
		{"exactly at cutoff", now.Add(24 * time.Hour), false},
		{"inside cutoff", now.Add(2 * time.Hour), false},
		{"class already started", now.Add(-time.Hour), false},
	}
	for _, c := range cases {
		if got := refundEligible(c.start, now, 24); got != c.want {
			t.Errorf("%s: refundEligible = %v, want %v", c.name, got, c.want)
		}
	}
}
