package payment

import (
	"testing"

	"github.com/lunafit/studio-booking/internal/model"
)

func TestMapStatus(t *testing.T) {
	cases := []struct {
		vendor string
		want   string
		known  bool
	}{
		{StatusSuccess, model.OrderSuccessful, true},
		{StatusFailed, model.OrderFailed, true},
		{StatusExpired, model.OrderExpired, true},
		{StatusCancelled, model.OrderCancelled, true},
		{"PAYMENT_REFUNDED", "", false},
		{"", "", false},
		{"payment_success", "", false}, // case-sensitive by contract
	}
	for _, c := range cases {
		got, known := MapStatus(c.vendor)
		if got != c.want || known != c.known {
			t.Errorf("MapStatus(%q) = (%q, %v), want (%q, %v)", c.vendor, got, known, c.want, c.known)
		}
	}
}
