package market

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusPaid, true},
		{StatusPaid, StatusShipping, true},
		{StatusShipping, StatusDelivered, true},
		// looseness kept: non-terminal states may move backwards
		{StatusPaid, StatusPending, true},
		{StatusShipping, StatusConfirmed, true},
		// delivered only admits cancel
		{StatusDelivered, StatusCancelled, true},
		{StatusDelivered, StatusShipping, false},
		{StatusDelivered, StatusPaid, false},
		// cancelled is terminal
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusPaid, false},
		{StatusCancelled, StatusCancelled, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusPaid, StatusShipping, StatusDelivered, StatusCancelled} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = false", s)
		}
	}
	if ValidStatus("refunded") {
		t.Error(`ValidStatus("refunded") = true`)
	}
}
