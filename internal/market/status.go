package market

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPaid      Status = "paid"
	StatusShipping  Status = "shipping"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPaid, StatusShipping, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// The happy path is not forward-enforced between non-terminal states; the
// hard rule is that cancelled is terminal and delivered only admits cancel.
var validNext = map[Status]map[Status]bool{
	StatusPending:   anyStatus,
	StatusConfirmed: anyStatus,
	StatusPaid:      anyStatus,
	StatusShipping:  anyStatus,
	StatusDelivered: {StatusCancelled: true},
	StatusCancelled: {},
}

var anyStatus = map[Status]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusPaid:      true,
	StatusShipping:  true,
	StatusDelivered: true,
	StatusCancelled: true,
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
