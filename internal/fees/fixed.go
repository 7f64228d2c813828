package fees

import (
	"context"

	"github.com/avelora/farewatch/internal/domain"
)

// FixedPolicy supplies a flat cancellation fee from config. The
// transition engine treats the figure as opaque; swapping in a
// fare-rule lookup only means implementing the booking service's
// FeePolicy interface.
type FixedPolicy struct {
	flat float64
}

func NewFixedPolicy(flat float64) *FixedPolicy {
	return &FixedPolicy{flat: flat}
}

func (p *FixedPolicy) CancellationFees(ctx context.Context, booking domain.FlightBooking) (float64, error) {
	// Never charge more than the booking is worth.
	if p.flat > booking.Pricing.Total {
		return booking.Pricing.Total, nil
	}
	return p.flat, nil
}
