package purchase

import (
	"errors"
	"fmt"
)

var (
	ErrEstateNotFound   = errors.New("estate not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrPlotsUnavailable = errors.New("plots unavailable")
	ErrGateway          = errors.New("payment gateway error")
	// ErrPlotAlreadySold means a confirmation raced another purchase of the
	// same plot and lost; the payment needs reconciliation, never a second
	// sale of the plot.
	ErrPlotAlreadySold      = errors.New("plot already sold")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
)

// UnavailablePlotsError carries the plot ids that could not be locked so the
// caller can re-select.
type UnavailablePlotsError struct {
	PlotIDs []int64
}

func (e *UnavailablePlotsError) Error() string {
	return fmt.Sprintf("plots unavailable: %v", e.PlotIDs)
}

func (e *UnavailablePlotsError) Unwrap() error {
	return ErrPlotsUnavailable
}
