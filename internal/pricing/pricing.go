package pricing

import (
	"errors"
	"time"

	"github.com/obiefule/estateflow/internal/models"
)

// MaxInstallmentMonths caps how far a purchase may be spread.
const MaxInstallmentMonths = 12

var (
	ErrInvalidPlotCount    = errors.New("plot count must be at least 1")
	ErrInvalidInstallments = errors.New("installment months must be between 1 and 12")
)

// Terms are the estate-level inputs to a quote. Amounts are in minor
// currency units.
type Terms struct {
	BasePrice  int64
	PromoPrice *int64
}

// TermsFor extracts pricing terms from an estate record.
func TermsFor(estate *models.Estate) Terms {
	return Terms{BasePrice: estate.PlotPrice, PromoPrice: estate.PromoPrice}
}

// Quote is a fully computed price for a set of plots. TotalPrice is
// snapshotted onto the purchase; the schedule's final installment absorbs
// any rounding remainder so the schedule always sums to TotalPrice.
type Quote struct {
	EffectivePrice    int64
	TotalPrice        int64
	MonthlyPayment    int64
	InstallmentMonths int
	Schedule          models.InstallmentSchedule
}

// Compute prices plotCount plots under terms, spread over months
// installments starting at start. It is a pure function.
func Compute(terms Terms, plotCount, months int, start time.Time) (*Quote, error) {
	if plotCount < 1 {
		return nil, ErrInvalidPlotCount
	}
	if months < 1 || months > MaxInstallmentMonths {
		return nil, ErrInvalidInstallments
	}

	effective := terms.BasePrice
	if terms.PromoPrice != nil && *terms.PromoPrice < terms.BasePrice {
		effective = *terms.PromoPrice
	}

	total := effective * int64(plotCount)
	monthly, schedule, err := Spread(total, months, start)
	if err != nil {
		return nil, err
	}

	return &Quote{
		EffectivePrice:    effective,
		TotalPrice:        total,
		MonthlyPayment:    monthly,
		InstallmentMonths: months,
		Schedule:          schedule,
	}, nil
}

// Spread divides total across months installments starting at start. The
// monthly figure rounds half up and the final installment absorbs the
// remainder, so the schedule always sums to total. Callers that override
// the computed total use it to keep the stored schedule consistent.
func Spread(total int64, months int, start time.Time) (int64, models.InstallmentSchedule, error) {
	if months < 1 || months > MaxInstallmentMonths {
		return 0, nil, ErrInvalidInstallments
	}

	monthly := divideRoundHalfUp(total, int64(months))
	schedule := make(models.InstallmentSchedule, 0, months)
	for i := 1; i <= months; i++ {
		amount := monthly
		if i == months {
			amount = total - monthly*int64(months-1)
		}
		schedule = append(schedule, models.Installment{
			Month:   i,
			DueDate: start.AddDate(0, i-1, 0),
			Amount:  amount,
		})
	}
	return monthly, schedule, nil
}

// divideRoundHalfUp divides total by parts rounding half up, so repeated
// quotes for the same inputs always land on the same figure.
func divideRoundHalfUp(total, parts int64) int64 {
	quotient := total / parts
	if 2*(total%parts) >= parts {
		quotient++
	}
	return quotient
}
