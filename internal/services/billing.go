package services

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ElapsedSeconds returns the whole seconds between billing start and now,
// never negative.
func ElapsedSeconds(startedAt, now time.Time) int64 {
	if !now.After(startedAt) {
		return 0
	}
	return int64(now.Sub(startedAt) / time.Second)
}

// BillableMinutes rounds a duration up to the next full minute: any started
// minute is charged whole.
func BillableMinutes(durationSeconds int64) int64 {
	if durationSeconds <= 0 {
		return 0
	}
	return (durationSeconds + 59) / 60
}

// ConsultCost is the accrued fee for a consultation of the given length.
// It is a pure function of its inputs, so recomputing it for the same
// instant always yields the same charge.
func ConsultCost(ratePerMinute decimal.Decimal, durationSeconds int64) decimal.Decimal {
	return ratePerMinute.Mul(decimal.NewFromInt(BillableMinutes(durationSeconds)))
}

// SplitAmount divides a settled total into the platform commission and the
// lawyer's earning. The two always sum exactly to the total: the commission
// is rounded to currency precision and the earning is the remainder.
func SplitAmount(total, commissionPercent decimal.Decimal) (commission, lawyerEarning decimal.Decimal) {
	commission = total.Mul(commissionPercent).Div(hundred).Round(2)
	lawyerEarning = total.Sub(commission)
	return commission, lawyerEarning
}
