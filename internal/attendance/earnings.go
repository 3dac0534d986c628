package attendance

import "github.com/shopspring/decimal"

// salaryDivisor is the fixed number of paid days per month, whatever the
// calendar month length.
var salaryDivisor = decimal.NewFromInt(30)

// DailyRate is baseSalary / 30, or zero for a missing or non-positive salary.
// The result is not rounded.
func DailyRate(baseSalary decimal.Decimal) decimal.Decimal {
	if !baseSalary.IsPositive() {
		return decimal.Zero
	}
	return baseSalary.Div(salaryDivisor)
}

// Earnings is DailyRate(baseSalary) * presentCount. Rounding to cents happens
// once, on the product, so a rounded daily rate times presentCount can differ
// from it.
func Earnings(baseSalary decimal.Decimal, presentCount int) decimal.Decimal {
	if presentCount <= 0 {
		return decimal.Zero
	}
	return DailyRate(baseSalary).Mul(decimal.NewFromInt(int64(presentCount))).Round(2)
}
