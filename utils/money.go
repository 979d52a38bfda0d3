package utils

import "github.com/shopspring/decimal"

// Round2 rounds x to 2 decimal places. Money columns are NUMERIC(12,2); going
// through decimal avoids the float drift of math.Round(x*100)/100 on repeated
// additions.
func Round2(x float64) float64 {
	f, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return f
}

// AddMoney returns a+b rounded to cents.
func AddMoney(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

// SubMoney returns a-b rounded to cents.
func SubMoney(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

// MulMoney returns a*b rounded to cents.
func MulMoney(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}
