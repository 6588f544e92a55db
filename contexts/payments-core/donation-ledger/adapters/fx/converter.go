package fx

import (
	"math"
	"strings"
)

// usdRates maps a currency to its USD value per unit. Settlement uses a
// static table so conversion stays a total pure function; rate refresh is
// an offline concern.
var usdRates = map[string]float64{
	"USD": 1.0,
	"NGN": 0.00065,
	"GHS": 0.064,
	"KES": 0.0077,
	"ZAR": 0.055,
	"EUR": 1.08,
	"GBP": 1.27,
}

type StaticConverter struct{}

func NewStaticConverter() StaticConverter {
	return StaticConverter{}
}

// Convert returns the amount expressed in toCurrency. Unknown currencies
// convert at parity rather than failing; callers treat the result as
// best-effort settlement value.
func (StaticConverter) Convert(amount float64, fromCurrency string, toCurrency string) float64 {
	from := strings.ToUpper(strings.TrimSpace(fromCurrency))
	to := strings.ToUpper(strings.TrimSpace(toCurrency))
	if from == to {
		return amount
	}
	fromRate, ok := usdRates[from]
	if !ok {
		fromRate = 1.0
	}
	toRate, ok := usdRates[to]
	if !ok {
		toRate = 1.0
	}
	return math.Round(amount*fromRate/toRate*100) / 100
}
