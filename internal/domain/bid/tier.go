package bid

import (
	"github.com/shopspring/decimal"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
)

// Price bands and their increment steps. A bid must move the leading amount
// by at least one step of the band the current price sits in.
var tiers = []struct {
	below decimal.Decimal
	step  decimal.Decimal
}{
	{decimal.NewFromInt(100), decimal.NewFromInt(10)},
	{decimal.NewFromInt(500), decimal.NewFromInt(50)},
	{decimal.NewFromInt(1000), decimal.NewFromInt(100)},
	{decimal.NewFromInt(5000), decimal.NewFromInt(200)},
}

var topStep = decimal.NewFromInt(500)

// IncrementStep returns the tier step for the given price
func IncrementStep(price values.Money) values.Money {
	return values.MustNewMoney(stepFor(price.Amount()), price.Currency())
}

// NextValidAmount rounds price up to the nearest tier boundary. Prices
// already on a boundary are returned unchanged.
func NextValidAmount(price values.Money) values.Money {
	amt := price.Amount()
	step := stepFor(amt)
	next := amt.Div(step).Ceil().Mul(step)
	return values.MustNewMoney(next, price.Currency())
}

// NextRaise returns the smallest tier-valid amount strictly above price.
// This is the minimum a competing bid must reach to take the lead.
func NextRaise(price values.Money) values.Money {
	next := NextValidAmount(price)
	if next.GreaterThan(price) {
		return next
	}
	return values.MustNewMoney(price.Amount().Add(stepFor(price.Amount())), price.Currency())
}

func stepFor(amount decimal.Decimal) decimal.Decimal {
	for _, t := range tiers {
		if amount.LessThan(t.below) {
			return t.step
		}
	}
	return topStep
}
