package pricing

import (
	"rentcore/internal/domain/listing"
	"rentcore/internal/domain/shared/money"
)

// Rule computes a discount amount for a priced request. Rules are pure and
// evaluated in the order the listing declares them.
type Rule interface {
	Name() string
	Discount(subtotal money.Money, units, quantity int) money.Money
}

// RulesFrom maps listing discount configuration onto executable rules.
// Unknown kinds are skipped rather than failing the quote.
func RulesFrom(configs []listing.DiscountConfig) []Rule {
	rules := make([]Rule, 0, len(configs))
	for _, cfg := range configs {
		switch cfg.Kind {
		case listing.DiscountLongDuration:
			rules = append(rules, longDurationRule{cfg})
		case listing.DiscountMultiUnit:
			rules = append(rules, multiUnitRule{cfg})
		}
	}
	return rules
}

// longDurationRule takes a percentage off once the rental spans at least
// Threshold billing units (the classic weekly discount).
type longDurationRule struct {
	cfg listing.DiscountConfig
}

func (r longDurationRule) Name() string { return r.cfg.Name }

func (r longDurationRule) Discount(subtotal money.Money, units, quantity int) money.Money {
	if units < r.cfg.Threshold {
		return money.Zero(subtotal.Currency)
	}
	return subtotal.MulBasisPoints(r.cfg.BasisPoints)
}

// multiUnitRule takes a percentage off once the renter books at least
// Threshold units of inventory in a single reservation.
type multiUnitRule struct {
	cfg listing.DiscountConfig
}

func (r multiUnitRule) Name() string { return r.cfg.Name }

func (r multiUnitRule) Discount(subtotal money.Money, units, quantity int) money.Money {
	if quantity < r.cfg.Threshold {
		return money.Zero(subtotal.Currency)
	}
	return subtotal.MulBasisPoints(r.cfg.BasisPoints)
}
