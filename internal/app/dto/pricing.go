package dto

import domainpricing "rentcore/internal/domain/pricing"

type PriceBreakdown struct {
	Units       int      `json:"units"`
	Quantity    int      `json:"quantity"`
	Rate        MoneyDTO `json:"rate"`
	Subtotal    MoneyDTO `json:"subtotal"`
	Discount    MoneyDTO `json:"discount"`
	PlatformFee MoneyDTO `json:"platform_fee"`
	Deposit     MoneyDTO `json:"deposit"`
	Total       MoneyDTO `json:"total"`
}

func MapBreakdown(b domainpricing.Breakdown) PriceBreakdown {
	return PriceBreakdown{
		Units:       b.Units,
		Quantity:    b.Quantity,
		Rate:        MapMoney(b.Rate),
		Subtotal:    MapMoney(b.Subtotal),
		Discount:    MapMoney(b.Discount),
		PlatformFee: MapMoney(b.PlatformFee),
		Deposit:     MapMoney(b.Deposit),
		Total:       MapMoney(b.Total),
	}
}
