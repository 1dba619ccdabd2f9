package payment

import "errors"

// ShippingSKU marks the shipping line every payable cart must carry.
const ShippingSKU = "SHIP"

var ErrCartInvalid = errors.New("cart not valid")

// Item is one cart line. Only SKU and Qty take part in validation; the rest is
// carried through to the order unchanged.
type Item struct {
	SKU      string   `json:"sku"`
	Qty      int      `json:"qty"`
	Name     string   `json:"name,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Subtotal *float64 `json:"subtotal,omitempty"`
}

type Cart struct {
	Items []Item   `json:"items"`
	Total float64  `json:"total"`
	Tax   *float64 `json:"tax,omitempty"`
}

// Validate reports ErrCartInvalid unless the cart has a shipping line and a nonzero total.
func (c Cart) Validate() error {
	if c.Total == 0 || !c.HasShipping() {
		return ErrCartInvalid
	}
	return nil
}

func (c Cart) HasShipping() bool {
	for _, it := range c.Items {
		if it.SKU == ShippingSKU {
			return true
		}
	}
	return false
}

// ItemCount sums the quantities of every line except shipping.
func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		if it.SKU == ShippingSKU {
			continue
		}
		n += it.Qty
	}
	return n
}
