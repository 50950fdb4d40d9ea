// Package cart implements the per-user shopping cart: a typed model stored
// as a JSONB payload in Postgres for logged-in users, with a session-held
// fallback for anonymous visitors.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrCorrupt = errors.New("corrupt cart payload")

// SessionKey is the session slot the current cart lives under.
const SessionKey = "cart"

type LineItem struct {
	Qty int `json:"qty"`
	// unit price in integer cents (NUMERIC rounding is not our problem here)
	PriceCents int64 `json:"price"`
}

// Cart keeps cached totals next to the items; callers must keep them in
// sync (Recalculate) before a save, the store does not re-derive them.
type Cart struct {
	Items      map[string]LineItem `json:"items"`
	TotalQty   int                 `json:"totalQty"`
	TotalCents int64               `json:"totalCents"`
}

func New() *Cart {
	return &Cart{Items: map[string]LineItem{}}
}

func (c *Cart) Recalculate() {
	qty := 0
	cents := int64(0)
	for _, it := range c.Items {
		qty += it.Qty
		cents += int64(it.Qty) * it.PriceCents
	}
	c.TotalQty = qty
	c.TotalCents = cents
}

// AddItem adds qty units of sku at priceCents, refreshing the unit price
// if the line already exists.
func (c *Cart) AddItem(sku string, qty int, priceCents int64) {
	if c.Items == nil {
		c.Items = map[string]LineItem{}
	}
	it := c.Items[sku]
	it.Qty += qty
	it.PriceCents = priceCents
	c.Items[sku] = it
	c.Recalculate()
}

func (c *Cart) RemoveItem(sku string) {
	delete(c.Items, sku)
	c.Recalculate()
}

func (c *Cart) Clear() {
	c.Items = map[string]LineItem{}
	c.Recalculate()
}

// TotalPrice formats the cached total as a decimal string, e.g. 1050 -> "10.50".
func (c *Cart) TotalPrice() string {
	return decimal.New(c.TotalCents, -2).StringFixed(2)
}

func (it LineItem) Subtotal() string {
	return decimal.New(int64(it.Qty)*it.PriceCents, -2).StringFixed(2)
}

// decode deserializes a stored payload and validates it at the storage
// boundary: a payload that unmarshals but breaks the shape contract is data
// corruption, not a cart.
func decode(raw []byte) (*Cart, error) {
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if c.Items == nil {
		return nil, fmt.Errorf("%w: items missing", ErrCorrupt)
	}
	for sku, it := range c.Items {
		if it.Qty < 0 || it.PriceCents < 0 {
			return nil, fmt.Errorf("%w: negative qty/price for %q", ErrCorrupt, sku)
		}
	}
	if c.TotalQty < 0 || c.TotalCents < 0 {
		return nil, fmt.Errorf("%w: negative totals", ErrCorrupt)
	}
	return &c, nil
}

// FromSessionValue coerces whatever sits in the session cart slot into a
// valid cart. Older frontends wrote plain JSON objects into the slot, so
// besides the typed cart we accept maps and raw JSON, defaulting each
// missing or wrong-typed field on its own. The second result reports
// whether any default was applied (the session must be re-saved then).
func FromSessionValue(v any) (*Cart, bool) {
	switch t := v.(type) {
	case nil:
		return New(), true
	case *Cart:
		if t == nil {
			return New(), true
		}
		if t.Items == nil {
			t.Items = map[string]LineItem{}
			return t, true
		}
		return t, false
	case Cart:
		cp := t
		if cp.Items == nil {
			cp.Items = map[string]LineItem{}
			return &cp, true
		}
		return &cp, false
	case map[string]any:
		return fromMap(t)
	case []byte:
		return fromJSON(t)
	case string:
		return fromJSON([]byte(t))
	case json.RawMessage:
		return fromJSON(t)
	default:
		return New(), true
	}
}

func fromJSON(raw []byte) (*Cart, bool) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return New(), true
	}
	c, _ := fromMap(m)
	return c, true // re-save as the typed cart either way
}

func fromMap(m map[string]any) (*Cart, bool) {
	c := New()
	mutated := false

	items, ok := m["items"].(map[string]any)
	if !ok {
		mutated = true
	} else {
		for sku, raw := range items {
			li, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			qty, _ := asInt(li["qty"])
			price, _ := asInt(li["price"])
			c.Items[sku] = LineItem{Qty: int(qty), PriceCents: price}
		}
	}

	if n, ok := asInt(m["totalQty"]); ok {
		c.TotalQty = int(n)
	} else {
		mutated = true
	}
	if n, ok := asInt(m["totalCents"]); ok {
		c.TotalCents = n
	} else {
		mutated = true
	}
	return c, mutated
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
