package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLineCurrency is the currency symbol used when a stored line has
// no price information at all.
const DefaultLineCurrency = "$"

// LinePrice is the size, unit price and quantity of a cart line. Only the
// first entry of CartLine.Prices is ever mutated.
type LinePrice struct {
	Size     string  `json:"size"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Currency string  `json:"currency"`
}

// CartLine is one entry of a user's cart. Item data is copied at add time.
type CartLine struct {
	ID                string      `json:"id"`
	Kind              ItemKind    `json:"kind"`
	ItemID            string      `json:"item_id"`
	Name              string      `json:"name"`
	ImageURL          string      `json:"image_url"`
	SpecialIngredient string      `json:"special_ingredient"`
	Roasted           string      `json:"roasted"`
	Prices            []LinePrice `json:"prices"`
	TotalPrice        float64     `json:"total_price"`
	AddedAt           time.Time   `json:"added_at"`
}

// Cart is the derived view returned to clients. It is never stored.
type Cart struct {
	Lines []CartLine `json:"lines"`
	Total float64    `json:"total"`
}

// NewCart builds the view over lines, computing the total.
func NewCart(lines []CartLine) Cart {
	if lines == nil {
		lines = []CartLine{}
	}
	total, _ := CartTotal(lines).Float64()
	return Cart{Lines: lines, Total: total}
}

// Ref returns the address of the item this line was created from.
func (l *CartLine) Ref() ItemRef {
	return ItemRef{Kind: l.Kind, ID: l.ItemID}
}

// Size returns the size of the primary price entry.
func (l *CartLine) Size() string {
	if len(l.Prices) == 0 {
		return ""
	}
	return l.Prices[0].Size
}

// Quantity returns the quantity of the primary price entry.
func (l *CartLine) Quantity() int {
	if len(l.Prices) == 0 {
		return 0
	}
	return l.Prices[0].Quantity
}

// Matches reports whether the line holds the given item in the given size.
func (l *CartLine) Matches(ref ItemRef, size string) bool {
	return l.Kind == ref.Kind && l.ItemID == ref.ID && l.Size() == size
}

// Increment adds one to the primary quantity and refreshes the total.
func (l *CartLine) Increment() {
	l.ensurePrice()
	l.Prices[0].Quantity++
	l.recompute()
}

// Decrement removes one from the primary quantity. When the quantity is
// already 1 or less the line is left untouched and remove is true; the
// caller deletes the line.
func (l *CartLine) Decrement() (remove bool) {
	l.ensurePrice()
	if l.Prices[0].Quantity <= 1 {
		return true
	}
	l.Prices[0].Quantity--
	l.recompute()
	return false
}

func (l *CartLine) ensurePrice() {
	if len(l.Prices) == 0 {
		l.Prices = []LinePrice{{Quantity: 1, Currency: DefaultLineCurrency}}
	}
}

func (l *CartLine) recompute() {
	l.TotalPrice = lineTotal(l.Prices[0]).InexactFloat64()
}

func lineTotal(p LinePrice) decimal.Decimal {
	return decimal.NewFromFloat(p.Price).
		Mul(decimal.NewFromInt(int64(p.Quantity))).
		Round(2)
}

// CartTotal sums price times quantity of every line's primary entry,
// rounded to cents.
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for i := range lines {
		if len(lines[i].Prices) == 0 {
			continue
		}
		total = total.Add(lineTotal(lines[i].Prices[0]))
	}
	return total.Round(2)
}

// --- Storage boundary ---

// DecodeCartLineJSON decodes a stored line document.
func DecodeCartLineJSON(data []byte) (CartLine, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return CartLine{}, fmt.Errorf("decode cart line: %w", err)
	}
	if raw == nil {
		return CartLine{}, fmt.Errorf("decode cart line: null document")
	}
	return DecodeCartLine(raw), nil
}

// DecodeCartLine normalizes a loosely typed line document into canonical
// form. Prices may be a list, a single object, an index-keyed map or
// missing entirely; prices and quantities may be numbers or numeric
// strings. The stored total is ignored except as a fallback price and is
// recomputed from the primary entry.
func DecodeCartLine(raw map[string]any) CartLine {
	line := CartLine{
		ID:                asString(raw["id"]),
		Kind:              ItemKind(asString(raw["kind"])),
		ItemID:            asString(raw["item_id"]),
		Name:              asString(raw["name"]),
		ImageURL:          asString(raw["image_url"]),
		SpecialIngredient: asString(raw["special_ingredient"]),
		Roasted:           asString(raw["roasted"]),
		AddedAt:           asTime(raw["added_at"]),
	}

	var entries []any
	switch p := raw["prices"].(type) {
	case []any:
		entries = p
	case map[string]any:
		if first, ok := p["0"]; ok {
			entries = []any{first}
		} else if _, ok := p["price"]; ok {
			entries = []any{p}
		} else {
			entries = []any{map[string]any{}}
		}
	}

	for _, e := range entries {
		m, _ := e.(map[string]any)
		line.Prices = append(line.Prices, decodeLinePrice(m))
	}
	if len(line.Prices) == 0 {
		fallback := raw["total_price"]
		if fallback == nil {
			fallback = raw["totalPrice"]
		}
		line.Prices = []LinePrice{{
			Price:    asFloat(fallback),
			Quantity: 1,
			Currency: DefaultLineCurrency,
		}}
	}
	line.recompute()
	return line
}

func decodeLinePrice(m map[string]any) LinePrice {
	p := LinePrice{
		Size:     asString(m["size"]),
		Price:    asFloat(m["price"]),
		Quantity: asQuantity(m["quantity"]),
		Currency: asString(m["currency"]),
	}
	if p.Currency == "" {
		p.Currency = DefaultLineCurrency
	}
	return p
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func asFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		f, _ = n.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(n), 64)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// asQuantity coerces like an integer parse of the leading digits. Absent,
// invalid, zero and negative values all become 1.
func asQuantity(v any) int {
	q := 0
	switch n := v.(type) {
	case float64:
		if !math.IsNaN(n) && !math.IsInf(n, 0) {
			q = int(n)
		}
	case int:
		q = n
	case int64:
		q = int(n)
	case string:
		q = leadingInt(strings.TrimSpace(n))
	}
	if q < 1 {
		return 1
	}
	return q
}

func leadingInt(s string) int {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func asTime(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
