package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Candidate is a single retailer search result. Title, Price and Source are
// interpreted by the engine; every other field is carried through untouched.
type Candidate struct {
	Title  string
	Price  *float64
	Source string
	Extra  map[string]json.RawMessage
}

// priceKeys are the payload keys a price may arrive under, in preference order.
var priceKeys = []string{"price", "extractedPrice"}

// UnmarshalJSON decodes a candidate while keeping unrecognized fields.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = Candidate{Extra: make(map[string]json.RawMessage, len(raw))}
	for key, value := range raw {
		switch key {
		case "title":
			if err := json.Unmarshal(value, &c.Title); err != nil {
				return err
			}
		case "source":
			if err := json.Unmarshal(value, &c.Source); err != nil {
				return err
			}
		case "price":
			// decoded below so extractedPrice can act as a fallback
		default:
			c.Extra[key] = value
		}
	}

	for _, key := range priceKeys {
		if value, ok := raw[key]; ok {
			if price, ok := decodePrice(value); ok {
				c.Price = &price
				break
			}
		}
	}

	return nil
}

// MarshalJSON re-emits passthrough fields alongside the interpreted ones.
func (c Candidate) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(c.Extra)+3)
	for key, value := range c.Extra {
		out[key] = value
	}

	title, err := json.Marshal(c.Title)
	if err != nil {
		return nil, err
	}
	out["title"] = title

	source, err := json.Marshal(c.Source)
	if err != nil {
		return nil, err
	}
	out["source"] = source

	if c.Price != nil {
		price, err := json.Marshal(*c.Price)
		if err != nil {
			return nil, err
		}
		out["price"] = price
	}

	return json.Marshal(out)
}

// HasPrice reports whether the candidate carries a usable price.
func (c *Candidate) HasPrice() bool {
	return c.Price != nil
}

// decodePrice accepts numbers and numeric strings such as "$2.57".
// Negative or unparseable prices are treated as missing.
func decodePrice(value json.RawMessage) (float64, bool) {
	if string(bytes.TrimSpace(value)) == "null" {
		return 0, false
	}

	var number float64
	if err := json.Unmarshal(value, &number); err == nil {
		return number, number >= 0
	}

	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return 0, false
	}
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "$"))
	number, err := strconv.ParseFloat(text, 64)
	if err != nil || number < 0 {
		return 0, false
	}
	return number, true
}

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 {
	return &v
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
