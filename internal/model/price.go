package model

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// currencyPrefixes are stripped before parsing string prices, longest first.
var currencyPrefixes = []string{"INR", "Rs.", "Rs", "₹"}

// Price is a non-negative money amount in rupees.
// It decodes from either a JSON/YAML number or a currency-prefixed string such as "₹123.45".
type Price struct {
	decimal.Decimal
}

// NewPrice wraps a decimal value.
func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d}
}

// PriceFromFloat builds a price from a float, mostly for tests and seed data.
func PriceFromFloat(f float64) Price {
	return Price{Decimal: decimal.NewFromFloat(f)}
}

// ParsePrice normalises a numeric or string price representation.
func ParsePrice(v any) (Price, error) {
	var d decimal.Decimal

	switch p := v.(type) {
	case Price:
		d = p.Decimal
	case decimal.Decimal:
		d = p
	case float64:
		d = decimal.NewFromFloat(p)
	case float32:
		d = decimal.NewFromFloat32(p)
	case int:
		d = decimal.NewFromInt(int64(p))
	case int64:
		d = decimal.NewFromInt(p)
	case json.Number:
		parsed, err := decimal.NewFromString(p.String())
		if err != nil {
			return Price{}, ErrInvalidPrice
		}
		d = parsed
	case string:
		parsed, err := parsePriceString(p)
		if err != nil {
			return Price{}, err
		}
		d = parsed
	default:
		return Price{}, ErrInvalidPrice
	}

	if d.IsNegative() {
		return Price{}, ErrInvalidPrice
	}

	return Price{Decimal: d}, nil
}

func parsePriceString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	for _, prefix := range currencyPrefixes {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
			break
		}
	}
	s = strings.ReplaceAll(s, ",", "")

	if s == "" {
		return decimal.Decimal{}, ErrInvalidPrice
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidPrice
	}
	return d, nil
}

// UnmarshalJSON accepts a number or a string.
func (p *Price) UnmarshalJSON(data []byte) error {
	var raw any
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return err
	}

	parsed, err := ParsePrice(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalJSON renders the price as a JSON number.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.String()), nil
}

// UnmarshalYAML accepts a scalar number or string.
func (p *Price) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return ErrInvalidPrice
	}

	parsed, err := ParsePrice(node.Value)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalYAML renders the price as a plain YAML number with every digit kept.
func (p Price) MarshalYAML() (any, error) {
	tag := "!!float"
	if p.Decimal.IsInteger() {
		tag = "!!int"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: p.Decimal.String()}, nil
}
