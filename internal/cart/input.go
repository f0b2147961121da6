package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Bounds keep every line total and the cart total well inside int64.
const (
	MaxUnitPrice int64 = 1_000_000_000
	MaxQty             = 999
)

var (
	ErrNameRequired = errors.New("name required")
	ErrBadPrice     = errors.New("price must be an integer between 0 and 1000000000")
)

// AddInput is what an add-to-cart trigger carries, already validated.
type AddInput struct {
	Name      string
	UnitPrice int64
}

// PriceAttr accepts a price as a JSON number or as the string form used by
// data attributes ("500").
type PriceAttr string

func (p *PriceAttr) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PriceAttr(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	*p = PriceAttr(b)
	return nil
}

func ParseAddInput(name string, price PriceAttr) (AddInput, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return AddInput{}, ErrNameRequired
	}

	n, err := strconv.ParseInt(strings.TrimSpace(string(price)), 10, 64)
	if err != nil || n < 0 || n > MaxUnitPrice {
		return AddInput{}, ErrBadPrice
	}

	return AddInput{Name: name, UnitPrice: n}, nil
}

func (in AddInput) valid() bool {
	return in.Name != "" && in.UnitPrice >= 0 && in.UnitPrice <= MaxUnitPrice
}
