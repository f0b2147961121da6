package menu

import (
	"strings"

	"Zaiqa/internal/handoff"
	"Zaiqa/internal/money"
)

const FilterAll = "all"

type Section struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// Sections groups items by category in first-seen order and applies the
// category filter and the name search. Categories with nothing visible are
// left out.
func Sections(items []Item, filter, query string) []Section {
	filter = strings.ToLower(strings.TrimSpace(filter))
	query = strings.ToLower(strings.TrimSpace(query))

	var out []Section
	index := map[string]int{}

	for _, it := range items {
		if !categoryMatches(it.Category, filter) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(it.Name), query) {
			continue
		}

		i, ok := index[it.Category]
		if !ok {
			i = len(out)
			index[it.Category] = i
			out = append(out, Section{Title: it.Category})
		}
		out[i].Items = append(out[i].Items, it)
	}

	if out == nil {
		out = []Section{}
	}
	return out
}

func categoryMatches(category, filter string) bool {
	if filter == "" || filter == FilterAll {
		return true
	}
	return strings.Contains(strings.ToLower(category), filter)
}

type AddPayload struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// Detail is what the product modal shows for one item.
type Detail struct {
	Item       Item       `json:"item"`
	PriceText  string     `json:"price_text"`
	AddToCart  AddPayload `json:"add_to_cart"`
	InquiryURL string     `json:"inquiry_url"`
}

func NewDetail(it Item, contact handoff.Contact) Detail {
	priceText := money.Format(it.Price)
	return Detail{
		Item:       it,
		PriceText:  priceText,
		AddToCart:  AddPayload{Name: it.Name, Price: money.Digits(it.Price)},
		InquiryURL: contact.Link(handoff.InquiryMessage(it.Name, priceText)),
	}
}
