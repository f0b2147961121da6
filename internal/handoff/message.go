package handoff

import (
	"strconv"
	"strings"

	"Zaiqa/internal/money"
)

type OrderLine struct {
	Name      string
	Qty       int
	LineTotal int64
}

func OrderMessage(lines []OrderLine, total int64) string {
	var b strings.Builder
	b.WriteString("Hi, I would like to place an order:\n\n")
	for _, l := range lines {
		b.WriteString("- ")
		b.WriteString(l.Name)
		b.WriteString(" x")
		b.WriteString(strconv.Itoa(l.Qty))
		b.WriteString(" (")
		b.WriteString(money.Format(l.LineTotal))
		b.WriteString(")\n")
	}
	b.WriteString("\n*Total: ")
	b.WriteString(money.Format(total))
	b.WriteString("*")
	b.WriteString("\n\nPlease confirm my order.")
	return b.String()
}

func InquiryMessage(title, priceText string) string {
	return "Hi, I am interested in ordering *" + title + "* (" + priceText + ")."
}
