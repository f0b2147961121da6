package money

import "strconv"

// Prefix is the only currency formatting the site does.
const Prefix = "Rs. "

func Format(amount int64) string {
	return Prefix + Digits(amount)
}

// Digits is the bare amount, as carried by add-to-cart triggers.
func Digits(amount int64) string {
	return strconv.FormatInt(amount, 10)
}
