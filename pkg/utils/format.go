// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatIndianCurrency formats a number in Indian currency format (lakhs, crores).
func FormatIndianCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")

	result := "₹" + FormatIndianNumber(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// FormatIndianNumber groups an integer string the Indian way: the last
// three digits, then pairs (1,00,00,000).
func FormatIndianNumber(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	s = s[:n-3]

	for len(s) > 0 {
		if len(s) >= 2 {
			result = s[len(s)-2:] + "," + result
			s = s[:len(s)-2]
		} else {
			result = s + "," + result
			s = ""
		}
	}

	return result
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatPrice formats a price with thousands separators.
func FormatPrice(price float64) string {
	if math.Abs(price) < 10 {
		return printer.Sprintf("%.4f", price)
	}
	return printer.Sprintf("%.2f", price)
}

// FormatVolume formats a volume with thousands separators.
func FormatVolume(volume float64) string {
	return printer.Sprintf("%d", int64(math.Round(volume)))
}

// FormatLakhs formats a number in lakhs.
func FormatLakhs(amount float64) string {
	return fmt.Sprintf("%.2f L", amount/100000)
}

// FormatCrores formats a number in crores.
func FormatCrores(amount float64) string {
	return fmt.Sprintf("%.2f Cr", amount/10000000)
}

// FormatCompact formats a number in compact form (L/Cr).
func FormatCompact(amount float64) string {
	abs := math.Abs(amount)
	switch {
	case abs >= 10000000:
		return FormatCrores(amount)
	case abs >= 100000:
		return FormatLakhs(amount)
	}
	return FormatIndianCurrency(amount)
}

// FormatRiskReward formats a risk-reward ratio.
func FormatRiskReward(rr float64) string {
	return fmt.Sprintf("1:%.2f", rr)
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dd %dh", int(d.Hours())/24, int(d.Hours())%24)
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
