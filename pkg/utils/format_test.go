package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

var indianPattern = regexp.MustCompile(`^(\d{1,2},)*\d{1,3}$`)

func TestProperty_IndianCurrencyFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatIndianCurrency produces a valid Indian format", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatIndianCurrency(amount)

			prefix := "₹"
			if amount < 0 {
				prefix = "-₹"
			}
			if !strings.HasPrefix(formatted, prefix) {
				return false
			}

			num := strings.TrimPrefix(strings.TrimPrefix(formatted, "-"), "₹")
			parts := strings.Split(num, ".")
			return len(parts) == 2 && len(parts[1]) == 2 && indianPattern.MatchString(parts[0])
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("FormatIndianCurrency preserves value", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatIndianCurrency(amount)
			clean := strings.NewReplacer("₹", "", ",", "").Replace(formatted)
			parsed, err := strconv.ParseFloat(clean, 64)
			if err != nil {
				return false
			}
			return math.Abs(parsed-amount) <= 0.005+1e-9*math.Abs(amount)
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.Property("FormatPercent is signed with two decimals", prop.ForAll(
		func(pct float64) bool {
			formatted := FormatPercent(pct)
			if !strings.HasSuffix(formatted, "%") {
				return false
			}
			if pct > 0 && !strings.HasPrefix(formatted, "+") {
				return false
			}
			body := strings.TrimSuffix(formatted, "%")
			dot := strings.Index(body, ".")
			return dot >= 0 && len(body)-dot-1 == 2
		},
		gen.Float64Range(-1000, 1000),
	))

	properties.Property("FormatCompact picks the unit by magnitude", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatCompact(amount)
			abs := math.Abs(amount)
			switch {
			case abs >= 10000000:
				return strings.HasSuffix(formatted, " Cr")
			case abs >= 100000:
				return strings.HasSuffix(formatted, " L")
			default:
				return strings.Contains(formatted, "₹")
			}
		},
		gen.Float64Range(-1e10, 1e10),
	))

	properties.TestingRun(t)
}

func TestIndianNumberFormatExamples(t *testing.T) {
	cases := map[float64]string{
		0:          "₹0.00",
		999:        "₹999.00",
		1000:       "₹1,000.00",
		100000:     "₹1,00,000.00",
		1234567.89: "₹12,34,567.89",
		10000000:   "₹1,00,00,000.00",
		-50000:     "-₹50,000.00",
	}
	for amount, want := range cases {
		assert.Equal(t, want, FormatIndianCurrency(amount))
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "+2.50%", FormatPercent(2.5))
	assert.Equal(t, "-1.25%", FormatPercent(-1.25))
	assert.Equal(t, "0.00%", FormatPercent(0))

	assert.Equal(t, "1,234,567", FormatVolume(1234567))
	assert.Equal(t, "12", FormatVolume(11.6))
	assert.Equal(t, "1,523.40", FormatPrice(1523.4))
	assert.Equal(t, "9.1234", FormatPrice(9.12341))

	assert.Equal(t, "1:2.50", FormatRiskReward(2.5))
	assert.Equal(t, "2.50 L", FormatLakhs(250000))
	assert.Equal(t, "1.50 Cr", FormatCrores(15000000))

	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "2m 5s", FormatDuration(125*time.Second))
	assert.Equal(t, "1d 2h", FormatDuration(26*time.Hour))

	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abcdefg...", TruncateString("abcdefghijklmnop", 10))
}
