package tabular

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrBadNumber = errors.New("not a number")

// NumberFormat describes how a locale writes numbers: "1,234.5" in English,
// "1.234,5" in German.
type NumberFormat struct {
	Group   string
	Decimal string
}

var English = NumberFormat{Group: ",", Decimal: "."}

// FormatFor reads the separators a locale uses off a formatted sample. A
// locale that prints no separators falls back to English.
func FormatFor(tag language.Tag) NumberFormat {
	sample := message.NewPrinter(tag).Sprintf("%.1f", 1234567.5)
	var seps []string
	for _, r := range sample {
		if !unicode.IsDigit(r) {
			seps = append(seps, string(r))
		}
	}
	switch len(seps) {
	case 0:
		return English
	case 1:
		return NumberFormat{Decimal: seps[0]}
	}
	return NumberFormat{Group: seps[0], Decimal: seps[len(seps)-1]}
}

// ParseInt parses a whole number that may contain group separators.
func (nf NumberFormat) ParseInt(s string) (int64, error) {
	clean, err := nf.normalize(s)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadNumber, s)
	}
	return n, nil
}

// ParseFloat parses a decimal number that may contain group separators.
func (nf NumberFormat) ParseFloat(s string) (float64, error) {
	clean, err := nf.normalize(s)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadNumber, s)
	}
	return f, nil
}

func (nf NumberFormat) normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty value", ErrBadNumber)
	}
	switch {
	case nf.Group == "":
	case isSpace(nf.Group):
		// Files mix plain, no-break and narrow no-break spaces.
		s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(s)
	case nf.Group == "'" || nf.Group == "\u2019":
		s = strings.NewReplacer("'", "", "\u2019", "").Replace(s)
	default:
		s = strings.ReplaceAll(s, nf.Group, "")
	}
	if nf.Decimal != "" && nf.Decimal != "." {
		s = strings.ReplaceAll(s, nf.Decimal, ".")
	}
	return s, nil
}

func isSpace(sep string) bool {
	r, _ := utf8.DecodeRuneInString(sep)
	return unicode.IsSpace(r)
}

// Count formats n with the locale's digit grouping for log output.
func Count(tag language.Tag, n int) string {
	return message.NewPrinter(tag).Sprintf("%d", n)
}
