package search

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoPrice is returned when a price string carries no parseable positive
// amount. Items hitting this error are dropped, never persisted with a
// silently-accepted zero price.
var ErrNoPrice = errors.New("no parseable positive price")

// priceTokenRE captures the first run of digits with optional grouping and
// decimal separators, e.g. "1.234,56" out of "₺1.234,56 KDV dahil".
var priceTokenRE = regexp.MustCompile(`\d[\d.,]*`)

// ParsePrice extracts a numeric amount from a localized price string.
//
// Both the Turkish convention ("₺1.234,56" → 1234.56, dot groups thousands,
// comma marks decimals) and the dollar convention ("$12.30" → 12.30) are
// handled. When both separators appear, the one occurring last is the decimal
// mark; a lone separator followed by exactly three digits is treated as a
// thousands group.
func ParsePrice(s string) (float64, error) {
	tok := priceTokenRE.FindString(s)
	if tok == "" {
		return 0, ErrNoPrice
	}
	tok = strings.Trim(tok, ".,")

	lastDot := strings.LastIndexByte(tok, '.')
	lastComma := strings.LastIndexByte(tok, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			tok = strings.ReplaceAll(tok, ".", "")
			tok = strings.Replace(tok, ",", ".", 1)
		} else {
			tok = strings.ReplaceAll(tok, ",", "")
		}
	case lastComma >= 0:
		tok = normalizeSingleSep(tok, ',')
	case lastDot >= 0:
		tok = normalizeSingleSep(tok, '.')
	}

	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || v <= 0 {
		return 0, ErrNoPrice
	}
	return v, nil
}

// normalizeSingleSep resolves a price token containing only one kind of
// separator. A single occurrence followed by one or two digits is a decimal
// mark; everything else (three-digit tails, repeated separators) is grouping.
func normalizeSingleSep(tok string, sep byte) string {
	last := strings.LastIndexByte(tok, string(sep)[0])
	frac := len(tok) - last - 1
	single := strings.Count(tok, string(sep)) == 1
	if single && (frac == 1 || frac == 2) {
		return strings.Replace(tok, string(sep), ".", 1)
	}
	return strings.ReplaceAll(tok, string(sep), "")
}
