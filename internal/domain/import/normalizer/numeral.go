// Package normalizer holds the numeral/letter tables and text cleanup shared by every question parser.
package normalizer

import (
	"strconv"
	"strings"
)

// OptionLetters are the canonical option and part labels, in order.
var OptionLetters = []string{"a", "b", "c", "d"}

var bengaliDigits = map[rune]rune{
	'০': '0', '১': '1', '২': '2', '৩': '3', '৪': '4',
	'৫': '5', '৬': '6', '৭': '7', '৮': '8', '৯': '9',
}

// optionTokens maps every accepted option spelling to its canonical letter
var optionTokens = map[string]string{
	"a": "a", "b": "b", "c": "c", "d": "d",
	"A": "a", "B": "b", "C": "c", "D": "d",
	"ক": "a", "খ": "b", "গ": "c", "ঘ": "d",
	"1": "a", "2": "b", "3": "c", "4": "d",
	"১": "a", "২": "b", "৩": "c", "৪": "d",
}

// OptionLetter returns the canonical a-d letter for an option token written as
// an ASCII letter, a Bengali letter, an ASCII digit or a Bengali digit.
// Any other token is returned unchanged.
func OptionLetter(token string) string {
	if letter, ok := optionTokens[token]; ok {
		return letter
	}
	return token
}

// IsOptionLetter reports whether token normalizes to one of a-d
func IsOptionLetter(token string) bool {
	_, ok := optionTokens[token]
	return ok
}

// LetterFromIndex returns the label of the i-th option (0-based), or "" when out of range
func LetterFromIndex(i int) string {
	if i < 0 || i >= len(OptionLetters) {
		return ""
	}
	return OptionLetters[i]
}

// ToASCIIDigits rewrites Bengali digits as ASCII digits, leaving other runes untouched
func ToASCIIDigits(s string) string {
	if !strings.ContainsFunc(s, isBengaliDigit) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if d, ok := bengaliDigits[r]; ok {
			return d
		}
		return r
	}, s)
}

// Atoi parses a number written in ASCII or Bengali digits
func Atoi(s string) (int, error) {
	return strconv.Atoi(ToASCIIDigits(strings.TrimSpace(s)))
}

func isBengaliDigit(r rune) bool {
	return r >= '০' && r <= '৯'
}
