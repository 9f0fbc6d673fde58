package entities

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"DisasterTriage/internal/domain"
)

const areaCodes = `11|12|13|14|15|16|17|18|19|21|22|24|27|28|31|32|33|34|35|37|38|41|42|43|44|45|46|47|48|49|51|53|54|55|61|62|63|64|65|66|67|68|69|71|73|74|75|77|79|81|82|83|84|85|86|87|88|89|91|92|93|94|95|96|97|98|99`

var (
	nationalPhoneExpr  = regexp.MustCompile(`(?:\+55\s?)?(?:\(?0?(?:` + areaCodes + `)\)?\s?)?(?:9\s?)?[0-9]{4}[-\s]?[0-9]{4}\b`)
	emergencyPhoneExpr = regexp.MustCompile(`\b(?:190|192|193|199|911)\b`)
	emergencyCodes     = map[string]bool{"190": true, "192": true, "193": true, "199": true, "911": true}
)

// findPhones returns national numbers first, then emergency short codes.
func findPhones(text string) []domain.Phone {
	phones := make([]domain.Phone, 0)
	for _, m := range nationalPhoneExpr.FindAllStringIndex(text, -1) {
		if !startsToken(text, m[0]) {
			continue
		}
		phones = append(phones, newPhone(text[m[0]:m[1]]))
	}
	for _, m := range emergencyPhoneExpr.FindAllStringIndex(text, -1) {
		phones = append(phones, newPhone(text[m[0]:m[1]]))
	}
	return phones
}

// startsToken rejects matches that begin inside a longer digit or word run.
func startsToken(text string, start int) bool {
	if start == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:start])
	return !unicode.IsDigit(prev) && !unicode.IsLetter(prev)
}

func newPhone(raw string) domain.Phone {
	raw = strings.TrimSpace(raw)
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(digits) >= 12 && strings.HasPrefix(digits, "55") {
		digits = digits[2:]
	}
	return domain.Phone{Raw: raw, Normalized: digits, Type: phoneType(digits)}
}

// phoneType: emergency short code; 11 digits with a 9 after the area code is
// mobile; 10 digits is landline; 9 digits starting with 9 is mobile; 8 digits
// is landline.
func phoneType(digits string) domain.PhoneType {
	switch {
	case emergencyCodes[digits]:
		return domain.PhoneEmergency
	case len(digits) == 11 && digits[2] == '9':
		return domain.PhoneMobile
	case len(digits) == 10:
		return domain.PhoneLandline
	case len(digits) == 9 && digits[0] == '9':
		return domain.PhoneMobile
	case len(digits) == 8:
		return domain.PhoneLandline
	default:
		return domain.PhoneUnknown
	}
}
