package identity

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for numbers typed without a country code.
const DefaultRegion = "IN"

// ParsePhone normalises raw to E.164 without the leading '+'. Empty input
// yields an empty phone and no error.
func ParsePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	if region == "" {
		region = DefaultRegion
	}

	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return "", fmt.Errorf("parse phone %q: %w", raw, err)
	}

	if !phonenumbers.IsPossibleNumber(num) {
		return "", fmt.Errorf("phone %q is not a possible number", raw)
	}

	return strings.TrimPrefix(phonenumbers.Format(num, phonenumbers.E164), "+"), nil
}

// PhoneOrEmpty is ParsePhone that maps unparsable numbers to an absent phone.
func PhoneOrEmpty(raw, region string) string {
	phone, err := ParsePhone(raw, region)
	if err != nil {
		return ""
	}
	return phone
}
