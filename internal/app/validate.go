package app

import (
	"time"

	"github.com/nyaruka/phonenumbers"
)

// DateIsValid reports whether value parses exactly against layout. A nil or
// empty value is valid only when nullAllowed — some hotels genuinely run
// open-ended stays.
func DateIsValid(value *string, layout string, nullAllowed bool) bool {
	if value == nil || *value == "" {
		return nullAllowed
	}
	_, err := time.Parse(layout, *value)
	return err == nil
}

// PhoneIsValid parses without a region hint: guests travel, so the number's
// country routinely differs from the hotel's.
func PhoneIsValid(value string) bool {
	num, err := phonenumbers.Parse(value, "")
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}

// CheckinCheckoutAreValid validates both dates individually (null allowed)
// and, when both are present, rejects a checkout before the checkin.
func CheckinCheckoutAreValid(checkin, checkout *string) bool {
	if !DateIsValid(checkin, dateLayout, true) || !DateIsValid(checkout, dateLayout, true) {
		return false
	}
	if checkin == nil || *checkin == "" || checkout == nil || *checkout == "" {
		return true
	}
	in, _ := time.Parse(dateLayout, *checkin)
	out, _ := time.Parse(dateLayout, *checkout)
	return !out.Before(in)
}

const dateLayout = "2006-01-02"
