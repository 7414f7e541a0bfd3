package model

import "time"

// Night truncates t to UTC midnight, the canonical form for ledger dates.
func Night(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NightsBetween expands a half-open [checkIn, checkOut) range into the
// nights it covers. Returns nil when the range is empty or inverted.
func NightsBetween(checkIn, checkOut time.Time) []time.Time {
	start := Night(checkIn)
	end := Night(checkOut)
	if !start.Before(end) {
		return nil
	}

	var nights []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}

// StayLength returns the number of nights in [checkIn, checkOut).
func StayLength(checkIn, checkOut time.Time) int {
	return len(NightsBetween(checkIn, checkOut))
}
