package core

// Accrue returns the balance owed on today for a user whose last snapshot
// holds balance on lastDay, crediting limit for every elapsed calendar day.
//
// When today is not after lastDay the balance is returned unchanged and
// daysPassed is zero or negative; callers must not materialize a new
// snapshot in that case. A result that does not fit in Money is
// ErrInvalidAmount.
func Accrue(balance Money, lastDay, today Day, limit Money) (accrued Money, daysPassed int, err error) {
	daysPassed = today.DaysSince(lastDay)
	if daysPassed <= 0 {
		return balance, daysPassed, nil
	}
	credit, err := limit.CheckedTimes(daysPassed)
	if err != nil {
		return Money{}, daysPassed, err
	}
	accrued, err = balance.CheckedAdd(credit)
	if err != nil {
		return Money{}, daysPassed, err
	}
	return accrued, daysPassed, nil
}
