package entities

import "time"

// ComponentID is the stable identifier of a raw component
type ComponentID int64

// ProductID is the stable identifier of a product definition
type ProductID int64

// OrderID is the stable identifier of a production order
type OrderID int64

// Quantity represents an integer quantity value for discrete manufacturing units
type Quantity int64

// AddQuantity returns a+b, or false when the sum does not fit a Quantity
func AddQuantity(a, b Quantity) (Quantity, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

// Clock supplies timestamps for created/updated/completed stamps
type Clock func() time.Time

// SystemClock returns the current UTC time
func SystemClock() time.Time {
	return time.Now().UTC()
}
