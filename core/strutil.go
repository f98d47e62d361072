package core

import "strconv"

// itoa converts an integer to a string without using fmt package
// Used for status codes on the device path, where fmt is too heavy
func itoa(n int) string {
	if n < 0 {
		return "-" + u64toa(uint64(-int64(n)))
	}
	return u64toa(uint64(n))
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	return u64toa(uint64(n))
}

func u64toa(n uint64) string {
	if n == 0 {
		return "0"
	}

	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// ftoa formats a reading. precision < 0 selects the shortest
// representation that reads back to the same float32.
func ftoa(v float32, precision int) string {
	return strconv.FormatFloat(float64(v), 'f', precision, 32)
}
