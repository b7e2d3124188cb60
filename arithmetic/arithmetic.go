package arithmetic

// Gcd returns the greatest common divisor of a and b.
func Gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

// Lcm returns the least common multiple of p and q. Used by the
// Maintenance Scheduler to derive a single base tick covering every
// job's interval.
func Lcm(p, q int) int {
	return p / Gcd(p, q) * q
}

// ModExp computes base^exp mod m via repeated squaring.
func ModExp(base, exp, mod int) int {
	result := 1 % mod
	base = base % mod

	for exp > 0 {
		if exp&1 == 1 {
			result = (result * base) % mod
		}
		base = (base * base) % mod
		exp >>= 1
	}
	return result
}
