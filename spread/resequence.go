package spread

// CoprimeSkip raises the configured stride until it is coprime with n,
// which makes the permutation in Resequence a bijection over [0, n).
func CoprimeSkip(n, skip int) int {
	if n <= 1 || skip <= 1 {
		return 1
	}
	for gcd(skip, n) != 1 {
		skip++
	}
	return skip
}

// Resequence permutes work item i over a domain of n items using a
// stride coprime with n. Adjacent workers land on items roughly skip
// apart, which decorrelates the cells they touch at the same moment and
// cuts contention on the atomic accumulator. This is purely a
// throughput heuristic: no result depends on the processing order.
func Resequence(i, n, skip int) int {
	if skip <= 1 {
		return i
	}
	return (i * skip) % n
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
