package dice

// D10 rolls one ten-sided die.
//
// Postcondition: result is in [1, 10].
func D10(src Source) int {
	return src.Intn(10) + 1
}

// D100 rolls a percentile die.
//
// Postcondition: result is in [1, 100].
func D100(src Source) int {
	return src.Intn(100) + 1
}

// RollN rolls n dice with the given number of sides, in draw order.
//
// Precondition: n >= 0; sides >= 1.
// Postcondition: len(result) == n and every value is in [1, sides].
func RollN(src Source, n, sides int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = src.Intn(sides) + 1
	}
	return out
}

// ReverseDigits swaps the tens and units digit of a percentile roll, so 37
// becomes 73 and 5 (read as "05") becomes 50. 100 is read as "00" and maps to
// itself.
//
// Precondition: n is in [1, 100].
func ReverseDigits(n int) int {
	if n >= 100 || n <= 0 {
		return n
	}
	return (n%10)*10 + n/10
}

// Roll evaluates an Expression using the given Source.
//
// Precondition: expr must come from Parse; src must be non-nil.
// Postcondition: len(result.Dice) == expr.Count.
func Roll(expr Expression, src Source) RollResult {
	return RollResult{
		Expression: expr.Raw,
		Dice:       RollN(src, expr.Count, expr.Sides),
		Modifier:   expr.Modifier,
	}
}

// RollExpr parses expr and rolls it using src in a single call.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src), nil
}
