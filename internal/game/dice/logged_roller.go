package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged dice rolling.
// Every draw is logged at debug level so an attack can be audited afterwards.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the underlying randomness source.
func (r *Roller) Source() Source { return r.src }

// D10 rolls and logs one ten-sided die.
func (r *Roller) D10() int {
	v := D10(r.src)
	r.logger.Debug("dice roll", zap.String("die", "d10"), zap.Int("result", v))
	return v
}

// D100 rolls and logs one percentile die.
func (r *Roller) D100() int {
	v := D100(r.src)
	r.logger.Debug("dice roll", zap.String("die", "d100"), zap.Int("result", v))
	return v
}

// RollN rolls and logs n dice of the given size.
func (r *Roller) RollN(n, sides int) []int {
	v := RollN(r.src, n, sides)
	r.logger.Debug("dice roll",
		zap.Int("count", n),
		zap.Int("sides", sides),
		zap.Ints("dice", v),
	)
	return v
}

// RollExpr parses expr and rolls it, logging the result.
//
// Postcondition: Returns a RollResult or a parse error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	result, err := RollExpr(expr, r.src)
	if err != nil {
		return RollResult{}, err
	}
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result, nil
}
