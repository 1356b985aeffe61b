package decimalx

import (
	"errors"

	"github.com/cockroachdb/apd/v3"
)

// Calc chains arithmetic at Precision digits and keeps the first error.
// Once an operation fails every later call returns zero and Err reports
// the original failure.
type Calc struct {
	ctx *apd.Context
	err error
}

// NewCalc returns a Calc using Context().
func NewCalc() *Calc {
	return &Calc{ctx: Context()}
}

// Err returns the first error encountered.
func (c *Calc) Err() error {
	return c.err
}

func (c *Calc) apply(op func(out *apd.Decimal) (apd.Condition, error), operands ...*apd.Decimal) *apd.Decimal {
	out := new(apd.Decimal)
	if c.err != nil {
		return out
	}
	for _, operand := range operands {
		if operand == nil {
			c.err = errors.New("nil decimal operand")
			return out
		}
	}
	if _, err := op(out); err != nil {
		c.err = err
	}
	return out
}

func (c *Calc) Add(x, y *apd.Decimal) *apd.Decimal {
	return c.apply(func(out *apd.Decimal) (apd.Condition, error) { return c.ctx.Add(out, x, y) }, x, y)
}

func (c *Calc) Sub(x, y *apd.Decimal) *apd.Decimal {
	return c.apply(func(out *apd.Decimal) (apd.Condition, error) { return c.ctx.Sub(out, x, y) }, x, y)
}

func (c *Calc) Mul(x, y *apd.Decimal) *apd.Decimal {
	return c.apply(func(out *apd.Decimal) (apd.Condition, error) { return c.ctx.Mul(out, x, y) }, x, y)
}

func (c *Calc) Quo(x, y *apd.Decimal) *apd.Decimal {
	return c.apply(func(out *apd.Decimal) (apd.Condition, error) { return c.ctx.Quo(out, x, y) }, x, y)
}

func (c *Calc) Floor(x *apd.Decimal) *apd.Decimal {
	return c.apply(func(out *apd.Decimal) (apd.Condition, error) { return c.ctx.Floor(out, x) }, x)
}

// Round rounds x to the given number of significant digits.
func (c *Calc) Round(x *apd.Decimal, digits uint32) *apd.Decimal {
	rounding := *c.ctx
	rounding.Precision = digits
	return c.apply(func(out *apd.Decimal) (apd.Condition, error) { return rounding.Round(out, x) }, x)
}

// Log2 is the chained form of the package-level Log2.
func (c *Calc) Log2(x *apd.Decimal) *apd.Decimal {
	if c.err != nil {
		return new(apd.Decimal)
	}
	out, err := Log2(x)
	if err != nil {
		c.err = err
		return new(apd.Decimal)
	}
	return out
}

// Pow2 is the chained form of the package-level Pow2.
func (c *Calc) Pow2(x *apd.Decimal) *apd.Decimal {
	if c.err != nil {
		return new(apd.Decimal)
	}
	out, err := Pow2(x)
	if err != nil {
		c.err = err
		return new(apd.Decimal)
	}
	return out
}

// Pow is the chained form of the package-level Pow.
func (c *Calc) Pow(base, exponent *apd.Decimal) *apd.Decimal {
	if c.err != nil {
		return new(apd.Decimal)
	}
	out, err := Pow(base, exponent)
	if err != nil {
		c.err = err
		return new(apd.Decimal)
	}
	return out
}
