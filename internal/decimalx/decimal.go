package decimalx

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/apd/v3"
)

// Precision is the number of significant decimal digits carried by every
// trajectory computation. 77 digits is roughly 256 bits of mantissa.
const Precision = 77

// ErrDomain marks arguments outside a function's mathematical domain.
var ErrDomain = errors.New("decimal domain error")

// DomainError reports an argument outside the domain of Op.
type DomainError struct {
	Op    string
	Value string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: argument %s outside domain", e.Op, e.Value)
}

func (e *DomainError) Unwrap() error { return ErrDomain }

// Context returns a fresh arithmetic context configured for Precision digits
// with half-even rounding. Callers may mutate the returned value.
func Context() *apd.Context {
	ctx := apd.BaseContext.WithPrecision(Precision)
	ctx.Rounding = apd.RoundHalfEven
	return ctx
}

var ln2 = sync.OnceValue(func() *apd.Decimal {
	ctx := Context()
	out := new(apd.Decimal)
	if _, err := ctx.Ln(out, apd.New(2, 0)); err != nil {
		panic(fmt.Sprintf("decimalx: compute ln(2): %v", err))
	}
	return out
})

// Ln2 returns ln(2) at full precision. The returned value must not be mutated.
func Ln2() *apd.Decimal {
	return ln2()
}

// Parse reads a decimal from its string form without rounding, so every digit
// present in s survives. NaN and infinities are rejected.
func Parse(s string) (*apd.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, errors.New("parse decimal: empty value")
	}
	d, _, err := apd.NewFromString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return nil, fmt.Errorf("parse decimal %q: value must be finite", s)
	}
	return d, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) *apd.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromInt returns v as a decimal.
func FromInt(v int64) *apd.Decimal {
	return apd.New(v, 0)
}

// Format renders d in scientific-or-plain notation with every stored digit.
// Parse(Format(d)) reproduces d exactly.
func Format(d *apd.Decimal) string {
	if d == nil {
		return ""
	}
	return d.Text('G')
}

// Float64 converts d for display purposes only.
func Float64(d *apd.Decimal) float64 {
	if d == nil {
		return 0
	}
	f, err := d.Float64()
	if err != nil {
		return 0
	}
	return f
}

// Clone returns an independent copy of d.
func Clone(d *apd.Decimal) *apd.Decimal {
	if d == nil {
		return nil
	}
	return new(apd.Decimal).Set(d)
}

// Log2 returns log base 2 of d. It fails with a *DomainError for d <= 0.
func Log2(d *apd.Decimal) (*apd.Decimal, error) {
	if d == nil || d.Sign() <= 0 {
		return nil, &DomainError{Op: "log2", Value: Format(d)}
	}
	ctx := Context()
	ln := new(apd.Decimal)
	if _, err := ctx.Ln(ln, d); err != nil {
		return nil, fmt.Errorf("log2: %w", err)
	}
	out := new(apd.Decimal)
	if _, err := ctx.Quo(out, ln, Ln2()); err != nil {
		return nil, fmt.Errorf("log2: %w", err)
	}
	return out, nil
}

// Pow2 returns 2 raised to exponent.
func Pow2(exponent *apd.Decimal) (*apd.Decimal, error) {
	if exponent == nil {
		return nil, errors.New("pow2: nil exponent")
	}
	if exponent.IsZero() {
		return apd.New(1, 0), nil
	}
	ctx := Context()
	scaled := new(apd.Decimal)
	if _, err := ctx.Mul(scaled, exponent, Ln2()); err != nil {
		return nil, fmt.Errorf("pow2: %w", err)
	}
	out := new(apd.Decimal)
	if _, err := ctx.Exp(out, scaled); err != nil {
		return nil, fmt.Errorf("pow2: %w", err)
	}
	return out, nil
}

// Pow returns base raised to a possibly fractional exponent. base must be
// non-negative; zero raised to a positive exponent is zero.
func Pow(base, exponent *apd.Decimal) (*apd.Decimal, error) {
	if base == nil || exponent == nil {
		return nil, errors.New("pow: nil operand")
	}
	if base.Sign() < 0 {
		return nil, &DomainError{Op: "pow", Value: Format(base)}
	}
	if base.IsZero() {
		if exponent.Sign() <= 0 {
			return nil, &DomainError{Op: "pow", Value: Format(base)}
		}
		return apd.New(0, 0), nil
	}
	out := new(apd.Decimal)
	if _, err := Context().Pow(out, base, exponent); err != nil {
		return nil, fmt.Errorf("pow: %w", err)
	}
	return out, nil
}

// Lerp returns a + (b-a)*t.
func Lerp(a, b, t *apd.Decimal) (*apd.Decimal, error) {
	c := NewCalc()
	out := c.Add(a, c.Mul(c.Sub(b, a), t))
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("lerp: %w", err)
	}
	return out, nil
}
