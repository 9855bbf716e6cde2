// Package fixedpoint implements exact non-negative integer arithmetic over
// atomic token units. No floating point value ever enters a settlement path.
package fixedpoint

import (
	"fmt"
	"math/big"
	"strings"
)

// Amount is a non-negative integer number of atoms. The zero value is 0.
type Amount struct {
	v *big.Int
}

var (
	bigZero = big.NewInt(0)
	bigTen  = big.NewInt(10)
)

func wrap(v *big.Int) Amount {
	if v.Sign() < 0 {
		panic("fixedpoint: negative amount")
	}
	return Amount{v: v}
}

// Zero returns the additive identity.
func Zero() Amount { return Amount{v: new(big.Int)} }

// FromInt64 builds an Amount from a non-negative int64 atom count.
func FromInt64(atoms int64) Amount {
	if atoms < 0 {
		panic("fixedpoint: negative amount")
	}
	return Amount{v: big.NewInt(atoms)}
}

// FromUint64 builds an Amount from a uint64 atom count.
func FromUint64(atoms uint64) Amount {
	return Amount{v: new(big.Int).SetUint64(atoms)}
}

// FromBigInt builds an Amount from a big.Int, rejecting negatives.
func FromBigInt(v *big.Int) (Amount, error) {
	if v.Sign() < 0 {
		return Amount{}, fmt.Errorf("fixedpoint: negative amount %s", v.String())
	}
	return Amount{v: new(big.Int).Set(v)}, nil
}

// Pow10 returns 10^n as an Amount, used to shift between atoms and human units.
func Pow10(n uint8) Amount {
	return Amount{v: new(big.Int).Exp(bigTen, big.NewInt(int64(n)), nil)}
}

func (a Amount) big() *big.Int {
	if a.v == nil {
		return bigZero
	}
	return a.v
}

// FromDecimalString parses a decimal human-unit string (e.g. "1.50000000")
// at the given number of decimals into its atomic representation. Rejects
// negative values, malformed input, and precision beyond `decimals`.
func FromDecimalString(s string, decimals uint8) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("fixedpoint: empty decimal string")
	}
	if strings.HasPrefix(s, "-") {
		return Amount{}, fmt.Errorf("fixedpoint: negative decimal string %q", s)
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if !hasFrac {
		frac = ""
	}
	if len(frac) > int(decimals) {
		return Amount{}, fmt.Errorf("fixedpoint: %q has more than %d fractional digits", s, decimals)
	}
	frac = frac + strings.Repeat("0", int(decimals)-len(frac))

	digits := whole + frac
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Amount{}, fmt.Errorf("fixedpoint: malformed decimal string %q", s)
	}
	return wrap(v), nil
}

// ToDecimalString renders the atomic amount as a human-unit decimal string
// at the given number of decimals, e.g. 1500000000 at 8 decimals -> "15.00000000".
func (a Amount) ToDecimalString(decimals uint8) string {
	s := a.big().String()
	if decimals == 0 {
		return s
	}
	for len(s) <= int(decimals) {
		s = "0" + s
	}
	cut := len(s) - int(decimals)
	return s[:cut] + "." + s[cut:]
}

// String renders the raw atom count, with no decimal shifting.
func (a Amount) String() string { return a.big().String() }

// FromAtomString parses a raw non-negative integer atom count, the inverse
// of String. Used for JSON and SQL round-tripping, where the number of
// decimals isn't known at the Amount level.
func FromAtomString(s string) (Amount, error) {
	if s == "" {
		return Zero(), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("fixedpoint: malformed atom string %q", s)
	}
	return FromBigInt(v)
}

// MarshalJSON encodes the amount as a JSON string of its raw atom count,
// never as a JSON number, so precision is never lost to float64 conversion.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.big().String() + `"`), nil
}

// UnmarshalJSON decodes an atom-count string produced by MarshalJSON.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := FromAtomString(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return wrap(new(big.Int).Add(a.big(), b.big()))
}

// CheckedSub returns a - b, failing if b > a.
func (a Amount) CheckedSub(b Amount) (Amount, error) {
	if a.Cmp(b) < 0 {
		return Amount{}, fmt.Errorf("fixedpoint: underflow %s - %s", a.String(), b.String())
	}
	return wrap(new(big.Int).Sub(a.big(), b.big())), nil
}

// Mul returns a * b using an arbitrary-precision intermediate; it never
// silently overflows.
func (a Amount) Mul(b Amount) Amount {
	return wrap(new(big.Int).Mul(a.big(), b.big()))
}

// FloorDiv returns a / b truncated toward zero (equivalent to floor for
// non-negative operands). Panics on division by zero — callers must
// validate divisors (e.g. 10^decimals, 10_000) up front.
func (a Amount) FloorDiv(b Amount) Amount {
	if b.big().Sign() == 0 {
		panic("fixedpoint: division by zero")
	}
	return wrap(new(big.Int).Quo(a.big(), b.big()))
}

// Mod returns a % b.
func (a Amount) Mod(b Amount) Amount {
	if b.big().Sign() == 0 {
		panic("fixedpoint: modulo by zero")
	}
	return wrap(new(big.Int).Mod(a.big(), b.big()))
}

// Cmp returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func (a Amount) Cmp(b Amount) int { return a.big().Cmp(b.big()) }

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool { return a.big().Sign() == 0 }

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool { return a.big().Sign() > 0 }

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// DivisibleBy reports whether a is an exact multiple of step (step must be positive).
func (a Amount) DivisibleBy(step Amount) bool {
	return a.Mod(step).IsZero()
}

// QuoteNotional computes price * size / 10^baseDecimals, truncated toward
// zero, per the exchange's notional convention.
func QuoteNotional(price, size Amount, baseDecimals uint8) Amount {
	return price.Mul(size).FloorDiv(Pow10(baseDecimals))
}

// Fee computes the fee on notional at the given signed basis points. A
// positive bps is a fee debited from the trader; a negative bps is a
// rebate to be credited. The returned amount is always non-negative;
// `credit` reports which direction it moves.
func Fee(bps int32, notional Amount) (fee Amount, credit bool) {
	abs := bps
	if abs < 0 {
		abs = -abs
		credit = true
	}
	fee = notional.Mul(FromInt64(int64(abs))).FloorDiv(FromInt64(10_000))
	return fee, credit
}

// MaxAffordableSize returns the largest size such that
// QuoteNotional(price, size, baseDecimals) plus its taker fee (only when
// feeBps is positive; a rebate never shrinks the affordable size) does not
// exceed budget. Used by market-buy orders, whose size is bounded by a
// quote funding cap rather than a fixed base quantity.
func MaxAffordableSize(price, budget Amount, baseDecimals uint8, feeBps int32) Amount {
	if price.IsZero() || budget.IsZero() {
		return Zero()
	}
	scale := Pow10(baseDecimals)
	denomBps := int64(10_000)
	if feeBps > 0 {
		denomBps += int64(feeBps)
	}
	// size <= budget * scale * 10000 / (price * (10000 + feeBps))
	numerator := budget.Mul(scale).Mul(FromInt64(10_000))
	denominator := price.Mul(FromInt64(denomBps))
	size := numerator.FloorDiv(denominator)

	cost := func(s Amount) Amount {
		notional := QuoteNotional(price, s, baseDecimals)
		if feeBps <= 0 {
			return notional
		}
		fee, _ := Fee(feeBps, notional)
		return notional.Add(fee)
	}

	// The stacked floor divisions above can under- or over-shoot by a small
	// amount; walk to the exact boundary. The true error is bounded by a
	// handful of units, but the walk is capped defensively either way.
	const maxAdjust = 8
	for i := 0; i < maxAdjust && size.IsPositive() && cost(size).Cmp(budget) > 0; i++ {
		size, _ = size.CheckedSub(FromInt64(1))
	}
	for i := 0; i < maxAdjust && cost(size.Add(FromInt64(1))).Cmp(budget) <= 0; i++ {
		size = size.Add(FromInt64(1))
	}
	return size
}
