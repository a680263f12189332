package utils

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// MathCodespace groups the checked arithmetic failures.
const MathCodespace = "lstvault_math"

// MaxBitLen is the widest magnitude an amount may carry.
const MaxBitLen = 256

var (
	ErrOverflow     = errorsmod.Register(MathCodespace, 2, "overflow")
	ErrUnderflow    = errorsmod.Register(MathCodespace, 3, "underflow")
	ErrDivideByZero = errorsmod.Register(MathCodespace, 4, "divide by zero")
)

var decPrecisionMultiplier = new(big.Int).Exp(big.NewInt(10), big.NewInt(sdkmath.LegacyPrecision), nil)

// OrZero maps an uninitialised Int to zero so that decoded records missing a field stay usable.
func OrZero(a sdkmath.Int) sdkmath.Int {
	if a.IsNil() {
		return sdkmath.ZeroInt()
	}
	return a
}

func fromBig(op string, a, b sdkmath.Int, r *big.Int) (sdkmath.Int, error) {
	if r.BitLen() > MaxBitLen {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(ErrOverflow, "Cannot %s with %s and %s", op, a, b)
	}
	return sdkmath.NewIntFromBigInt(r), nil
}

// CheckedAdd returns a+b or ErrOverflow.
func CheckedAdd(a, b sdkmath.Int) (sdkmath.Int, error) {
	a, b = OrZero(a), OrZero(b)
	return fromBig("Add", a, b, new(big.Int).Add(a.BigInt(), b.BigInt()))
}

// CheckedSub returns a-b, failing with ErrUnderflow when the result would be negative.
func CheckedSub(a, b sdkmath.Int) (sdkmath.Int, error) {
	a, b = OrZero(a), OrZero(b)
	if a.LT(b) {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(ErrUnderflow, "Cannot Sub with %s and %s", a, b)
	}
	return a.Sub(b), nil
}

// SaturatingSub returns max(a-b, 0).
func SaturatingSub(a, b sdkmath.Int) sdkmath.Int {
	a, b = OrZero(a), OrZero(b)
	if a.LT(b) {
		return sdkmath.ZeroInt()
	}
	return a.Sub(b)
}

// CheckedMul returns a*b or ErrOverflow.
func CheckedMul(a, b sdkmath.Int) (sdkmath.Int, error) {
	a, b = OrZero(a), OrZero(b)
	return fromBig("Mul", a, b, new(big.Int).Mul(a.BigInt(), b.BigInt()))
}

// MulRatio computes floor(a*num/den). The intermediate product is unbounded,
// only the result has to fit.
func MulRatio(a, num, den sdkmath.Int) (sdkmath.Int, error) {
	a, num, den = OrZero(a), OrZero(num), OrZero(den)
	if den.IsZero() {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(ErrDivideByZero, "Cannot divide %s by zero", a)
	}
	r := new(big.Int).Mul(a.BigInt(), num.BigInt())
	r.Quo(r, den.BigInt())
	return fromBig("MulRatio", a, num, r)
}

// MulDec computes floor(a*d) for a non-negative decimal.
func MulDec(a sdkmath.Int, d sdkmath.LegacyDec) (sdkmath.Int, error) {
	a = OrZero(a)
	if d.IsNil() || d.IsZero() || a.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	if d.IsNegative() {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(ErrUnderflow, "Cannot Mul with %s and %s", a, d)
	}
	r := new(big.Int).Mul(a.BigInt(), d.BigInt())
	r.Quo(r, decPrecisionMultiplier)
	if r.BitLen() > MaxBitLen {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(ErrOverflow, "Cannot Mul with %s and %s", a, d)
	}
	return sdkmath.NewIntFromBigInt(r), nil
}

// QuoDec computes floor(a/d).
func QuoDec(a sdkmath.Int, d sdkmath.LegacyDec) (sdkmath.Int, error) {
	a = OrZero(a)
	if d.IsNil() || !d.IsPositive() {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(ErrDivideByZero, "Cannot divide %s by zero", a)
	}
	r := new(big.Int).Mul(a.BigInt(), decPrecisionMultiplier)
	r.Quo(r, d.BigInt())
	if r.BitLen() > MaxBitLen {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(ErrOverflow, "Cannot Quo with %s and %s", a, d)
	}
	return sdkmath.NewIntFromBigInt(r), nil
}

// RatioDec returns num/den truncated to 18 decimals, failing on a zero denominator.
func RatioDec(num, den sdkmath.Int) (sdkmath.LegacyDec, error) {
	num, den = OrZero(num), OrZero(den)
	if den.IsZero() {
		return sdkmath.LegacyZeroDec(), errorsmod.Wrapf(ErrDivideByZero, "Cannot divide %s by zero", num)
	}
	r := new(big.Int).Mul(num.BigInt(), decPrecisionMultiplier)
	r.Quo(r, den.BigInt())
	if r.BitLen() > MaxBitLen+sdkmath.LegacyDecimalPrecisionBits {
		return sdkmath.LegacyZeroDec(), errorsmod.Wrapf(ErrOverflow, "Cannot Quo with %s and %s", num, den)
	}
	return sdkmath.LegacyNewDecFromBigIntWithPrec(r, sdkmath.LegacyPrecision), nil
}

// Sum adds all amounts, failing on overflow.
func Sum(amounts ...sdkmath.Int) (sdkmath.Int, error) {
	total := sdkmath.ZeroInt()
	for _, a := range amounts {
		var err error
		if total, err = CheckedAdd(total, a); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}
	return total, nil
}

// MinInt returns the smaller of two amounts.
func MinInt(a, b sdkmath.Int) sdkmath.Int {
	if OrZero(a).LT(OrZero(b)) {
		return a
	}
	return b
}
