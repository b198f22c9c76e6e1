// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package num

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Uint A wrapper to a big unsigned int with custom
// functions.
type Uint struct {
	u uint256.Int
}

// NewUint creates a new Uint with the value of the
// uint64 passed as a parameter.
func NewUint(val uint64) *Uint {
	return &Uint{*uint256.NewInt(val)}
}

// UintZero returns a new Uint set to 0.
func UintZero() *Uint {
	return NewUint(0)
}

// UintOne returns a new Uint set to 1.
func UintOne() *Uint {
	return NewUint(1)
}

// UintFromBig construct a new Uint with a big.Int
// returns true if overflow happened.
func UintFromBig(b *big.Int) (*Uint, bool) {
	// uint256 would two's-complement a negative value
	if b.Sign() < 0 {
		return UintZero(), true
	}
	u, overflow := uint256.FromBig(b)
	if overflow {
		return UintZero(), true
	}
	return &Uint{*u}, false
}

// UintFromString created a new Uint from a string
// interpreted using the given base.
// A big.Int is used to read the string, so
// all error related to big.Int parsing applied here.
// will return true if an error/overflow happened.
func UintFromString(str string, base int) (*Uint, bool) {
	b, ok := big.NewInt(0).SetString(str, base)
	if !ok {
		return UintZero(), true
	}
	return UintFromBig(b)
}

// UintFromDecimal returns a new Uint from a Decimal, the Decimal is
// truncated toward zero. Returns true if overflow happened, or the
// Decimal was negative.
func UintFromDecimal(d Decimal) (*Uint, bool) {
	if d.IsNegative() {
		return UintZero(), true
	}
	return UintFromBig(d.BigInt())
}

// MustUintFromString creates a new Uint from a string, it panics on
// failure. To be used only with hard-coded or already validated input.
func MustUintFromString(str string, base int) *Uint {
	u, overflow := UintFromString(str, base)
	if overflow {
		panic("uint256: overflow or malformed input " + str)
	}
	return u
}

// Sum just removes the need to write num.UintZero().AddSum(x, y, z)
// so you can write num.Sum(x, y, z) instead, equivalent, but simpler.
func Sum(vals ...*Uint) *Uint {
	return UintZero().AddSum(vals...)
}

// Min returns the smallest of the 2 numbers.
func Min(x, y *Uint) *Uint {
	if x.LT(y) {
		return x.Clone()
	}
	return y.Clone()
}

// Max returns the largest of the 2 numbers.
func Max(x, y *Uint) *Uint {
	if x.GT(y) {
		return x.Clone()
	}
	return y.Clone()
}

// Clone creates a copy of the uint so it's safe to mutate.
func (u *Uint) Clone() *Uint {
	if u == nil {
		return UintZero()
	}
	return &Uint{u.u}
}

// Copy sets u to x and returns u.
func (u *Uint) Copy(x *Uint) *Uint {
	u.u = x.u
	return u
}

// Add will add x and y then store the result into u
// this is equivalent to:
// `u = x + y`
// u is returned for convenience, no new variable is created.
func (u *Uint) Add(x, y *Uint) *Uint {
	u.u.Add(&x.u, &y.u)
	return u
}

// AddSum adds multiple values at the same time to a given uint
// so x.AddSum(y, z) is equivalent to x + y + z.
func (u *Uint) AddSum(vals ...*Uint) *Uint {
	for _, x := range vals {
		u.u.Add(&u.u, &x.u)
	}
	return u
}

// Sub will subtract y from x then store the result into u
// this is equivalent to:
// `u = x - y`
// u is returned for convenience, no new variable is created.
func (u *Uint) Sub(x, y *Uint) *Uint {
	u.u.Sub(&x.u, &y.u)
	return u
}

// Delta returns the difference between x and y, the second return value is
// true if the difference is negative (x < y), in which case the absolute
// value is returned.
func (u *Uint) Delta(x, y *Uint) (*Uint, bool) {
	if x.GTE(y) {
		return u.Sub(x, y), false
	}
	return u.Sub(y, x), true
}

// Mul will multiply x and y then store the result into u
// this is equivalent to:
// `u = x * y`
// u is returned for convenience, no new variable is created.
func (u *Uint) Mul(x, y *Uint) *Uint {
	u.u.Mul(&x.u, &y.u)
	return u
}

// Div will divide x by y then store the result into u
// this is equivalent to:
// `u = x / y`
// u is returned for convenience, no new variable is created.
func (u *Uint) Div(x, y *Uint) *Uint {
	u.u.Div(&x.u, &y.u)
	return u
}

// EQ returns true if the value represented by u is equal to x.
func (u *Uint) EQ(x *Uint) bool {
	return u.u.Eq(&x.u)
}

// NEQ returns true if the value represented by u is different from x.
func (u *Uint) NEQ(x *Uint) bool {
	return !u.u.Eq(&x.u)
}

// GT returns true if the value represented by u is greater than x.
func (u *Uint) GT(x *Uint) bool {
	return u.u.Gt(&x.u)
}

// GTE returns true if the value represented by u is greater than or equal
// to x.
func (u *Uint) GTE(x *Uint) bool {
	return !u.u.Lt(&x.u)
}

// LT returns true if the value represented by u is less than x.
func (u *Uint) LT(x *Uint) bool {
	return u.u.Lt(&x.u)
}

// LTE returns true if the value represented by u is less than or equal
// to x.
func (u *Uint) LTE(x *Uint) bool {
	return !u.u.Gt(&x.u)
}

// IsZero returns true if the stored value is 0.
func (u *Uint) IsZero() bool {
	return u.u.IsZero()
}

// Uint64 returns the lower 64-bits of the value.
func (u *Uint) Uint64() uint64 {
	return u.u.Uint64()
}

// BigInt returns the value in the form of a big.Int.
func (u *Uint) BigInt() *big.Int {
	return u.u.ToBig()
}

// ToDecimal returns the value in the form of a Decimal.
func (u *Uint) ToDecimal() Decimal {
	return DecimalFromUint(u)
}

// String returns the stored value as a base 10 string.
func (u *Uint) String() string {
	return u.u.ToBig().String()
}
