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

package netparams

import (
	"fmt"
	"time"

	"code.ingotprotocol.io/ingot/libs/num"

	"github.com/pkg/errors"
)

var (
	decimalZero = num.DecimalZero()
	decimalOne  = num.DecimalOne()
	uintZero    = num.UintZero()
)

type baseValue struct{}

func (b *baseValue) ToDecimal() (num.Decimal, error) {
	return num.DecimalZero(), errors.New("not a decimal value")
}

func (b *baseValue) ToUint() (*num.Uint, error) {
	return num.UintZero(), errors.New("not an uint value")
}

func (b *baseValue) ToDuration() (time.Duration, error) {
	return 0, errors.New("not a time.Duration value")
}

// DecimalRule validates a candidate decimal value.
type DecimalRule func(num.Decimal) error

type DecimalValue struct {
	*baseValue
	value   num.Decimal
	rawval  string
	rules   []DecimalRule
	mutable bool
}

func NewDecimal(rules ...DecimalRule) *DecimalValue {
	return &DecimalValue{
		baseValue: &baseValue{},
		rules:     rules,
	}
}

func (d *DecimalValue) ToDecimal() (num.Decimal, error) {
	return d.value, nil
}

func (d *DecimalValue) Validate(value string) error {
	val, err := num.DecimalFromString(value)
	if err != nil {
		return err
	}
	if !d.mutable {
		return errors.New("value is not mutable")
	}
	for _, fn := range d.rules {
		if err := fn(val); err != nil {
			return err
		}
	}
	return nil
}

func (d *DecimalValue) Update(value string) error {
	if err := d.Validate(value); err != nil {
		return err
	}
	// error already checked by Validate
	d.value, _ = num.DecimalFromString(value)
	d.rawval = value
	return nil
}

func (d *DecimalValue) Mutable(b bool) *DecimalValue {
	d.mutable = b
	return d
}

func (d *DecimalValue) MustUpdate(value string) *DecimalValue {
	val, err := num.DecimalFromString(value)
	if err != nil {
		panic(err)
	}
	for _, fn := range d.rules {
		if err := fn(val); err != nil {
			panic(err)
		}
	}
	d.value = val
	d.rawval = value
	return d
}

func (d *DecimalValue) String() string {
	return d.rawval
}

func DecimalGTE(f num.Decimal) func(num.Decimal) error {
	return func(val num.Decimal) error {
		if val.GreaterThanOrEqual(f) {
			return nil
		}
		return fmt.Errorf("expect >= %v got %v", f, val)
	}
}

func DecimalGT(f num.Decimal) func(num.Decimal) error {
	return func(val num.Decimal) error {
		if val.GreaterThan(f) {
			return nil
		}
		return fmt.Errorf("expect > %v got %v", f, val)
	}
}

func DecimalLTE(f num.Decimal) func(num.Decimal) error {
	return func(val num.Decimal) error {
		if val.LessThanOrEqual(f) {
			return nil
		}
		return fmt.Errorf("expect <= %v got %v", f, val)
	}
}

func DecimalLT(f num.Decimal) func(num.Decimal) error {
	return func(val num.Decimal) error {
		if val.LessThan(f) {
			return nil
		}
		return fmt.Errorf("expect < %v got %v", f, val)
	}
}

// UintRule validates a candidate uint value.
type UintRule func(*num.Uint) error

type UintValue struct {
	*baseValue
	value   *num.Uint
	rawval  string
	rules   []UintRule
	mutable bool
}

func NewUint(rules ...UintRule) *UintValue {
	return &UintValue{
		baseValue: &baseValue{},
		value:     num.UintZero(),
		rules:     rules,
	}
}

func (u *UintValue) ToUint() (*num.Uint, error) {
	return u.value.Clone(), nil
}

func (u *UintValue) Validate(value string) error {
	val, overflow := num.UintFromString(value, 10)
	if overflow {
		return fmt.Errorf("invalid uint value %s", value)
	}
	if !u.mutable {
		return errors.New("value is not mutable")
	}
	for _, fn := range u.rules {
		if err := fn(val); err != nil {
			return err
		}
	}
	return nil
}

func (u *UintValue) Update(value string) error {
	if err := u.Validate(value); err != nil {
		return err
	}
	u.value, _ = num.UintFromString(value, 10)
	u.rawval = value
	return nil
}

func (u *UintValue) Mutable(b bool) *UintValue {
	u.mutable = b
	return u
}

func (u *UintValue) MustUpdate(value string) *UintValue {
	val, overflow := num.UintFromString(value, 10)
	if overflow {
		panic(fmt.Sprintf("invalid uint value %s", value))
	}
	for _, fn := range u.rules {
		if err := fn(val); err != nil {
			panic(err)
		}
	}
	u.value = val
	u.rawval = value
	return u
}

func (u *UintValue) String() string {
	return u.rawval
}

func UintGTE(i *num.Uint) func(*num.Uint) error {
	icopy := i.Clone()
	return func(val *num.Uint) error {
		if val.GTE(icopy) {
			return nil
		}
		return fmt.Errorf("expect >= %v got %v", i, val)
	}
}

func UintGT(i *num.Uint) func(*num.Uint) error {
	icopy := i.Clone()
	return func(val *num.Uint) error {
		if val.GT(icopy) {
			return nil
		}
		return fmt.Errorf("expect > %v got %v", i, val)
	}
}

// DurationRule validates a candidate duration value.
type DurationRule func(time.Duration) error

type DurationValue struct {
	*baseValue
	value   time.Duration
	rawval  string
	rules   []DurationRule
	mutable bool
}

func NewDuration(rules ...DurationRule) *DurationValue {
	return &DurationValue{
		baseValue: &baseValue{},
		rules:     rules,
	}
}

func (d *DurationValue) ToDuration() (time.Duration, error) {
	return d.value, nil
}

func (d *DurationValue) Validate(value string) error {
	val, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	if !d.mutable {
		return errors.New("value is not mutable")
	}
	for _, fn := range d.rules {
		if err := fn(val); err != nil {
			return err
		}
	}
	return nil
}

func (d *DurationValue) Update(value string) error {
	if err := d.Validate(value); err != nil {
		return err
	}
	d.value, _ = time.ParseDuration(value)
	d.rawval = value
	return nil
}

func (d *DurationValue) Mutable(b bool) *DurationValue {
	d.mutable = b
	return d
}

func (d *DurationValue) MustUpdate(value string) *DurationValue {
	val, err := time.ParseDuration(value)
	if err != nil {
		panic(err)
	}
	for _, fn := range d.rules {
		if err := fn(val); err != nil {
			panic(err)
		}
	}
	d.value = val
	d.rawval = value
	return d
}

func (d *DurationValue) String() string {
	return d.rawval
}

func DurationGT(i time.Duration) func(time.Duration) error {
	return func(val time.Duration) error {
		if val > i {
			return nil
		}
		return fmt.Errorf("expect > %v got %v", i, val)
	}
}

func DurationGTE(i time.Duration) func(time.Duration) error {
	return func(val time.Duration) error {
		if val >= i {
			return nil
		}
		return fmt.Errorf("expect >= %v got %v", i, val)
	}
}
