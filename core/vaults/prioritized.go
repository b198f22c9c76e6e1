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

package vaults

import (
	"code.ingotprotocol.io/ingot/libs/num"

	"github.com/google/btree"
)

// prioritizedVaults keeps active vaults ordered from highest risk to
// lowest. Risk compares normalized debt per unit of collateral, so the
// ordering is price independent and only changes when a vault's own
// balances change. A vault MUST be removed from the tree before its
// balances are mutated and re-inserted after, the tree key is derived
// from them.
type prioritizedVaults struct {
	tree *btree.BTreeG[*Vault]
}

func newPrioritizedVaults() *prioritizedVaults {
	return &prioritizedVaults{
		tree: btree.NewG(2, lessFuncRiskier),
	}
}

// lessFuncRiskier orders a before b when a carries more normalized debt
// per unit of collateral. Cross-multiplied to stay in integer math:
// aDebt/aCollat > bDebt/bCollat <=> aDebt*bCollat > bDebt*aCollat.
// A vault with debt and no collateral sorts first. Ties break on ID so
// iteration order is deterministic.
func lessFuncRiskier(a, b *Vault) bool {
	aDebt, bDebt := a.NormalizedDebt(), b.NormalizedDebt()
	aBare := a.collateral.IsZero() && !aDebt.IsZero()
	bBare := b.collateral.IsZero() && !bDebt.IsZero()
	if aBare != bBare {
		return aBare
	}
	if !aBare {
		lhs := num.UintZero().Mul(aDebt, b.collateral)
		rhs := num.UintZero().Mul(bDebt, a.collateral)
		if lhs.NEQ(rhs) {
			return lhs.GT(rhs)
		}
	}
	return a.id < b.id
}

func (p *prioritizedVaults) Add(v *Vault) {
	p.tree.ReplaceOrInsert(v)
}

func (p *prioritizedVaults) Remove(v *Vault) {
	p.tree.Delete(v)
}

func (p *prioritizedVaults) Len() int {
	return p.tree.Len()
}

// Ascend visits vaults from highest risk to lowest, stopping when f
// returns false.
func (p *prioritizedVaults) Ascend(f func(v *Vault) bool) {
	p.tree.Ascend(func(v *Vault) bool {
		return f(v)
	})
}

// Riskiest returns the highest risk vault, nil when empty.
func (p *prioritizedVaults) Riskiest() *Vault {
	var out *Vault
	p.tree.Ascend(func(v *Vault) bool {
		out = v
		return false
	})
	return out
}
