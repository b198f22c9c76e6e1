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

const (
	// interest parameters
	VaultsInterestRate            = "vaults.interest.rate"
	VaultsInterestChargingPeriod  = "vaults.interest.chargingPeriod"
	VaultsInterestRecordingPeriod = "vaults.interest.recordingPeriod"

	// liquidation parameters
	VaultsLiquidationMargin  = "vaults.liquidation.margin"
	VaultsLiquidationPadding = "vaults.liquidation.padding"
	VaultsLiquidationPenalty = "vaults.liquidation.penalty"

	// debt parameters
	VaultsDebtCeiling = "vaults.debt.ceiling"
	VaultsDebtMinimum = "vaults.debt.minimum"
	VaultsMintFee     = "vaults.mint.fee"
)

func defaultNetParams() map[string]value {
	return map[string]value{
		VaultsInterestRate: NewDecimal(DecimalGTE(decimalZero), DecimalLT(decimalOne)).
			Mutable(true).MustUpdate("0.02"),
		VaultsInterestChargingPeriod: NewDuration(DurationGT(0)).
			Mutable(true).MustUpdate("1h"),
		VaultsInterestRecordingPeriod: NewDuration(DurationGT(0)).
			Mutable(true).MustUpdate("24h"),
		VaultsLiquidationMargin: NewDecimal(DecimalGTE(decimalOne)).
			Mutable(true).MustUpdate("1.5"),
		VaultsLiquidationPadding: NewDecimal(DecimalGTE(decimalZero)).
			Mutable(true).MustUpdate("0.25"),
		VaultsLiquidationPenalty: NewDecimal(DecimalGTE(decimalZero), DecimalLT(decimalOne)).
			Mutable(true).MustUpdate("0.1"),
		VaultsDebtCeiling: NewUint(UintGTE(uintZero)).
			Mutable(true).MustUpdate("1000000000000"),
		VaultsDebtMinimum: NewUint(UintGTE(uintZero)).
			Mutable(true).MustUpdate("100000"),
		VaultsMintFee: NewDecimal(DecimalGTE(decimalZero), DecimalLT(decimalOne)).
			Mutable(true).MustUpdate("0.005"),
	}
}
