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

package netparams_test

import (
	"context"
	"testing"
	"time"

	"code.ingotprotocol.io/ingot/core/netparams"
	"code.ingotprotocol.io/ingot/core/netparams/mocks"
	"code.ingotprotocol.io/ingot/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

type testNetParams struct {
	*netparams.Store
	ctrl   *gomock.Controller
	broker *mocks.MockBroker
}

func getTestNetParams(t *testing.T) *testNetParams {
	t.Helper()
	ctrl := gomock.NewController(t)
	broker := mocks.NewMockBroker(ctrl)
	store := netparams.New(
		logging.NewTestLogger(), netparams.NewDefaultConfig(), broker)

	return &testNetParams{
		Store:  store,
		ctrl:   ctrl,
		broker: broker,
	}
}

func TestNetParams(t *testing.T) {
	t.Run("test validate - success", testValidateSuccess)
	t.Run("test validate - unknown key", testValidateUnknownKey)
	t.Run("test validate - validation failed", testValidateValidationFailed)
	t.Run("test update - success", testUpdateSuccess)
	t.Run("test update - unknown key", testUpdateUnknownKey)
	t.Run("test update - validation failed", testUpdateValidationFailed)
	t.Run("test exists - success", testExistsSuccess)
	t.Run("test exists - failure", testExistsFailure)
	t.Run("get decimal", testGetDecimal)
	t.Run("get uint", testGetUint)
	t.Run("get duration", testGetDuration)
	t.Run("dispatch after update", testDispatchAfterUpdate)
}

func testValidateSuccess(t *testing.T) {
	netp := getTestNetParams(t)
	defer netp.ctrl.Finish()

	err := netp.Validate(netparams.VaultsInterestRate, "0.05")
	assert.NoError(t, err)
}

func testValidateUnknownKey(t *testing.T) {
	netp := getTestNetParams(t)
	defer netp.ctrl.Finish()

	err := netp.Validate("not.a.key", "0.05")
	assert.EqualError(t, err, netparams.ErrUnknownKey.Error())
}

func testValidateValidationFailed(t *testing.T) {
	netp := getTestNetParams(t)
	defer netp.ctrl.Finish()

	// interest rate must be < 1
	err := netp.Validate(netparams.VaultsInterestRate, "1.5")
	assert.Error(t, err)
}

func testUpdateSuccess(t *testing.T) {
	netp := getTestNetParams(t)
	defer netp.ctrl.Finish()

	netp.broker.EXPECT().Send(gomock.Any()).Times(1)
	err := netp.Update(context.Background(), netparams.VaultsLiquidationPenalty, "0.15")
	assert.NoError(t, err)

	v, err := netp.Get(netparams.VaultsLiquidationPenalty)
	assert.NoError(t, err)
	assert.Equal(t, "0.15", v)
}

func testUpdateUnknownKey(t *testing.T) {
	netp := getTestNetParams(t)
	defer netp.ctrl.Finish()

	err := netp.Update(context.Background(), "not.a.key", "0.15")
	assert.EqualError(t, err, netparams.ErrUnknownKey.Error())
}

func testUpdateValidationFailed(t *testing.T) {
	netp := getTestNetParams(t)
	defer netp.ctrl.Finish()

	// margin must be >= 1
	err := netp.Update(context.Background(), netparams.VaultsLiquidationMargin, "0.5")
	assert.Error(t, err)
}

func testExistsSuccess(t *testing.T) {
	netp := getTestNetParams(t)
	defer netp.ctrl.Finish()

	assert.True(t, netp.Exists(netparams.VaultsDebtCeiling))
}

func testExistsFailure(t *testing.T) {
	netp := getTestNetParams(t)
	defer netp.ctrl.Finish()

	assert.False(t, netp.Exists("not.a.key"))
}

func testGetDecimal(t *testing.T) {
	netp := getTestNetParams(t)
	defer netp.ctrl.Finish()

	d, err := netp.GetDecimal(netparams.VaultsLiquidationMargin)
	assert.NoError(t, err)
	assert.Equal(t, "1.5", d.String())

	// a duration key is not a decimal
	_, err = netp.GetDecimal(netparams.VaultsInterestChargingPeriod)
	assert.Error(t, err)
}

func testGetUint(t *testing.T) {
	netp := getTestNetParams(t)
	defer netp.ctrl.Finish()

	u, err := netp.GetUint(netparams.VaultsDebtMinimum)
	assert.NoError(t, err)
	assert.Equal(t, "100000", u.String())
}

func testGetDuration(t *testing.T) {
	netp := getTestNetParams(t)
	defer netp.ctrl.Finish()

	d, err := netp.GetDuration(netparams.VaultsInterestChargingPeriod)
	assert.NoError(t, err)
	assert.Equal(t, time.Hour, d)
}

func testDispatchAfterUpdate(t *testing.T) {
	netp := getTestNetParams(t)
	defer netp.ctrl.Finish()

	netp.broker.EXPECT().Send(gomock.Any()).AnyTimes()
	var (
		gotKey string
		gotVal string
	)
	netp.Watch(netparams.WatchParam{
		Param: netparams.VaultsInterestRate,
		Watcher: func(k, v string) {
			gotKey, gotVal = k, v
		},
	})

	err := netp.Update(context.Background(), netparams.VaultsInterestRate, "0.03")
	assert.NoError(t, err)

	// watchers are only notified on the time update
	assert.Empty(t, gotKey)
	netp.OnChainTimeUpdate(context.Background(), time.Now())
	assert.Equal(t, netparams.VaultsInterestRate, gotKey)
	assert.Equal(t, "0.03", gotVal)
}
