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

package vaults_test

import (
	"context"
	"testing"
	"time"

	"code.ingotprotocol.io/ingot/core/vaults"
	"code.ingotprotocol.io/ingot/core/vaults/mocks"
	"code.ingotprotocol.io/ingot/libs/num"
	"code.ingotprotocol.io/ingot/logging"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestReserveReporter(t *testing.T) {
	t.Run("shortfall reports reach the reserve", testReserveReportDelivered)
	t.Run("transient failures are retried", testReserveReportRetried)
	t.Run("zero amounts are not reported", testReserveReportZero)
}

func testReserveReportDelivered(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockReserveService(ctrl)
	rep := vaults.NewReserveReporter(logging.NewTestLogger(), vaults.NewDefaultConfig(), svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rep.Start(ctx)

	done := make(chan struct{})
	svc.EXPECT().ReportShortfall(gomock.Any(), "IST", gomock.Any()).Times(1).DoAndReturn(
		func(_ context.Context, _ string, amount *num.Uint) error {
			assert.Equal(t, "100", amount.String())
			close(done)
			return nil
		})

	rep.ReportShortfall("IST", num.NewUint(100))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("report never delivered")
	}
}

func testReserveReportRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockReserveService(ctrl)
	rep := vaults.NewReserveReporter(logging.NewTestLogger(), vaults.NewDefaultConfig(), svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rep.Start(ctx)

	done := make(chan struct{})
	gomock.InOrder(
		svc.EXPECT().ReportOverage(gomock.Any(), "IST", gomock.Any()).
			Return(errors.New("reserve unreachable")),
		svc.EXPECT().ReportOverage(gomock.Any(), "IST", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, _ *num.Uint) error {
				close(done)
				return nil
			}),
	)

	rep.ReportOverage("IST", num.NewUint(42))
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("report never retried")
	}
}

func testReserveReportZero(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockReserveService(ctrl)
	rep := vaults.NewReserveReporter(logging.NewTestLogger(), vaults.NewDefaultConfig(), svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rep.Start(ctx)

	// no expectation set on svc, a call would fail the test
	rep.ReportShortfall("IST", num.UintZero())
	rep.ReportOverage("IST", num.UintZero())
	time.Sleep(50 * time.Millisecond)
}
