package mocks

import (
	context "context"
	big "math/big"

	common "github.com/ethereum/go-ethereum/common"
	mock "github.com/stretchr/testify/mock"
)

// BalanceReader is a mock type for the BalanceReader type
type BalanceReader struct {
	mock.Mock
}

type BalanceReader_Expecter struct {
	mock *mock.Mock
}

func (_m *BalanceReader) EXPECT() *BalanceReader_Expecter {
	return &BalanceReader_Expecter{mock: &_m.Mock}
}

// BalanceAt provides a mock function with given fields: ctx, account, blockNumber
func (_m *BalanceReader) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	ret := _m.Called(ctx, account, blockNumber)

	if len(ret) == 0 {
		panic("no return value specified for BalanceAt")
	}

	var r0 *big.Int
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, common.Address, *big.Int) (*big.Int, error)); ok {
		return rf(ctx, account, blockNumber)
	}
	if rf, ok := ret.Get(0).(func(context.Context, common.Address, *big.Int) *big.Int); ok {
		r0 = rf(ctx, account, blockNumber)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*big.Int)
	}
	if rf, ok := ret.Get(1).(func(context.Context, common.Address, *big.Int) error); ok {
		r1 = rf(ctx, account, blockNumber)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// BalanceReader_BalanceAt_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'BalanceAt'
type BalanceReader_BalanceAt_Call struct {
	*mock.Call
}

// BalanceAt is a helper method to define mock.On call
//   - ctx context.Context
//   - account common.Address
//   - blockNumber *big.Int
func (_e *BalanceReader_Expecter) BalanceAt(ctx interface{}, account interface{}, blockNumber interface{}) *BalanceReader_BalanceAt_Call {
	return &BalanceReader_BalanceAt_Call{Call: _e.mock.On("BalanceAt", ctx, account, blockNumber)}
}

func (_c *BalanceReader_BalanceAt_Call) Run(run func(ctx context.Context, account common.Address, blockNumber *big.Int)) *BalanceReader_BalanceAt_Call {
	_c.Call.Run(func(args mock.Arguments) {
		var blockNumber *big.Int
		if args[2] != nil {
			blockNumber = args[2].(*big.Int)
		}
		run(args[0].(context.Context), args[1].(common.Address), blockNumber)
	})
	return _c
}

func (_c *BalanceReader_BalanceAt_Call) Return(_a0 *big.Int, _a1 error) *BalanceReader_BalanceAt_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// NewBalanceReader creates a new instance of BalanceReader. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewBalanceReader(t interface {
	mock.TestingT
	Cleanup(func())
}) *BalanceReader {
	m := &BalanceReader{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
