package mocks

import (
	context "context"

	mock "github.com/stretchr/testify/mock"

	deployment "github.com/chainsafe/counter-devnet/pkg/deployment"
)

// Store is a mock type for the Store type
type Store struct {
	mock.Mock
}

type Store_Expecter struct {
	mock *mock.Mock
}

func (_m *Store) EXPECT() *Store_Expecter {
	return &Store_Expecter{mock: &_m.Mock}
}

// Get provides a mock function with given fields: ctx, network, name
func (_m *Store) Get(ctx context.Context, network string, name string) (*deployment.Deployment, error) {
	ret := _m.Called(ctx, network, name)

	if len(ret) == 0 {
		panic("no return value specified for Get")
	}

	var r0 *deployment.Deployment
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) (*deployment.Deployment, error)); ok {
		return rf(ctx, network, name)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, string) *deployment.Deployment); ok {
		r0 = rf(ctx, network, name)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*deployment.Deployment)
	}
	if rf, ok := ret.Get(1).(func(context.Context, string, string) error); ok {
		r1 = rf(ctx, network, name)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Store_Get_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Get'
type Store_Get_Call struct {
	*mock.Call
}

// Get is a helper method to define mock.On call
//   - ctx context.Context
//   - network string
//   - name string
func (_e *Store_Expecter) Get(ctx interface{}, network interface{}, name interface{}) *Store_Get_Call {
	return &Store_Get_Call{Call: _e.mock.On("Get", ctx, network, name)}
}

func (_c *Store_Get_Call) Run(run func(ctx context.Context, network string, name string)) *Store_Get_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(string), args[2].(string))
	})
	return _c
}

func (_c *Store_Get_Call) Return(_a0 *deployment.Deployment, _a1 error) *Store_Get_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// List provides a mock function with given fields: ctx, network
func (_m *Store) List(ctx context.Context, network string) ([]*deployment.Deployment, error) {
	ret := _m.Called(ctx, network)

	if len(ret) == 0 {
		panic("no return value specified for List")
	}

	var r0 []*deployment.Deployment
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]*deployment.Deployment, error)); ok {
		return rf(ctx, network)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) []*deployment.Deployment); ok {
		r0 = rf(ctx, network)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*deployment.Deployment)
	}
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, network)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Store_List_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'List'
type Store_List_Call struct {
	*mock.Call
}

// List is a helper method to define mock.On call
//   - ctx context.Context
//   - network string
func (_e *Store_Expecter) List(ctx interface{}, network interface{}) *Store_List_Call {
	return &Store_List_Call{Call: _e.mock.On("List", ctx, network)}
}

func (_c *Store_List_Call) Run(run func(ctx context.Context, network string)) *Store_List_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(string))
	})
	return _c
}

func (_c *Store_List_Call) Return(_a0 []*deployment.Deployment, _a1 error) *Store_List_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// NewStore creates a new instance of Store. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *Store {
	m := &Store{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
