package mocks

import (
	context "context"

	mock "github.com/stretchr/testify/mock"

	deployment "github.com/chainsafe/counter-devnet/pkg/deployment"
	service "github.com/chainsafe/counter-devnet/pkg/deploy/service"
)

// Service is a mock type for the Service type
type Service struct {
	mock.Mock
}

type Service_Expecter struct {
	mock *mock.Mock
}

func (_m *Service) EXPECT() *Service_Expecter {
	return &Service_Expecter{mock: &_m.Mock}
}

// Accounts provides a mock function with given fields: ctx
func (_m *Service) Accounts(ctx context.Context) ([]*service.Account, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Accounts")
	}

	var r0 []*service.Account
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) ([]*service.Account, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) []*service.Account); ok {
		r0 = rf(ctx)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*service.Account)
	}
	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Service_Accounts_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Accounts'
type Service_Accounts_Call struct {
	*mock.Call
}

// Accounts is a helper method to define mock.On call
//   - ctx context.Context
func (_e *Service_Expecter) Accounts(ctx interface{}) *Service_Accounts_Call {
	return &Service_Accounts_Call{Call: _e.mock.On("Accounts", ctx)}
}

func (_c *Service_Accounts_Call) Run(run func(ctx context.Context)) *Service_Accounts_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context))
	})
	return _c
}

func (_c *Service_Accounts_Call) Return(_a0 []*service.Account, _a1 error) *Service_Accounts_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// Deploy provides a mock function with given fields: ctx, tags
func (_m *Service) Deploy(ctx context.Context, tags []string) (*service.DeployResult, error) {
	ret := _m.Called(ctx, tags)

	if len(ret) == 0 {
		panic("no return value specified for Deploy")
	}

	var r0 *service.DeployResult
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, []string) (*service.DeployResult, error)); ok {
		return rf(ctx, tags)
	}
	if rf, ok := ret.Get(0).(func(context.Context, []string) *service.DeployResult); ok {
		r0 = rf(ctx, tags)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.DeployResult)
	}
	if rf, ok := ret.Get(1).(func(context.Context, []string) error); ok {
		r1 = rf(ctx, tags)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Service_Deploy_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Deploy'
type Service_Deploy_Call struct {
	*mock.Call
}

// Deploy is a helper method to define mock.On call
//   - ctx context.Context
//   - tags []string
func (_e *Service_Expecter) Deploy(ctx interface{}, tags interface{}) *Service_Deploy_Call {
	return &Service_Deploy_Call{Call: _e.mock.On("Deploy", ctx, tags)}
}

func (_c *Service_Deploy_Call) Run(run func(ctx context.Context, tags []string)) *Service_Deploy_Call {
	_c.Call.Run(func(args mock.Arguments) {
		var tags []string
		if args[1] != nil {
			tags = args[1].([]string)
		}
		run(args[0].(context.Context), tags)
	})
	return _c
}

func (_c *Service_Deploy_Call) Return(_a0 *service.DeployResult, _a1 error) *Service_Deploy_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// GetDeployment provides a mock function with given fields: ctx, network, name
func (_m *Service) GetDeployment(ctx context.Context, network string, name string) (*deployment.Deployment, error) {
	ret := _m.Called(ctx, network, name)

	if len(ret) == 0 {
		panic("no return value specified for GetDeployment")
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

// Service_GetDeployment_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'GetDeployment'
type Service_GetDeployment_Call struct {
	*mock.Call
}

// GetDeployment is a helper method to define mock.On call
//   - ctx context.Context
//   - network string
//   - name string
func (_e *Service_Expecter) GetDeployment(ctx interface{}, network interface{}, name interface{}) *Service_GetDeployment_Call {
	return &Service_GetDeployment_Call{Call: _e.mock.On("GetDeployment", ctx, network, name)}
}

func (_c *Service_GetDeployment_Call) Run(run func(ctx context.Context, network string, name string)) *Service_GetDeployment_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(string), args[2].(string))
	})
	return _c
}

func (_c *Service_GetDeployment_Call) Return(_a0 *deployment.Deployment, _a1 error) *Service_GetDeployment_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// ListDeployments provides a mock function with given fields: ctx, network
func (_m *Service) ListDeployments(ctx context.Context, network string) ([]*deployment.Deployment, error) {
	ret := _m.Called(ctx, network)

	if len(ret) == 0 {
		panic("no return value specified for ListDeployments")
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

// Service_ListDeployments_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'ListDeployments'
type Service_ListDeployments_Call struct {
	*mock.Call
}

// ListDeployments is a helper method to define mock.On call
//   - ctx context.Context
//   - network string
func (_e *Service_Expecter) ListDeployments(ctx interface{}, network interface{}) *Service_ListDeployments_Call {
	return &Service_ListDeployments_Call{Call: _e.mock.On("ListDeployments", ctx, network)}
}

func (_c *Service_ListDeployments_Call) Run(run func(ctx context.Context, network string)) *Service_ListDeployments_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(string))
	})
	return _c
}

func (_c *Service_ListDeployments_Call) Return(_a0 []*deployment.Deployment, _a1 error) *Service_ListDeployments_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// NewService creates a new instance of Service. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewService(t interface {
	mock.TestingT
	Cleanup(func())
}) *Service {
	m := &Service{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
