// Package mocks provides test doubles for the solar client.
package mocks

import (
	"context"

	solar "github.com/sells-group/solar-crm/pkg/solar"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// FindClosest provides a mock function with given fields: ctx, loc, quality
func (_m *MockClient) FindClosest(ctx context.Context, loc solar.LatLng, quality string) (*solar.BuildingInsight, error) {
	ret := _m.Called(ctx, loc, quality)

	if len(ret) == 0 {
		panic("no return value specified for FindClosest")
	}

	var r0 *solar.BuildingInsight
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, solar.LatLng, string) (*solar.BuildingInsight, error)); ok {
		return rf(ctx, loc, quality)
	}
	if rf, ok := ret.Get(0).(func(context.Context, solar.LatLng, string) *solar.BuildingInsight); ok {
		r0 = rf(ctx, loc, quality)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*solar.BuildingInsight)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, solar.LatLng, string) error); ok {
		r1 = rf(ctx, loc, quality)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
