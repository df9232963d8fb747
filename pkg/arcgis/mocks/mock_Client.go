// Package mocks provides test doubles for the arcgis client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/sells-group/map-insights/internal/model"
)

// MockClient is a mock type for the arcgis.Client interface.
type MockClient struct {
	mock.Mock
}

// Geocode provides a mock function with given fields: ctx, query
func (_m *MockClient) Geocode(ctx context.Context, query string) (model.Coordinate, error) {
	ret := _m.Called(ctx, query)

	if len(ret) == 0 {
		panic("no return value specified for Geocode")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string) (model.Coordinate, error)); ok {
		return rf(ctx, query)
	}

	var r0 model.Coordinate
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(model.Coordinate)
	}
	return r0, ret.Error(1)
}

// Enrich provides a mock function with given fields: ctx, point
func (_m *MockClient) Enrich(ctx context.Context, point model.Coordinate) (*model.DemographicSnapshot, error) {
	ret := _m.Called(ctx, point)

	if len(ret) == 0 {
		panic("no return value specified for Enrich")
	}

	if rf, ok := ret.Get(0).(func(context.Context, model.Coordinate) (*model.DemographicSnapshot, error)); ok {
		return rf(ctx, point)
	}

	var r0 *model.DemographicSnapshot
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.DemographicSnapshot)
	}
	return r0, ret.Error(1)
}

// PlacesNear provides a mock function with given fields: ctx, point, radius
func (_m *MockClient) PlacesNear(ctx context.Context, point model.Coordinate, radius float64) ([]model.PlaceResult, error) {
	ret := _m.Called(ctx, point, radius)

	if len(ret) == 0 {
		panic("no return value specified for PlacesNear")
	}

	if rf, ok := ret.Get(0).(func(context.Context, model.Coordinate, float64) ([]model.PlaceResult, error)); ok {
		return rf(ctx, point, radius)
	}

	var r0 []model.PlaceResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.PlaceResult)
	}
	return r0, ret.Error(1)
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
