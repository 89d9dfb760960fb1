package mocks

import (
	mock "github.com/stretchr/testify/mock"

	"github.com/beaconkit/beacond/internal/chain"
	"github.com/beaconkit/beacond/types"
)

var _ chain.Chain = (*Chain)(nil)

// Chain is a mock implementation of chain.Chain.
type Chain struct {
	mock.Mock
}

// ForkChoice provides a mock function with given fields:
func (_m *Chain) ForkChoice() error {
	ret := _m.Called()

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// ProcessChainSegment provides a mock function with given fields: blocks
func (_m *Chain) ProcessChainSegment(blocks []*types.SignedBeaconBlock) ([]types.Root, error) {
	ret := _m.Called(blocks)

	var r0 []types.Root
	if rf, ok := ret.Get(0).(func([]*types.SignedBeaconBlock) []types.Root); ok {
		r0 = rf(blocks)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]types.Root)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func([]*types.SignedBeaconBlock) error); ok {
		r1 = rf(blocks)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewChain creates a new Chain mock and registers a cleanup that asserts
// its expectations.
func NewChain(t interface {
	mock.TestingT
	Cleanup(func())
}) *Chain {
	m := &Chain{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
