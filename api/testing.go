// Package api
// Author: momentics
//
// Mock/testing utilities for all core contracts; extendable for new interfaces.

package api

// MockDispatcher is a test and mock-friendly implementation of Dispatcher.
type MockDispatcher struct {
	AddFunc            func(Action) error
	ExecuteAndWaitFunc func() error
	DisposeFunc        func() error
}

var _ Dispatcher = (*MockDispatcher)(nil)

func (m *MockDispatcher) Add(a Action) error    { return m.AddFunc(a) }
func (m *MockDispatcher) ExecuteAndWait() error { return m.ExecuteAndWaitFunc() }
func (m *MockDispatcher) Dispose() error        { return m.DisposeFunc() }

// Extend with mocks for additional core contracts as architecture evolves.
