package nanitws

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockConnection struct {
	mock.Mock

	tapOpen func()
}

func (m *mockConnection) Open(ctx context.Context) error {
	if m.tapOpen != nil {
		m.tapOpen()
	}
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockConnection) Ping(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *mockConnection) Close(code int, reason string) {
	m.Called(code, reason)
}

func (m *mockConnection) CloseChan() CloseChan {
	args := m.Called()
	return args.Get(0).(CloseChan)
}

func (m *mockConnection) CloseErr() error {
	args := m.Called()
	return args.Error(0)
}
