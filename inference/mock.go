package inference

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pathdss/lisbridge/hl7"
)

// MockEngine is a testify mock implementation of Engine for use in tests.
type MockEngine struct {
	mock.Mock
}

var _ Engine = (*MockEngine)(nil)

func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

func (m *MockEngine) Run(ctx context.Context, order *hl7.Message) (*Result, error) {
	args := m.Called(ctx, order)
	if res := args.Get(0); res != nil {
		return res.(*Result), args.Error(1)
	}
	return nil, args.Error(1)
}
