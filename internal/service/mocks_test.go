package service

import (
	"context"

	"github.com/cloo-solutions/aliasgen/internal/domain"
	"github.com/cloo-solutions/aliasgen/internal/openai"
	"github.com/cloo-solutions/aliasgen/internal/prompt"
	"github.com/stretchr/testify/mock"
)

// MockHost is a mock for the Host interface
type MockHost struct {
	mock.Mock
}

func (m *MockHost) ActiveDocument(ctx context.Context) (*domain.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockHost) ReadBody(ctx context.Context, handle string) (string, error) {
	args := m.Called(ctx, handle)
	return args.String(0), args.Error(1)
}

func (m *MockHost) ReadFrontmatterAliases(ctx context.Context, handle string) (any, error) {
	args := m.Called(ctx, handle)
	return args.Get(0), args.Error(1)
}

func (m *MockHost) WriteFrontmatterAliases(ctx context.Context, handle string, set domain.AliasSet) error {
	args := m.Called(ctx, handle, set)
	return args.Error(0)
}

func (m *MockHost) Notify(ctx context.Context, message string) {
	m.Called(ctx, message)
}

// MockCompleter is a mock for the Completer interface
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, p prompt.Prompt, opts openai.CompletionOptions) (string, error) {
	args := m.Called(ctx, p, opts)
	return args.String(0), args.Error(1)
}

// MockRunRecorder is a mock for the RunRecorder interface
type MockRunRecorder struct {
	mock.Mock
}

func (m *MockRunRecorder) Create(ctx context.Context, run *domain.AliasRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// MockUUIDGenerator is a mock for UUID generation
type MockUUIDGenerator struct {
	mock.Mock
}

func (m *MockUUIDGenerator) NewString() string {
	args := m.Called()
	return args.String(0)
}
