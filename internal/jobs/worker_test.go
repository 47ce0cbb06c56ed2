package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockRunDeleter is a mock implementation of RunDeleter
type MockRunDeleter struct {
	mock.Mock
}

func (m *MockRunDeleter) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker("test", mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	// once on start plus at least one tick
	assert.GreaterOrEqual(t, len(mockProcessor.Calls), 2)
}

type signalProcessor struct {
	called chan struct{}
}

func (p *signalProcessor) ProcessJobs(ctx context.Context) error {
	select {
	case p.called <- struct{}{}:
	default:
	}
	return errors.New("boom")
}

func TestWorker_RunsImmediately(t *testing.T) {
	processor := &signalProcessor{called: make(chan struct{}, 1)}
	worker := NewWorker("test", processor, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	select {
	case <-processor.called:
	case <-time.After(time.Second):
		t.Fatal("processor was not called on start")
	}

	cancel()
	wg.Wait()
}

func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker("test", mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

func TestRunPruner_ProcessJobs(t *testing.T) {
	mockRepo := new(MockRunDeleter)
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	mockRepo.On("DeleteOlderThan", mock.Anything, now.Add(-30*24*time.Hour)).Return(int64(4), nil)

	pruner := NewRunPruner(mockRepo, 30*24*time.Hour)
	pruner.now = func() time.Time { return now }

	err := pruner.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestRunPruner_ProcessJobs_Error(t *testing.T) {
	mockRepo := new(MockRunDeleter)
	mockRepo.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(0), errors.New("connection refused"))

	pruner := NewRunPruner(mockRepo, time.Hour)
	err := pruner.ProcessJobs(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to prune alias runs")
}
