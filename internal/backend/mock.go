package backend

import (
	"context"
	"sync"
)

// MockBackend is a deterministic Backend for testing. Each service method
// consumes canned outcomes in FIFO order and records its calls. An empty
// queue yields ErrServiceUnavailable.
type MockBackend struct {
	mu sync.Mutex

	submitQueue   []outcome[SubmitResult]
	questionQueue []outcome[CurrentQuestionResult]
	answerQueue   []outcome[KnowledgeAnswer]
	intentQueue   []outcome[IntentResult]
	appendErrs    []error

	SubmitCalls   []string
	QuestionCalls int
	QueryCalls    []string
	IntentCalls   []string
	AppendCalls   []MessageRecord
}

type outcome[T any] struct {
	value *T
	err   error
}

var _ Backend = (*MockBackend)(nil)

// NewMockBackend creates an empty MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// QueueSubmit adds a survey-respond outcome.
func (m *MockBackend) QueueSubmit(res *SubmitResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitQueue = append(m.submitQueue, outcome[SubmitResult]{res, err})
}

// QueueQuestion adds a current-question outcome.
func (m *MockBackend) QueueQuestion(res *CurrentQuestionResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questionQueue = append(m.questionQueue, outcome[CurrentQuestionResult]{res, err})
}

// QueueAnswer adds a knowledge-base outcome.
func (m *MockBackend) QueueAnswer(res *KnowledgeAnswer, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answerQueue = append(m.answerQueue, outcome[KnowledgeAnswer]{res, err})
}

// QueueIntent adds an intent-classification outcome.
func (m *MockBackend) QueueIntent(res *IntentResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intentQueue = append(m.intentQueue, outcome[IntentResult]{res, err})
}

// QueueAppendErr adds a message-store outcome (nil for success).
func (m *MockBackend) QueueAppendErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendErrs = append(m.appendErrs, err)
}

func (m *MockBackend) SubmitResponse(_ context.Context, answer string) (*SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitCalls = append(m.SubmitCalls, answer)
	return pop(&m.submitQueue, "survey-respond")
}

func (m *MockBackend) CurrentQuestion(_ context.Context) (*CurrentQuestionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QuestionCalls++
	return pop(&m.questionQueue, "current-question")
}

func (m *MockBackend) QueryKnowledge(_ context.Context, question string) (*KnowledgeAnswer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCalls = append(m.QueryCalls, question)
	return pop(&m.answerQueue, "knowledge-base")
}

func (m *MockBackend) AnalyzeIntent(_ context.Context, text string) (*IntentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IntentCalls = append(m.IntentCalls, text)
	return pop(&m.intentQueue, "intent-classification")
}

func (m *MockBackend) AppendMessage(_ context.Context, rec MessageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendCalls = append(m.AppendCalls, rec)
	if len(m.appendErrs) == 0 {
		return nil
	}
	err := m.appendErrs[0]
	m.appendErrs = m.appendErrs[1:]
	return err
}

func pop[T any](queue *[]outcome[T], service string) (*T, error) {
	if len(*queue) == 0 {
		return nil, &ErrServiceUnavailable{Service: service}
	}
	o := (*queue)[0]
	*queue = (*queue)[1:]
	if o.err != nil {
		return nil, o.err
	}
	return o.value, nil
}
