package llm

import "context"

// MockClient is a ChatClient for tests. Responses are returned in order;
// the last response repeats once the queue is exhausted.
type MockClient struct {
	Responses []string
	Errs      []error
	ModelName string
	Calls     []MockCall
}

// MockCall records the arguments of one Chat invocation.
type MockCall struct {
	System    string
	Prompt    string
	MaxTokens int
}

var _ ChatClient = (*MockClient)(nil)

func (m *MockClient) Chat(_ context.Context, system, prompt string, maxTokens int) (*ChatResult, error) {
	i := len(m.Calls)
	m.Calls = append(m.Calls, MockCall{System: system, Prompt: prompt, MaxTokens: maxTokens})

	if i < len(m.Errs) && m.Errs[i] != nil {
		return nil, m.Errs[i]
	}

	content := ""
	if len(m.Responses) > 0 {
		if i >= len(m.Responses) {
			i = len(m.Responses) - 1
		}
		content = m.Responses[i]
	}

	return &ChatResult{Content: content, Model: m.Model(), InputTokens: 100, OutputTokens: 200}, nil
}

func (m *MockClient) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}
