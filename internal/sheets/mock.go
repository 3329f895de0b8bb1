package sheets

import (
	"context"
	"sync"

	"google.golang.org/api/sheets/v4"
)

// MockClient is an in-memory Client for testing.
type MockClient struct {
	// UpdateErrors are returned, in order, by successive UpdateValues calls.
	UpdateErrors  []error
	CreateErr     error
	CheckErr      error
	BatchErr      error
	Updates       []UpdateCall
	BatchRequests [][]*sheets.Request
	Cleared       []string
	Created       []string
	UpdateCalls   int
	mu            sync.Mutex
}

// UpdateCall represents a single successful call to UpdateValues.
type UpdateCall struct {
	SpreadsheetID string
	Range         string
	Values        [][]any
}

// NewMockClient creates a new mock client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// CreateSpreadsheet implements Client.
func (m *MockClient) CreateSpreadsheet(_ context.Context, title, _, _ string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return "", "", m.CreateErr
	}
	m.Created = append(m.Created, title)
	id := "mock-spreadsheet"
	return id, "https://docs.google.com/spreadsheets/d/" + id, nil
}

// CheckSpreadsheet implements Client.
func (m *MockClient) CheckSpreadsheet(context.Context, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CheckErr
}

// ClearValues implements Client.
func (m *MockClient) ClearValues(_ context.Context, _, rng string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cleared = append(m.Cleared, rng)
	return nil
}

// UpdateValues implements Client.
func (m *MockClient) UpdateValues(_ context.Context, spreadsheetID, rng string, values [][]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls++
	if len(m.UpdateErrors) > 0 {
		err := m.UpdateErrors[0]
		m.UpdateErrors = m.UpdateErrors[1:]
		if err != nil {
			return err
		}
	}
	m.Updates = append(m.Updates, UpdateCall{SpreadsheetID: spreadsheetID, Range: rng, Values: values})
	return nil
}

// BatchUpdate implements Client.
func (m *MockClient) BatchUpdate(_ context.Context, _ string, requests []*sheets.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.BatchErr != nil {
		return m.BatchErr
	}
	m.BatchRequests = append(m.BatchRequests, requests)
	return nil
}

// Rows returns every written row in sheet order.
func (m *MockClient) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows [][]any
	for _, u := range m.Updates {
		rows = append(rows, u.Values...)
	}
	return rows
}
