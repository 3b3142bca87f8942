package temporal

import "time"

// MockResolver is a scripted Resolver for tests.
type MockResolver struct {
	// ResolveFunc overrides Resolve when set.
	ResolveFunc func(expr string, ref time.Time) (time.Time, bool)
	// ScanFunc overrides ScanMessage when set.
	ScanFunc func(msg string, ref time.Time) (Hit, bool)

	ResolveCalls []string
	ScanCalls    []string
}

// Resolve records the call and delegates to ResolveFunc or the real resolver.
func (m *MockResolver) Resolve(expr string, ref time.Time) (time.Time, bool) {
	m.ResolveCalls = append(m.ResolveCalls, expr)
	if m.ResolveFunc != nil {
		return m.ResolveFunc(expr, ref)
	}
	return NewResolver().Resolve(expr, ref)
}

// ScanMessage records the call and delegates to ScanFunc or the real resolver.
func (m *MockResolver) ScanMessage(msg string, ref time.Time) (Hit, bool) {
	m.ScanCalls = append(m.ScanCalls, msg)
	if m.ScanFunc != nil {
		return m.ScanFunc(msg, ref)
	}
	return NewResolver().ScanMessage(msg, ref)
}

var _ Resolver = (*MockResolver)(nil)
