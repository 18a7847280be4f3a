package index

import "context"

// Noop is the null index held when no vector backend is configured or
// construction failed. Every operation succeeds with an empty result.
type Noop struct{}

// NewNoop creates a no-op index
func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Upsert(ctx context.Context, source, text string, docType DocType) (int, error) {
	return 0, nil
}

func (n *Noop) Search(ctx context.Context, query string, limit int, filter *Filter) ([]string, error) {
	return nil, nil
}

func (n *Noop) DeleteBySource(ctx context.Context, source string) error {
	return nil
}

func (n *Noop) Count(ctx context.Context) (int, error) {
	return 0, nil
}

func (n *Noop) Available() bool {
	return false
}

func (n *Noop) Close() error {
	return nil
}
