package routing

import (
	"strings"
	"sync"

	"github.com/ValentinKolb/avlkv/lib/collections/queuedtree"
	"github.com/google/uuid"
)

// OneTimeTable stores handlers that are served at most once, addressed by a
// random token.
//
// Thread-safety: all methods are safe for concurrent use.
type OneTimeTable[H any] struct {
	mu      sync.Mutex
	pending *queuedtree.Tree[string, H]
}

// NewOneTimeTable creates a table holding at most capacity handlers. Once
// full, adding a handler drops the oldest one.
func NewOneTimeTable[H any](capacity int) (*OneTimeTable[H], error) {
	pending, err := queuedtree.New(queuedtree.Config[string, H]{
		MaxSize: capacity,
		Compare: strings.Compare,
		OnEvict: func(token string, _ H) {
			Logger.Debugf("one-time handler %s dropped before use", token)
		},
	})
	if err != nil {
		return nil, err
	}
	return &OneTimeTable[H]{pending: pending}, nil
}

// Add registers handler and returns its token.
func (t *OneTimeTable[H]) Add(handler H) string {
	token := uuid.NewString()
	t.mu.Lock()
	t.pending.Set(token, handler)
	t.mu.Unlock()
	return token
}

// Take removes and returns the handler of token. A second Take of the same
// token fails.
func (t *OneTimeTable[H]) Take(token string) (H, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	handler, ok := t.pending.TryGet(token)
	if ok {
		t.pending.Remove(token)
	}
	return handler, ok
}

// Len returns the number of handlers not yet taken.
func (t *OneTimeTable[H]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending.Count()
}
