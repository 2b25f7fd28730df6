package bridge

import (
	"sync"

	"github.com/google/uuid"

	"payment-bridge/internal/domain/payment"
)

type pendingRequest struct {
	id      string
	kind    payment.Kind
	results chan *payment.Outcome
	once    sync.Once
}

// registry 進行中リクエストの管理
// リクエストID → 結果チャネル、種類 → リクエストIDの対応を持つ
type registry struct {
	mu     sync.Mutex
	byID   map[string]*pendingRequest
	byKind map[payment.Kind]string
}

func newRegistry() *registry {
	return &registry{
		byID:   make(map[string]*pendingRequest),
		byKind: make(map[payment.Kind]string),
	}
}

// register 同じ種類のリクエストが進行中なら ErrAlreadyInProgress を返す
func (r *registry) register(kind payment.Kind) (*pendingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.byKind[kind]; busy {
		return nil, payment.ErrAlreadyInProgress
	}

	p := &pendingRequest{
		id:      uuid.NewString(),
		kind:    kind,
		results: make(chan *payment.Outcome, 1),
	}
	r.byID[p.id] = p
	r.byKind[kind] = p.id
	return p, nil
}

// resolve 結果を一度だけ届ける。既に解放済みなら false
func (r *registry) resolve(id string, outcome *payment.Outcome) bool {
	r.mu.Lock()
	p, ok := r.byID[id]
	r.mu.Unlock()
	if !ok {
		return false
	}

	delivered := false
	p.once.Do(func() {
		p.results <- outcome
		delivered = true
	})
	return delivered
}

func (r *registry) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	if r.byKind[p.kind] == id {
		delete(r.byKind, p.kind)
	}
}

func (r *registry) inProgress(kind payment.Kind) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byKind[kind]
	return id, ok
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
