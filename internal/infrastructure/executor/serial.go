package executor

import (
	"errors"
	"sync"
)

// ErrClosed シャットダウン済みのExecutorへの投入エラー
var ErrClosed = errors.New("executor is shut down")

// PanicHandler タスク内で発生したpanicを受け取るハンドラー
type PanicHandler func(recovered interface{})

// Serial 単一ゴルーチンでタスクを投入順に実行するExecutor
// UIループ（状態遷移の単一書き込み者）とバックグラウンドワーカーの両方に使う
type Serial struct {
	name    string
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	closed  bool
	done    chan struct{}
	onPanic PanicHandler
}

// NewSerial 新しいSerialを作成し、実行ゴルーチンを起動
func NewSerial(name string, onPanic PanicHandler) *Serial {
	s := &Serial{
		name:    name,
		done:    make(chan struct{}),
		onPanic: onPanic,
	}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

// Name Executor名を返す
func (s *Serial) Name() string {
	return s.name
}

// Submit タスクを非同期に投入
func (s *Serial) Submit(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.queue = append(s.queue, fn)
	s.cond.Signal()
	return nil
}

// Call タスクを投入し、完了まで待つ
// 実行ゴルーチン自身から呼ぶとデッドロックする
func (s *Serial) Call(fn func()) error {
	finished := make(chan struct{})
	if err := s.Submit(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	<-finished
	return nil
}

// Shutdown 以降の投入を拒否する（投入済みのタスクは実行される）
func (s *Serial) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.cond.Broadcast()
}

// IsShutdown シャットダウン済みかどうかを返す
func (s *Serial) IsShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Done 実行ゴルーチンが終了したときに閉じられるチャネルを返す
func (s *Serial) Done() <-chan struct{} {
	return s.done
}

func (s *Serial) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		fn := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.execute(fn)
	}
}

func (s *Serial) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil && s.onPanic != nil {
			s.onPanic(r)
		}
	}()
	fn()
}
