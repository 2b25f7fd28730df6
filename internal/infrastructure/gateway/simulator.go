package gateway

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	// DefaultProcessingDelay ネットワーク/ハードウェア遅延の模擬時間
	DefaultProcessingDelay = 1500 * time.Millisecond
	// DefaultSuccessRate 成功確率
	DefaultSuccessRate = 0.9
)

// RandomSource 乱数源（テストで結果を固定するために差し替え可能）
type RandomSource interface {
	Float64() float64
}

// lockedRand 複数ゴルーチンから安全に使える乱数源
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource 時刻をシードにした乱数源を作成
func NewRandomSource() RandomSource {
	seed := uint64(time.Now().UnixNano())
	return &lockedRand{rng: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

// Float64 [0.0, 1.0) の乱数を返す
func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// FixedSource 常に同じ値を返す乱数源
type FixedSource float64

// Float64 固定値を返す
func (f FixedSource) Float64() float64 {
	return float64(f)
}

// SimulatorConfig シミュレーター設定
type SimulatorConfig struct {
	Delay       time.Duration
	SuccessRate float64
	Random      RandomSource
}

// Simulator 決済ゲートウェイ呼び出しの代替となる模擬処理
type Simulator struct {
	delay       time.Duration
	successRate float64
	random      RandomSource
}

// NewSimulator 新しいSimulatorを作成
func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.Random == nil {
		cfg.Random = NewRandomSource()
	}
	if cfg.SuccessRate < 0 {
		cfg.SuccessRate = 0
	}
	if cfg.SuccessRate > 1 {
		cfg.SuccessRate = 1
	}
	return &Simulator{
		delay:       cfg.Delay,
		successRate: cfg.SuccessRate,
		random:      cfg.Random,
	}
}

// NewDefaultSimulator 既定値（1.5秒・成功率90%）のSimulatorを作成
func NewDefaultSimulator() *Simulator {
	return NewSimulator(SimulatorConfig{
		Delay:       DefaultProcessingDelay,
		SuccessRate: DefaultSuccessRate,
	})
}

// Process 遅延の後に成功/失敗を返す
// 呼び出し元がキャンセルした場合は保留せず false を返す
func (s *Simulator) Process(ctx context.Context) bool {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return false
		}
	} else if ctx.Err() != nil {
		return false
	}

	return s.random.Float64() < s.successRate
}
