package host

import "sync"

// Adapter 設定値で動作するNFCアダプター
type Adapter struct {
	mu        sync.RWMutex
	supported bool
	enabled   bool
}

// NewAdapter 新しいAdapterを作成
func NewAdapter(supported, enabled bool) *Adapter {
	return &Adapter{supported: supported, enabled: enabled}
}

// IsSupported NFCハードウェアがあるかどうか
func (a *Adapter) IsSupported() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.supported
}

// IsEnabled NFCが有効かどうか
func (a *Adapter) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.supported && a.enabled
}

// SetEnabled 有効/無効を切り替える（非対応端末では変化しない）
func (a *Adapter) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}
