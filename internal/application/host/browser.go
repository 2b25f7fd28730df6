package host

import (
	"fmt"
	"net/url"
	"sync"

	"payment-bridge/internal/application/redirect"
)

// MemoryBrowser ページ履歴だけを持つヘッドレスなブラウザ
type MemoryBrowser struct {
	mu       sync.Mutex
	settings redirect.BrowserSettings
	history  []string
	index    int
}

// NewMemoryBrowser 新しいMemoryBrowserを作成
func NewMemoryBrowser() *MemoryBrowser {
	return &MemoryBrowser{index: -1}
}

// Configure 表示設定を適用
func (b *MemoryBrowser) Configure(settings redirect.BrowserSettings) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings = settings
}

// Load ページを読み込み履歴に積む
// 戻った後に読み込んだ場合は進む履歴を破棄する
func (b *MemoryBrowser) Load(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("invalid url: missing scheme in %q", rawURL)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history[:b.index+1], rawURL)
	b.index = len(b.history) - 1
	return nil
}

// CanGoBack 戻れる履歴があるかどうか
func (b *MemoryBrowser) CanGoBack() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index > 0
}

// GoBack 一つ前のページに戻る
func (b *MemoryBrowser) GoBack() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index > 0 {
		b.index--
	}
}

// CurrentURL 表示中のURL
func (b *MemoryBrowser) CurrentURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index < 0 {
		return ""
	}
	return b.history[b.index]
}

// Settings 適用済みの表示設定
func (b *MemoryBrowser) Settings() redirect.BrowserSettings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings
}
