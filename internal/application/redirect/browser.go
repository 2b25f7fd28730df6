package redirect

// BrowserSettings 埋め込みブラウザの表示設定
type BrowserSettings struct {
	JavaScriptEnabled    bool
	DOMStorageEnabled    bool
	LoadWithOverviewMode bool
	UseWideViewPort      bool
	SupportZoom          bool
	BuiltInZoomControls  bool
	DisplayZoomControls  bool
	DefaultTextEncoding  string
}

// DefaultBrowserSettings 決済ページ用の既定設定
func DefaultBrowserSettings() BrowserSettings {
	return BrowserSettings{
		JavaScriptEnabled:    true,
		DOMStorageEnabled:    true,
		LoadWithOverviewMode: true,
		UseWideViewPort:      true,
		SupportZoom:          true,
		BuiltInZoomControls:  true,
		DisplayZoomControls:  false,
		DefaultTextEncoding:  "utf-8",
	}
}

// Browser ホストが提供する埋め込みブラウザ
type Browser interface {
	Configure(settings BrowserSettings)
	Load(url string) error
	CanGoBack() bool
	GoBack()
}
