package handler

// NavigateRequest ブラウザ遷移リクエスト
// @Description ブラウザ遷移リクエスト
type NavigateRequest struct {
	URL string `json:"url" example:"alo17://payment/success?token=tok_abc&amount=149.90"`
}

// NavigateResponse ブラウザ遷移レスポンス
// @Description override が true の場合はブラウザで読み込まない
type NavigateResponse struct {
	Override bool `json:"override" example:"true"`
}

// PageErrorRequest ページ読み込みエラー通知
// @Description ページ読み込みエラー通知
type PageErrorRequest struct {
	URL         string `json:"url" example:"https://www.paytr.com/odeme/guvenli/abc123"`
	Description string `json:"description" example:"net::ERR_NAME_NOT_RESOLVED"`
}

// PageErrorResponse ページ読み込みエラーへの応答
// @Description 警告のみで決済結果は確定しない
type PageErrorResponse struct {
	Warning string `json:"warning" example:"page load error at https://www.paytr.com/odeme: net::ERR_NAME_NOT_RESOLVED"`
}

// PageFinishedRequest ページ読み込み完了通知
// @Description ページ読み込み完了通知
type PageFinishedRequest struct {
	URL string `json:"url" example:"https://www.paytr.com/odeme/guvenli/abc123"`
}

// TagDetectedRequest NFCタグ検出通知
// @Description NFCタグ検出通知
type TagDetectedRequest struct {
	TagID        string   `json:"tag_id" example:"04A224B2C35E80"`
	Technologies []string `json:"technologies" example:"android.nfc.tech.IsoDep"`
}

// CancelNFCResponse NFCキャンセル結果
// @Description タグ検出待ち以外では cancelled は false
type CancelNFCResponse struct {
	Cancelled bool `json:"cancelled" example:"true"`
}

// DismissRequest 決済画面を閉じるリクエスト
// @Description 決済画面を閉じるリクエスト
type DismissRequest struct {
	Kind string `json:"kind" example:"card_present"`
}

// SetNFCAdapterRequest NFC有効/無効の切り替え
// @Description NFC有効/無効の切り替え
type SetNFCAdapterRequest struct {
	Enabled *bool `json:"enabled" example:"true"`
}

// HostStatusResponse ホスト状態レスポンス
// @Description ホスト状態レスポンス
type HostStatusResponse struct {
	Attached       bool   `json:"attached" example:"true"`
	RedirectActive bool   `json:"redirect_active" example:"false"`
	CurrentURL     string `json:"current_url,omitempty" example:"https://www.paytr.com/odeme/guvenli/abc123"`
	NFCActive      bool   `json:"nfc_active" example:"true"`
	NFCState       string `json:"nfc_state,omitempty" example:"reading"`
	NFCMessage     string `json:"nfc_message,omitempty" example:"Reading card..."`
	HapticPulses   int    `json:"haptic_pulses" example:"1"`
	SettingsOpened int    `json:"settings_opened" example:"0"`
}

// AcceptedResponse 受付結果
// @Description 受付結果
type AcceptedResponse struct {
	Accepted bool `json:"accepted" example:"true"`
}
