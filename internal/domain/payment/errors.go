package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHostSurface フローを表示するUIホストが存在しないエラー
	ErrNoHostSurface = errors.New("no host surface available")
	// ErrAlreadyInProgress 同じ種類の決済が既に進行中のエラー
	ErrAlreadyInProgress = errors.New("payment of this kind already in progress")
	// ErrInvalidPaymentRequest 無効な決済リクエストエラー
	ErrInvalidPaymentRequest = errors.New("invalid payment request")
	// ErrValidationFailed カード情報のローカル検証エラー
	ErrValidationFailed = errors.New("card validation failed")
	// ErrProcessingFailed 決済処理の失敗（拒否・内部エラー）
	ErrProcessingFailed = errors.New("payment processing failed")
	// ErrCancelled 決済がキャンセルされたエラー
	ErrCancelled = errors.New("payment cancelled")
)

// TransportError リダイレクトフロー中のページ/ネットワークエラー
// 終端結果ではなく警告としてのみ扱う
type TransportError struct {
	URL         string
	Description string
}

// Error エラーメッセージを返す
func (e *TransportError) Error() string {
	return fmt.Sprintf("page load error at %s: %s", e.URL, e.Description)
}
