package bridge

import "payment-bridge/internal/domain/payment"

// StartRedirectPaymentRequest リダイレクト決済開始リクエスト
type StartRedirectPaymentRequest struct {
	PaymentURL string
	SuccessURL string
	FailURL    string
	CancelURL  string
}

// StartCardPresentPaymentRequest NFC決済開始リクエスト
type StartCardPresentPaymentRequest struct {
	Amount     float64
	CardNumber string
	ExpiryDate string
	CVV        string
}

// PaymentResponse 決済結果レスポンス
type PaymentResponse struct {
	RequestID string
	Outcome   *payment.Outcome
}

// Payload 呼び出し元へ返すペイロード
func (r *PaymentResponse) Payload() map[string]interface{} {
	payload := r.Outcome.Payload()
	payload["request_id"] = r.RequestID
	return payload
}

// NFCStatusResponse NFC状態レスポンス
type NFCStatusResponse struct {
	Supported bool
	Enabled   bool
}
