package handler

import bridgeapp "payment-bridge/internal/application/bridge"

// StartRedirectPaymentRequest リダイレクト決済開始リクエスト
// @Description リダイレクト決済開始リクエスト
type StartRedirectPaymentRequest struct {
	PaymentURL string `json:"payment_url" example:"https://www.paytr.com/odeme/guvenli/abc123"`
	SuccessURL string `json:"success_url" example:"alo17://payment/success"`
	FailURL    string `json:"fail_url" example:"alo17://payment/failed"`
	CancelURL  string `json:"cancel_url" example:"alo17://payment/cancelled"`
}

// StartCardPresentPaymentRequest NFC決済開始リクエスト
// @Description NFC決済開始リクエスト
type StartCardPresentPaymentRequest struct {
	Amount     float64 `json:"amount" example:"149.90"`
	CardNumber string  `json:"card_number" example:"4532015112830366"`
	ExpiryDate string  `json:"expiry_date" example:"12/27"`
	CVV        string  `json:"cvv" example:"123"`
}

// PaymentOutcomeResponse 決済結果レスポンス
// @Description 決済結果レスポンス
type PaymentOutcomeResponse struct {
	RequestID     string   `json:"request_id" example:"3f1c2a4e-8d0b-4f7e-9a51-6c2d8e0b1a7f"`
	Status        string   `json:"status" example:"success"`
	PaymentMethod string   `json:"payment_method" example:"nfc"`
	Amount        *float64 `json:"amount,omitempty" example:"149.90"`
	TransactionID string   `json:"transaction_id,omitempty" example:"NFC_6f1e0c3a-2b7d-4e59-8a10-93c4d5e6f708"`
	Token         string   `json:"token,omitempty" example:"tok_abc"`
	Error         string   `json:"error,omitempty" example:"payment failed"`
}

// NFCStatusResponse NFC状態レスポンス
// @Description NFC状態レスポンス
type NFCStatusResponse struct {
	Supported bool `json:"supported" example:"true"`
	Enabled   bool `json:"enabled" example:"true"`
}

// NFCSettingsResponse NFC設定画面を開いた結果
// @Description NFC設定画面を開いた結果
type NFCSettingsResponse struct {
	Opened bool `json:"opened" example:"true"`
}

func toPaymentOutcomeResponse(resp *bridgeapp.PaymentResponse) PaymentOutcomeResponse {
	o := resp.Outcome
	out := PaymentOutcomeResponse{
		RequestID:     resp.RequestID,
		Status:        o.Status().String(),
		PaymentMethod: o.Method().String(),
		TransactionID: o.TransactionID(),
		Token:         o.Token(),
		Error:         o.Error(),
	}
	if amount, ok := o.Amount(); ok {
		out.Amount = &amount
	}
	return out
}
