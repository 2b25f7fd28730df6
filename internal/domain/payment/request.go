package payment

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind フローの種類
type Kind string

const (
	KindRedirect    Kind = "redirect"     // リダイレクト型決済
	KindCardPresent Kind = "card_present" // NFCカード決済
)

// String 文字列表現を返す
func (k Kind) String() string {
	return string(k)
}

// NewKind 文字列からKindを作成
func NewKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindRedirect, KindCardPresent:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidPaymentRequest, s)
	}
}

// Method 決済方法
type Method string

const (
	MethodNFC              Method = "nfc"
	MethodRedirectProvider Method = "redirect-provider"
)

// String 文字列表現を返す
func (m Method) String() string {
	return string(m)
}

// RedirectRequest リダイレクト型決済のリクエスト
type RedirectRequest struct {
	paymentURL string
	successURL string
	failURL    string
	cancelURL  string
}

// NewRedirectRequest 新しいRedirectRequestを作成
func NewRedirectRequest(paymentURL, successURL, failURL, cancelURL string) (*RedirectRequest, error) {
	if strings.TrimSpace(paymentURL) == "" {
		return nil, fmt.Errorf("%w: payment_url is required", ErrInvalidPaymentRequest)
	}
	u, err := url.Parse(paymentURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: payment_url must be an absolute URL", ErrInvalidPaymentRequest)
	}
	return &RedirectRequest{
		paymentURL: paymentURL,
		successURL: successURL,
		failURL:    failURL,
		cancelURL:  cancelURL,
	}, nil
}

// Kind フローの種類を返す
func (r *RedirectRequest) Kind() Kind { return KindRedirect }

// PaymentURL 決済ページURLを返す
func (r *RedirectRequest) PaymentURL() string { return r.paymentURL }

// SuccessURL 成功時コールバックURLを返す
func (r *RedirectRequest) SuccessURL() string { return r.successURL }

// FailURL 失敗時コールバックURLを返す
func (r *RedirectRequest) FailURL() string { return r.failURL }

// CancelURL キャンセル時コールバックURLを返す
func (r *RedirectRequest) CancelURL() string { return r.cancelURL }

// CardPresentRequest NFCカード決済のリクエスト
type CardPresentRequest struct {
	amount     float64
	cardNumber string
	expiryDate string
	cvv        string
}

// NewCardPresentRequest 新しいCardPresentRequestを作成
// カード情報の形式検証はフロー内で行うため、ここでは必須チェックのみ
func NewCardPresentRequest(amount float64, cardNumber, expiryDate, cvv string) (*CardPresentRequest, error) {
	if cardNumber == "" || expiryDate == "" || cvv == "" {
		return nil, fmt.Errorf("%w: card_number, expiry_date and cvv are required", ErrInvalidPaymentRequest)
	}
	if amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidPaymentRequest)
	}
	return &CardPresentRequest{
		amount:     amount,
		cardNumber: cardNumber,
		expiryDate: expiryDate,
		cvv:        cvv,
	}, nil
}

// Kind フローの種類を返す
func (r *CardPresentRequest) Kind() Kind { return KindCardPresent }

// Amount 金額を返す
func (r *CardPresentRequest) Amount() float64 { return r.amount }

// CardNumber カード番号を返す
func (r *CardPresentRequest) CardNumber() string { return r.cardNumber }

// ExpiryDate 有効期限を返す
func (r *CardPresentRequest) ExpiryDate() string { return r.expiryDate }

// CVV CVVを返す
func (r *CardPresentRequest) CVV() string { return r.cvv }
