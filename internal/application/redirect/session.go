package redirect

import (
	"context"

	"payment-bridge/internal/domain/payment"
	otelinfra "payment-bridge/internal/infrastructure/observability/otel"
)

// OutcomeHandler 終端結果の受け取り先
type OutcomeHandler func(*payment.Outcome)

// Session リダイレクト型決済のブラウザセッション
// すべてのメソッドはホストのUIループ上から呼び出すこと
type Session struct {
	request    *payment.RedirectRequest
	classifier *Classifier
	browser    Browser
	logger     *otelinfra.Logger
	onOutcome  OutcomeHandler

	outcome    *payment.Outcome
	pageErrors []*payment.TransportError
}

// NewSession 新しいSessionを作成
func NewSession(
	request *payment.RedirectRequest,
	classifier *Classifier,
	browser Browser,
	logger *otelinfra.Logger,
	onOutcome OutcomeHandler,
) *Session {
	return &Session{
		request:    request,
		classifier: classifier,
		browser:    browser,
		logger:     logger.Named("redirect-session"),
		onOutcome:  onOutcome,
	}
}

// Start ブラウザを設定して決済ページを読み込む
// 読み込み失敗は通知のみで、セッションは開いたまま残る
func (s *Session) Start() *payment.TransportError {
	s.browser.Configure(DefaultBrowserSettings())

	s.logger.Info(context.Background(), "Loading payment page", map[string]interface{}{
		"payment_url": s.request.PaymentURL(),
		"success_url": s.request.SuccessURL(),
		"fail_url":    s.request.FailURL(),
		"cancel_url":  s.request.CancelURL(),
	})

	if err := s.browser.Load(s.request.PaymentURL()); err != nil {
		return s.OnPageError(s.request.PaymentURL(), err.Error())
	}
	return nil
}

// ShouldOverrideURLLoading 遷移要求を読み込み前に判定する
// 終端URLであれば結果を確定して true を返し、ブラウザには読み込ませない
func (s *Session) ShouldOverrideURLLoading(rawURL string) bool {
	classification := s.classifier.Classify(rawURL)
	if !classification.IsTerminal() {
		s.logger.Debug(context.Background(), "Allowing navigation", map[string]interface{}{
			"url": rawURL,
		})
		return false
	}

	if classification.Category == CategorySuccess && classification.Amount == nil {
		s.logger.Warn(context.Background(), "Success callback without a numeric amount", map[string]interface{}{
			"url":    rawURL,
			"amount": classification.RawAmount,
		})
	}

	s.logger.Info(context.Background(), "Payment callback intercepted", map[string]interface{}{
		"category": classification.Category.String(),
	})
	s.resolve(classification.Outcome())
	return true
}

// OnBackPressed 戻る操作
// ページ履歴があれば戻り、なければキャンセルとして終了する
func (s *Session) OnBackPressed() {
	if s.IsTerminal() {
		return
	}
	if s.browser.CanGoBack() {
		s.browser.GoBack()
		return
	}
	s.logger.Info(context.Background(), "Back pressed with empty history", nil)
	s.resolve(payment.Cancelled(payment.MethodRedirectProvider))
}

// OnPageError ページ読み込みエラー
// 結果は確定させず、警告として返す
func (s *Session) OnPageError(rawURL, description string) *payment.TransportError {
	transportErr := &payment.TransportError{URL: rawURL, Description: description}
	s.pageErrors = append(s.pageErrors, transportErr)
	s.logger.Warn(context.Background(), "Payment page failed to load", map[string]interface{}{
		"url":         rawURL,
		"description": description,
	})
	return transportErr
}

// OnPageFinished ページ読み込み完了
func (s *Session) OnPageFinished(rawURL string) {
	s.logger.Debug(context.Background(), "Page loaded", map[string]interface{}{
		"url": rawURL,
	})
}

// Dismiss ホスト画面が閉じられた
func (s *Session) Dismiss() {
	if s.IsTerminal() {
		return
	}
	s.logger.Info(context.Background(), "Redirect session dismissed before completion", nil)
	s.resolve(payment.Cancelled(payment.MethodRedirectProvider))
}

// IsTerminal 結果が確定済みかどうか
func (s *Session) IsTerminal() bool {
	return s.outcome != nil
}

// Outcome 確定した結果（未確定ならnil）
func (s *Session) Outcome() *payment.Outcome {
	return s.outcome
}

// PageErrors これまでに通知されたページエラー
func (s *Session) PageErrors() []*payment.TransportError {
	return s.pageErrors
}

func (s *Session) resolve(outcome *payment.Outcome) {
	if s.outcome != nil {
		return
	}
	s.outcome = outcome
	if s.onOutcome != nil {
		s.onOutcome(outcome)
	}
}
