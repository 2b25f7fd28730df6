package host

import (
	"context"
	"fmt"
	"sync"
	"time"

	"payment-bridge/internal/application/bridge"
	"payment-bridge/internal/application/nfc"
	"payment-bridge/internal/application/redirect"
	"payment-bridge/internal/domain/card"
	"payment-bridge/internal/domain/payment"
	"payment-bridge/internal/infrastructure/executor"
	otelinfra "payment-bridge/internal/infrastructure/observability/otel"
)

// Options シェルの設定
type Options struct {
	ReadDelay time.Duration
}

type redirectSurface struct {
	session *redirect.Session
	browser *MemoryBrowser
}

// Shell APIから操作されるヘッドレスなUIホスト
// 画面イベントはすべてUIループ上で処理する
type Shell struct {
	mu         sync.Mutex
	attached   bool
	ui         *executor.Serial
	generation uint64

	adapter    *Adapter
	classifier *redirect.Classifier
	validator  card.Validator
	processor  nfc.Processor
	opts       Options
	logger     *otelinfra.Logger

	// UIループ専有
	redirect       *redirectSurface
	nfcFlow        *nfc.Flow
	lastStatus     nfc.Status
	hapticPulses   int
	settingsOpened int
}

// NewShell 新しいShellを作成
func NewShell(
	adapter *Adapter,
	classifier *redirect.Classifier,
	validator card.Validator,
	processor nfc.Processor,
	logger *otelinfra.Logger,
	opts Options,
) *Shell {
	return &Shell{
		adapter:    adapter,
		classifier: classifier,
		validator:  validator,
		processor:  processor,
		opts:       opts,
		logger:     logger.Named("host-shell"),
	}
}

// Adapter NFCアダプター
func (s *Shell) Adapter() *Adapter {
	return s.adapter
}

// Attach ホスト画面を利用可能にする
func (s *Shell) Attach(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return
	}
	s.ui = executor.NewSerial("ui", func(recovered interface{}) {
		s.logger.Error(context.Background(), "Panic on UI loop", fmt.Errorf("%v", recovered), nil)
	})
	s.attached = true
	s.generation++
	s.logger.Info(ctx, "Host attached", map[string]interface{}{
		"generation": s.generation,
	})
}

// Detach ホスト画面を破棄する
// 表示中のフローはキャンセルで確定する
func (s *Shell) Detach(ctx context.Context) {
	s.mu.Lock()
	if !s.attached {
		s.mu.Unlock()
		return
	}
	ui := s.ui
	s.attached = false
	s.ui = nil
	s.generation++
	s.mu.Unlock()

	var (
		surface *redirectSurface
		flow    *nfc.Flow
	)
	_ = ui.Call(func() {
		surface = s.redirect
		flow = s.nfcFlow
	})
	if surface != nil {
		_ = ui.Submit(surface.session.Dismiss)
	}
	if flow != nil {
		flow.Dismiss()
	}

	ui.Shutdown()
	<-ui.Done()
	s.logger.Info(ctx, "Host detached", nil)
}

// IsAttached ホストが利用可能かどうか
func (s *Shell) IsAttached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// CurrentHost 利用可能なホストを返す
func (s *Shell) CurrentHost() (bridge.Host, bool) {
	if !s.IsAttached() {
		return nil, false
	}
	return s, true
}

// loop 現在のUIループとアタッチ世代を返す
func (s *Shell) loop() (*executor.Serial, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return nil, 0, payment.ErrNoHostSurface
	}
	return s.ui, s.generation, nil
}

func (s *Shell) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached && s.generation == gen
}

// call UIループ上で同期実行する
func (s *Shell) call(fn func()) error {
	ui, gen, err := s.loop()
	if err != nil {
		return err
	}
	return s.callOn(ui, gen, fn)
}

// callOn 指定世代のUIループ上で同期実行する
// 実行時点でその世代がデタッチ済みなら fn は呼ばれない
func (s *Shell) callOn(ui *executor.Serial, gen uint64, fn func()) error {
	current := false
	err := ui.Call(func() {
		if !s.isCurrent(gen) {
			return
		}
		current = true
		fn()
	})
	if err != nil || !current {
		return payment.ErrNoHostSurface
	}
	return nil
}

// PresentRedirect リダイレクト決済画面を表示する
func (s *Shell) PresentRedirect(ctx context.Context, req *payment.RedirectRequest, resolve bridge.ResolveFunc) (bridge.Presentation, error) {
	ui, gen, err := s.loop()
	if err != nil {
		return nil, err
	}

	surface := &redirectSurface{browser: NewMemoryBrowser()}
	surface.session = redirect.NewSession(req, s.classifier, surface.browser, s.logger, func(outcome *payment.Outcome) {
		if s.redirect == surface {
			s.redirect = nil
		}
		resolve(outcome)
	})

	err = s.callOn(ui, gen, func() {
		s.redirect = surface
		if transportErr := surface.session.Start(); transportErr != nil {
			s.logger.Warn(ctx, "Payment page reported an error", map[string]interface{}{
				"url":         transportErr.URL,
				"description": transportErr.Description,
			})
		}
	})
	if err != nil {
		return nil, err
	}

	return presentationFunc(func() {
		if err := ui.Submit(surface.session.Dismiss); err != nil {
			s.logger.Debug(context.Background(), "UI loop closed before redirect dismissal", nil)
		}
	}), nil
}

// PresentCardPresent NFC決済画面を表示する
func (s *Shell) PresentCardPresent(ctx context.Context, req *payment.CardPresentRequest, resolve bridge.ResolveFunc) (bridge.Presentation, error) {
	ui, gen, err := s.loop()
	if err != nil {
		return nil, err
	}

	var flow *nfc.Flow
	flow = nfc.NewFlow(req, s.validator, s.processor, s.adapter, ui, s.logger, nfc.Options{
		ReadDelay: s.opts.ReadDelay,
		OnStatus: func(status nfc.Status) {
			s.lastStatus = status
			if status.Haptic {
				s.hapticPulses++
			}
		},
	}, func(outcome *payment.Outcome) {
		if s.nfcFlow == flow {
			s.nfcFlow = nil
		}
		resolve(outcome)
	})

	var startErr error
	err = s.callOn(ui, gen, func() {
		s.nfcFlow = flow
		startErr = flow.Start()
	})
	if err == nil && startErr != nil {
		err = payment.ErrNoHostSurface
	}
	if err != nil {
		flow.Dismiss()
		return nil, err
	}

	s.logger.Info(ctx, "NFC payment screen presented", map[string]interface{}{
		"amount": req.Amount(),
	})
	return presentationFunc(flow.Dismiss), nil
}

// Navigate ブラウザの遷移要求
// 終端URLであれば読み込まずに true を返す
func (s *Shell) Navigate(rawURL string) (bool, error) {
	override := false
	var loadErr error
	found := false
	err := s.call(func() {
		if s.redirect == nil {
			return
		}
		found = true
		surface := s.redirect
		override = surface.session.ShouldOverrideURLLoading(rawURL)
		if !override {
			if err := surface.browser.Load(rawURL); err != nil {
				loadErr = surface.session.OnPageError(rawURL, err.Error())
			}
		}
	})
	if err != nil {
		return false, err
	}
	if !found {
		return false, ErrNoActiveSession
	}
	if loadErr != nil {
		s.logger.Warn(context.Background(), "Navigation failed to load", map[string]interface{}{
			"url":   rawURL,
			"error": loadErr.Error(),
		})
	}
	return override, nil
}

// Back 戻る操作
func (s *Shell) Back() error {
	return s.withRedirect(func(surface *redirectSurface) {
		surface.session.OnBackPressed()
	})
}

// PageError ページ読み込みエラー（警告のみ）
func (s *Shell) PageError(rawURL, description string) (*payment.TransportError, error) {
	var transportErr *payment.TransportError
	err := s.withRedirect(func(surface *redirectSurface) {
		transportErr = surface.session.OnPageError(rawURL, description)
	})
	return transportErr, err
}

// PageFinished ページ読み込み完了
func (s *Shell) PageFinished(rawURL string) error {
	return s.withRedirect(func(surface *redirectSurface) {
		surface.session.OnPageFinished(rawURL)
	})
}

func (s *Shell) withRedirect(fn func(surface *redirectSurface)) error {
	found := false
	err := s.call(func() {
		if s.redirect == nil {
			return
		}
		found = true
		fn(s.redirect)
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNoActiveSession
	}
	return nil
}

// TagDetected NFCタグ検出イベント
func (s *Shell) TagDetected(tag nfc.Tag) error {
	flow, err := s.currentFlow()
	if err != nil {
		return err
	}
	return flow.OnTagDetected(tag)
}

// CancelNFC NFC画面のキャンセルボタン
// タグ検出待ち以外では受け付けず false を返す
func (s *Shell) CancelNFC() (bool, error) {
	flow, err := s.currentFlow()
	if err != nil {
		return false, err
	}
	return flow.Cancel(), nil
}

func (s *Shell) currentFlow() (*nfc.Flow, error) {
	var flow *nfc.Flow
	if err := s.call(func() { flow = s.nfcFlow }); err != nil {
		return nil, err
	}
	if flow == nil {
		return nil, ErrNoActiveSession
	}
	return flow, nil
}

// Dismiss 指定した種類の決済画面を閉じる
func (s *Shell) Dismiss(kind payment.Kind) error {
	switch kind {
	case payment.KindRedirect:
		return s.withRedirect(func(surface *redirectSurface) {
			surface.session.Dismiss()
		})
	case payment.KindCardPresent:
		flow, err := s.currentFlow()
		if err != nil {
			return err
		}
		flow.Dismiss()
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", payment.ErrInvalidPaymentRequest, kind)
	}
}

// OpenNFCSettings OSのNFC設定画面を開く
func (s *Shell) OpenNFCSettings(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.call(func() {
		s.settingsOpened++
	})
}

// Status ホストの状態
type Status struct {
	Attached       bool
	RedirectActive bool
	CurrentURL     string
	NFCActive      bool
	NFCState       string
	NFCMessage     string
	HapticPulses   int
	SettingsOpened int
}

// Status ホストの状態を返す
func (s *Shell) Status() Status {
	status := Status{}
	err := s.call(func() {
		status.RedirectActive = s.redirect != nil
		if s.redirect != nil {
			status.CurrentURL = s.redirect.browser.CurrentURL()
		}
		status.NFCActive = s.nfcFlow != nil
		if s.lastStatus.Message != "" {
			status.NFCState = s.lastStatus.State.String()
			status.NFCMessage = s.lastStatus.Message
		}
		status.HapticPulses = s.hapticPulses
		status.SettingsOpened = s.settingsOpened
	})
	status.Attached = err == nil
	return status
}

type presentationFunc func()

func (f presentationFunc) Dismiss() { f() }

// SetNFCEnabled 端末のNFC設定を切り替える
// 非対応端末では IsEnabled は常に false のまま
func (s *Shell) SetNFCEnabled(ctx context.Context, enabled bool) {
	s.adapter.SetEnabled(enabled)
	s.logger.Info(ctx, "NFC adapter toggled", map[string]interface{}{
		"enabled":   enabled,
		"supported": s.adapter.IsSupported(),
	})
}
