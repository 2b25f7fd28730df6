package nfc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"payment-bridge/internal/domain/card"
	"payment-bridge/internal/domain/payment"
	"payment-bridge/internal/infrastructure/executor"
	otelinfra "payment-bridge/internal/infrastructure/observability/otel"
)

// DefaultReadDelay カード読み取りの模擬時間
const DefaultReadDelay = 2 * time.Second

// Tag 検出されたNFCタグ
// 内容は読み取らず、検出イベントとしてのみ扱う
type Tag struct {
	ID           string
	Technologies []string
}

// Adapter 端末のNFCアダプター
type Adapter interface {
	IsSupported() bool
	IsEnabled() bool
}

// Processor 決済処理（ゲートウェイ呼び出し）
type Processor interface {
	Process(ctx context.Context) bool
}

// Loop 状態遷移を直列に実行するUIループ
type Loop interface {
	Submit(fn func()) error
	Call(fn func()) error
}

// OutcomeHandler 終端結果の受け取り先
type OutcomeHandler func(*payment.Outcome)

// Options フローの任意設定
type Options struct {
	ReadDelay        time.Duration
	NewTransactionID func() string
	OnStatus         StatusListener
}

// Flow カード提示型（NFC）決済フロー
// 状態はUIループ上でのみ読み書きされる
type Flow struct {
	request   *payment.CardPresentRequest
	validator card.Validator
	processor Processor
	adapter   Adapter
	ui        Loop
	worker    *executor.Serial
	logger    *otelinfra.Logger

	readDelay time.Duration
	newID     func() string
	onStatus  StatusListener
	onOutcome OutcomeHandler

	ctx    context.Context
	cancel context.CancelFunc

	// UIループ専有
	state     State
	outcome   *payment.Outcome
	dismissed bool
}

// NewFlow 新しいFlowを作成
func NewFlow(
	request *payment.CardPresentRequest,
	validator card.Validator,
	processor Processor,
	adapter Adapter,
	ui Loop,
	logger *otelinfra.Logger,
	opts Options,
	onOutcome OutcomeHandler,
) *Flow {
	if opts.NewTransactionID == nil {
		opts.NewTransactionID = NewTransactionID
	}
	if opts.ReadDelay < 0 {
		opts.ReadDelay = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &Flow{
		request:   request,
		validator: validator,
		processor: processor,
		adapter:   adapter,
		ui:        ui,
		logger:    logger.Named("nfc-flow"),
		readDelay: opts.ReadDelay,
		newID:     opts.NewTransactionID,
		onStatus:  opts.OnStatus,
		onOutcome: onOutcome,
		ctx:       ctx,
		cancel:    cancel,
		state:     StateAwaitingDetection,
	}
	f.worker = executor.NewSerial("nfc-worker", f.recoverWorker)
	return f
}

// NewTransactionID 一意な取引IDを生成
func NewTransactionID() string {
	return "NFC_" + uuid.NewString()
}

// Start フローを開始しタグ検出待ちに入る
// NFC非対応または無効の場合はキャンセルで終了する
func (f *Flow) Start() error {
	return f.ui.Submit(func() {
		if f.dismissed || f.state != StateAwaitingDetection {
			return
		}
		if f.adapter == nil || !f.adapter.IsSupported() {
			f.logger.Warn(f.ctx, "NFC is not supported on this device", nil)
			f.resolve(StateCancelled, payment.Cancelled(payment.MethodNFC), MessageCancelled)
			return
		}
		if !f.adapter.IsEnabled() {
			f.logger.Warn(f.ctx, "NFC is disabled", nil)
			f.resolve(StateCancelled, payment.Cancelled(payment.MethodNFC), MessageCancelled)
			return
		}
		f.logger.Info(f.ctx, "Awaiting NFC tag", map[string]interface{}{
			"amount": f.request.Amount(),
		})
		f.emit(Status{State: StateAwaitingDetection, Message: MessageAwaiting})
	})
}

// OnTagDetected タグ検出イベントを受け取る
// タグ検出待ち以外の状態では無視する
func (f *Flow) OnTagDetected(tag Tag) error {
	return f.ui.Submit(func() {
		if f.dismissed || f.state != StateAwaitingDetection {
			f.logger.Debug(f.ctx, "Ignoring tag outside detection state", map[string]interface{}{
				"tag_id": tag.ID,
				"state":  f.state.String(),
			})
			return
		}

		f.logger.Info(f.ctx, "NFC tag detected", map[string]interface{}{
			"tag_id":       tag.ID,
			"technologies": tag.Technologies,
		})
		f.transition(StateReading, MessageReading, true)

		if err := f.worker.Submit(f.run); err != nil {
			f.logger.Error(f.ctx, "Failed to submit NFC processing", err, nil)
			f.resolve(StateFailed, payment.Failed(payment.MethodNFC, ErrMessageProcessingError), ErrMessageProcessingError)
		}
	})
}

// Cancel タグ検出待ちの間だけキャンセルを受け付ける
// 受け付けた場合は true を返す。UIループ上から呼び出してはならない
func (f *Flow) Cancel() bool {
	honored := false
	err := f.ui.Call(func() {
		if f.dismissed || f.state != StateAwaitingDetection {
			return
		}
		honored = true
		f.logger.Info(f.ctx, "NFC payment cancelled by user", nil)
		f.resolve(StateCancelled, payment.Cancelled(payment.MethodNFC), MessageCancelled)
	})
	if err != nil {
		return false
	}
	return honored
}

// Dismiss 画面が閉じられたときに呼ぶ
// ワーカーを停止し、終端結果がなければキャンセルで終了する
func (f *Flow) Dismiss() {
	f.cancel()
	f.worker.Shutdown()

	err := f.ui.Submit(func() {
		if f.dismissed {
			return
		}
		if !f.state.IsTerminal() {
			f.logger.Info(f.ctx, "NFC flow dismissed before completion", map[string]interface{}{
				"state": f.state.String(),
			})
			f.resolve(StateCancelled, payment.Cancelled(payment.MethodNFC), MessageCancelled)
		}
		f.dismissed = true
	})
	if err != nil {
		f.logger.Warn(context.Background(), "UI loop closed while dismissing NFC flow", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Snapshot 現在の状態と結果をUIループ上で取得する
func (f *Flow) Snapshot() (State, *payment.Outcome, error) {
	var (
		state   State
		outcome *payment.Outcome
	)
	err := f.ui.Call(func() {
		state = f.state
		outcome = f.outcome
	})
	return state, outcome, err
}

// run ワーカー上で読み取り・検証・決済処理を行う
func (f *Flow) run() {
	if !sleep(f.ctx, f.readDelay) {
		return
	}
	f.post(func() { f.transition(StateValidating, MessageValidating, false) })

	if !f.validator.Validate(f.request.CardNumber(), f.request.ExpiryDate(), f.request.CVV()) {
		f.post(func() {
			f.logger.Warn(f.ctx, "Card data rejected", nil)
			f.resolve(StateFailed, payment.FailedWith(payment.MethodNFC, payment.ErrValidationFailed, ErrMessageInvalidCard), ErrMessageInvalidCard)
		})
		return
	}
	f.post(func() { f.transition(StateProcessing, MessageProcessing, false) })

	approved := f.processor.Process(f.ctx)
	if f.ctx.Err() != nil {
		return
	}

	if !approved {
		f.post(func() {
			f.resolve(StateFailed, payment.Failed(payment.MethodNFC, ErrMessagePaymentFailed), ErrMessagePaymentFailed)
		})
		return
	}

	transactionID := f.newID()
	amount := f.request.Amount()
	f.post(func() {
		f.resolve(StateSucceeded, payment.Success(payment.MethodNFC, payment.Float64(amount), transactionID, ""), MessageSucceeded)
	})
}

func (f *Flow) recoverWorker(recovered interface{}) {
	err := fmt.Errorf("panic during NFC processing: %v", recovered)
	f.post(func() {
		f.logger.Error(f.ctx, "NFC processing error", err, nil)
		f.resolve(StateFailed, payment.Failed(payment.MethodNFC, ErrMessageProcessingError), ErrMessageProcessingError)
	})
}

// post ワーカーからUIループへ処理を渡す
func (f *Flow) post(fn func()) {
	err := f.ui.Submit(func() {
		if f.dismissed {
			return
		}
		fn()
	})
	if err != nil {
		f.logger.Warn(context.Background(), "UI loop closed, dropping NFC update", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (f *Flow) transition(to State, message string, haptic bool) {
	if f.state.IsTerminal() {
		return
	}
	f.logger.Debug(f.ctx, "NFC flow transition", map[string]interface{}{
		"from": f.state.String(),
		"to":   to.String(),
	})
	f.state = to
	f.emit(Status{State: to, Message: message, Haptic: haptic})
}

// resolve 終端状態へ遷移し結果を一度だけ通知する
func (f *Flow) resolve(to State, outcome *payment.Outcome, message string) {
	if f.state.IsTerminal() {
		return
	}
	f.state = to
	f.outcome = outcome
	f.cancel()
	f.worker.Shutdown()

	f.logger.Info(f.ctx, "NFC flow finished", map[string]interface{}{
		"state":  to.String(),
		"status": outcome.Status().String(),
	})
	f.emit(Status{State: to, Message: message, Haptic: to == StateSucceeded})

	if f.onOutcome != nil {
		f.onOutcome(outcome)
	}
}

func (f *Flow) emit(status Status) {
	if f.onStatus != nil {
		f.onStatus(status)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
