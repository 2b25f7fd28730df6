package nfc

// State NFC決済フローの状態
type State int

const (
	// StateAwaitingDetection タグ検出待ち（初期状態）
	StateAwaitingDetection State = iota
	// StateReading カード読み取り中
	StateReading
	// StateValidating カード情報検証中
	StateValidating
	// StateProcessing 決済処理中
	StateProcessing
	// StateSucceeded 決済成功
	StateSucceeded
	// StateFailed 決済失敗
	StateFailed
	// StateCancelled キャンセル
	StateCancelled
)

var stateNames = map[State]string{
	StateAwaitingDetection: "awaiting_detection",
	StateReading:           "reading",
	StateValidating:        "validating",
	StateProcessing:        "processing",
	StateSucceeded:         "succeeded",
	StateFailed:            "failed",
	StateCancelled:         "cancelled",
}

// String 文字列表現を返す
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal 終端状態かどうか
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// Status 画面に表示するステータス更新
type Status struct {
	State   State
	Message string
	// Haptic 端末を振動させるべき更新かどうか
	Haptic bool
}

// StatusListener ステータス更新の受け取り先
type StatusListener func(Status)

// 画面表示メッセージ
const (
	MessageAwaiting   = "Hold your card near the back of the device"
	MessageReading    = "Reading card..."
	MessageValidating = "Validating card..."
	MessageProcessing = "Processing payment..."
	MessageSucceeded  = "Payment successful!"
	MessageCancelled  = "Payment cancelled"
)

// 失敗時のエラーメッセージ
const (
	ErrMessageInvalidCard     = "invalid card data"
	ErrMessagePaymentFailed   = "payment failed"
	ErrMessageProcessingError = "NFC processing error"
)
