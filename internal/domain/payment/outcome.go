package payment

import "fmt"

// Status 決済結果のステータス
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// String 文字列表現を返す
func (s Status) String() string {
	return string(s)
}

// Outcome 決済フローの終端結果
// Success / Failed / Cancelled のいずれか
type Outcome struct {
	status        Status
	method        Method
	amount        *float64
	transactionID string
	token         string
	errMessage    string
	cause         error
}

// Success 成功結果を作成
func Success(method Method, amount *float64, transactionID, token string) *Outcome {
	return &Outcome{
		status:        StatusSuccess,
		method:        method,
		amount:        amount,
		transactionID: transactionID,
		token:         token,
	}
}

// Failed 失敗結果を作成（原因は ErrProcessingFailed）
func Failed(method Method, errMessage string) *Outcome {
	return FailedWith(method, ErrProcessingFailed, errMessage)
}

// FailedWith 原因となるセンチネルエラーを指定して失敗結果を作成
func FailedWith(method Method, cause error, errMessage string) *Outcome {
	if cause == nil {
		cause = ErrProcessingFailed
	}
	return &Outcome{
		status:     StatusFailed,
		method:     method,
		errMessage: errMessage,
		cause:      cause,
	}
}

// Cancelled キャンセル結果を作成
func Cancelled(method Method) *Outcome {
	return &Outcome{
		status: StatusCancelled,
		method: method,
	}
}

// Status ステータスを返す
func (o *Outcome) Status() Status { return o.status }

// Method 決済方法を返す
func (o *Outcome) Method() Method { return o.method }

// Amount 金額を返す（不明な場合はfalse）
func (o *Outcome) Amount() (float64, bool) {
	if o.amount == nil {
		return 0, false
	}
	return *o.amount, true
}

// TransactionID トランザクションIDを返す
func (o *Outcome) TransactionID() string { return o.transactionID }

// Token 決済プロバイダーのトークンを返す
func (o *Outcome) Token() string { return o.token }

// Error 失敗理由を返す
func (o *Outcome) Error() string { return o.errMessage }

// Err 結果をエラーとして返す
// 成功はnil、キャンセルは ErrCancelled、失敗は原因をラップしたエラー
func (o *Outcome) Err() error {
	switch o.status {
	case StatusSuccess:
		return nil
	case StatusCancelled:
		return ErrCancelled
	}
	if o.errMessage == "" {
		return o.cause
	}
	return fmt.Errorf("%w: %s", o.cause, o.errMessage)
}

// IsSuccess 成功かどうかを返す
func (o *Outcome) IsSuccess() bool { return o.status == StatusSuccess }

// Payload 呼び出し元へ返すペイロードを構築
func (o *Outcome) Payload() map[string]interface{} {
	payload := map[string]interface{}{
		"status":         o.status.String(),
		"payment_method": o.method.String(),
	}
	if o.amount != nil {
		payload["amount"] = *o.amount
	}
	if o.transactionID != "" {
		payload["transaction_id"] = o.transactionID
	}
	if o.token != "" {
		payload["token"] = o.token
	}
	if o.status == StatusFailed {
		payload["error"] = o.errMessage
	}
	return payload
}

// Float64 float64のポインタを返す
func Float64(v float64) *float64 {
	return &v
}
