package redirect

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"payment-bridge/internal/domain/payment"
)

var (
	// ErrInvalidRoutes ディープリンク設定が不正
	ErrInvalidRoutes = errors.New("invalid deep link routes")
)

// Routes 決済プロバイダーのコールバックディープリンク表
type Routes struct {
	Scheme        string
	Host          string
	SuccessPath   string
	FailedPath    string
	CancelledPath string
	// ErrorMessages 失敗コールバックのエラーコードを表示用メッセージに置き換える
	ErrorMessages map[string]string
}

// DefaultRoutes 既定のディープリンク表（alo17://payment/...）
func DefaultRoutes() Routes {
	return Routes{
		Scheme:        "alo17",
		Host:          "payment",
		SuccessPath:   "/success",
		FailedPath:    "/failed",
		CancelledPath: "/cancelled",
	}
}

// Category URLの分類
type Category int

const (
	// CategoryNone 終端ではない通常のURL
	CategoryNone Category = iota
	CategorySuccess
	CategoryFailed
	CategoryCancelled
)

// String 文字列表現を返す
func (c Category) String() string {
	switch c {
	case CategorySuccess:
		return "success"
	case CategoryFailed:
		return "failed"
	case CategoryCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Classification 分類結果
type Classification struct {
	Category Category
	Token    string
	Amount   *float64
	// RawAmount 数値として解釈できなかった場合も元の値を保持する
	RawAmount string
	Error     string
	// ErrorCode 失敗コールバックで受け取った元のエラー値
	ErrorCode string
}

// IsTerminal 終端URLかどうか
func (c Classification) IsTerminal() bool {
	return c.Category != CategoryNone
}

// Outcome 終端URLの分類結果を決済結果に変換する
func (c Classification) Outcome() *payment.Outcome {
	switch c.Category {
	case CategorySuccess:
		return payment.Success(payment.MethodRedirectProvider, c.Amount, "", c.Token)
	case CategoryFailed:
		return payment.Failed(payment.MethodRedirectProvider, c.Error)
	case CategoryCancelled:
		return payment.Cancelled(payment.MethodRedirectProvider)
	default:
		return nil
	}
}

// Classifier URLを解析してディープリンク表と完全一致で照合する
type Classifier struct {
	routes Routes
}

// NewClassifier 新しいClassifierを作成
func NewClassifier(routes Routes) (*Classifier, error) {
	if routes.Scheme == "" || routes.Host == "" {
		return nil, ErrInvalidRoutes
	}
	paths := []string{routes.SuccessPath, routes.FailedPath, routes.CancelledPath}
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if !strings.HasPrefix(p, "/") {
			return nil, ErrInvalidRoutes
		}
		if _, dup := seen[p]; dup {
			return nil, ErrInvalidRoutes
		}
		seen[p] = struct{}{}
	}
	if routes.ErrorMessages != nil {
		messages := make(map[string]string, len(routes.ErrorMessages))
		for code, message := range routes.ErrorMessages {
			messages[code] = message
		}
		routes.ErrorMessages = messages
	}
	return &Classifier{routes: routes}, nil
}

// Routes ディープリンク表を返す
func (c *Classifier) Routes() Routes {
	return c.routes
}

// Classify URLを分類する
// スキームは大文字小文字を区別せず、ホストとパスは完全一致で比較する
func (c *Classifier) Classify(rawURL string) Classification {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Classification{}
	}
	if !strings.EqualFold(u.Scheme, c.routes.Scheme) || u.Host != c.routes.Host {
		return Classification{}
	}

	query := u.Query()
	switch u.Path {
	case c.routes.SuccessPath:
		result := Classification{
			Category:  CategorySuccess,
			Token:     query.Get("token"),
			RawAmount: query.Get("amount"),
		}
		result.Amount = parseAmount(result.RawAmount)
		return result
	case c.routes.FailedPath:
		code := query.Get("error")
		message := code
		if m, ok := c.routes.ErrorMessages[code]; ok {
			message = m
		}
		return Classification{
			Category:  CategoryFailed,
			Error:     message,
			ErrorCode: code,
		}
	case c.routes.CancelledPath:
		return Classification{Category: CategoryCancelled}
	default:
		return Classification{}
	}
}

// parseAmount 有限の数値のみ金額として扱う（NaN/Infは金額なし）
func parseAmount(raw string) *float64 {
	if raw == "" {
		return nil
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil
	}
	return payment.Float64(amount)
}
