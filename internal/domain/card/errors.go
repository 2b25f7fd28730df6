package card

import "errors"

var (
	// ErrInvalidDigit カード番号に数字以外が含まれるエラー
	ErrInvalidDigit = errors.New("card number contains non-digit characters")
)
