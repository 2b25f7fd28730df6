package card

const (
	minNumberLength = 13
	maxNumberLength = 19
	expiryLength    = 5 // MM/YY
	minCVVLength    = 3
	maxCVVLength    = 4
)

// Validator カード情報バリデーターインターフェース
type Validator interface {
	Validate(cardNumber, expiryDate, cvv string) bool
}

// LuhnValidator 桁数チェックとLuhnチェックサムによるバリデーター
type LuhnValidator struct{}

// NewLuhnValidator 新しいLuhnValidatorを作成
func NewLuhnValidator() *LuhnValidator {
	return &LuhnValidator{}
}

// Validate カード番号・有効期限・CVVを検証
func (v *LuhnValidator) Validate(cardNumber, expiryDate, cvv string) bool {
	return Validate(cardNumber, expiryDate, cvv)
}

// Validate カード情報がすべてのルールを満たすかを返す
// 有効期限は MM/YY の長さのみ確認し、日付としては解釈しない
func Validate(cardNumber, expiryDate, cvv string) bool {
	if n := len(cardNumber); n < minNumberLength || n > maxNumberLength {
		return false
	}
	if len(expiryDate) != expiryLength {
		return false
	}
	if n := len(cvv); n < minCVVLength || n > maxCVVLength {
		return false
	}
	ok, err := Luhn(cardNumber)
	if err != nil {
		return false
	}
	return ok
}

// Luhn Luhnチェックサムを計算し、有効かどうかを返す
// 数字以外の文字が含まれる場合は ErrInvalidDigit を返す
func Luhn(number string) (bool, error) {
	if number == "" {
		return false, ErrInvalidDigit
	}

	sum := 0
	alternate := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false, ErrInvalidDigit
		}
		n := int(c - '0')
		if alternate {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		alternate = !alternate
	}

	return sum%10 == 0, nil
}
