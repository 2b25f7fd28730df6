package host

import "errors"

var (
	// ErrNoActiveSession 対象のフローが表示されていないエラー
	ErrNoActiveSession = errors.New("no active payment session")
)
