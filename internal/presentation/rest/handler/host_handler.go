package handler

import (
	"context"
	"net/http"

	"payment-bridge/internal/application/host"
	"payment-bridge/internal/application/nfc"
	"payment-bridge/internal/domain/payment"

	"github.com/labstack/echo/v4"
)

// HostShell ホスト画面イベントの転送先
type HostShell interface {
	Attach(ctx context.Context)
	Detach(ctx context.Context)
	Status() host.Status
	Navigate(rawURL string) (bool, error)
	Back() error
	PageError(rawURL, description string) (*payment.TransportError, error)
	PageFinished(rawURL string) error
	TagDetected(tag nfc.Tag) error
	CancelNFC() (bool, error)
	Dismiss(kind payment.Kind) error
	SetNFCEnabled(ctx context.Context, enabled bool)
}

// HostHandler ホストシェル向けハンドラー
type HostHandler struct {
	shell HostShell
}

// NewHostHandler 新しいHostHandlerを作成
func NewHostHandler(shell HostShell) *HostHandler {
	return &HostHandler{
		shell: shell,
	}
}

// Attach ホスト画面を接続
// @Summary ホスト画面を接続
// @Tags host
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} HostStatusResponse
// @Router /host/attach [post]
func (h *HostHandler) Attach(c echo.Context) error {
	h.shell.Attach(c.Request().Context())
	return c.JSON(http.StatusOK, toHostStatusResponse(h.shell.Status()))
}

// Detach ホスト画面を切断
// @Summary ホスト画面を切断
// @Description 表示中の決済はキャンセルで確定します
// @Tags host
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} HostStatusResponse
// @Router /host/detach [post]
func (h *HostHandler) Detach(c echo.Context) error {
	h.shell.Detach(c.Request().Context())
	return c.JSON(http.StatusOK, toHostStatusResponse(h.shell.Status()))
}

// GetStatus ホスト状態を取得
// @Summary ホスト状態を取得
// @Tags host
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} HostStatusResponse
// @Router /host/status [get]
func (h *HostHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, toHostStatusResponse(h.shell.Status()))
}

// Navigate ブラウザ遷移を通知
// @Summary ブラウザ遷移を通知
// @Description 終端URLの場合は決済結果を確定し override=true を返します
// @Tags host
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body NavigateRequest true "遷移先"
// @Success 200 {object} NavigateResponse
// @Failure 404 {object} ErrorResponse "リダイレクト決済なし"
// @Router /host/redirect/navigate [post]
func (h *HostHandler) Navigate(c echo.Context) error {
	var reqBody NavigateRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}

	override, err := h.shell.Navigate(reqBody.URL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NavigateResponse{Override: override})
}

// Back 戻る操作を通知
// @Summary 戻る操作を通知
// @Description 履歴がなければ決済はキャンセルで確定します
// @Tags host
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} AcceptedResponse
// @Failure 404 {object} ErrorResponse "リダイレクト決済なし"
// @Router /host/redirect/back [post]
func (h *HostHandler) Back(c echo.Context) error {
	if err := h.shell.Back(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AcceptedResponse{Accepted: true})
}

// PageError ページ読み込みエラーを通知
// @Summary ページ読み込みエラーを通知
// @Description 警告を返すのみで決済は継続します
// @Tags host
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body PageErrorRequest true "エラー内容"
// @Success 200 {object} PageErrorResponse
// @Failure 404 {object} ErrorResponse "リダイレクト決済なし"
// @Router /host/redirect/page-error [post]
func (h *HostHandler) PageError(c echo.Context) error {
	var reqBody PageErrorRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	transportErr, err := h.shell.PageError(reqBody.URL, reqBody.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, PageErrorResponse{Warning: transportErr.Error()})
}

// PageFinished ページ読み込み完了を通知
// @Summary ページ読み込み完了を通知
// @Tags host
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body PageFinishedRequest true "読み込み完了URL"
// @Success 200 {object} AcceptedResponse
// @Failure 404 {object} ErrorResponse "リダイレクト決済なし"
// @Router /host/redirect/page-finished [post]
func (h *HostHandler) PageFinished(c echo.Context) error {
	var reqBody PageFinishedRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.shell.PageFinished(reqBody.URL); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AcceptedResponse{Accepted: true})
}

// TagDetected NFCタグ検出を通知
// @Summary NFCタグ検出を通知
// @Description タグ検出待ち以外の状態では無視されます
// @Tags host
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body TagDetectedRequest true "検出タグ"
// @Success 202 {object} AcceptedResponse
// @Failure 404 {object} ErrorResponse "NFC決済なし"
// @Router /host/nfc/tag [post]
func (h *HostHandler) TagDetected(c echo.Context) error {
	var reqBody TagDetectedRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.shell.TagDetected(nfc.Tag{ID: reqBody.TagID, Technologies: reqBody.Technologies}); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, AcceptedResponse{Accepted: true})
}

// CancelNFC NFC画面のキャンセル
// @Summary NFC決済をキャンセル
// @Description タグ検出待ちの間のみキャンセルできます
// @Tags host
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} CancelNFCResponse
// @Failure 404 {object} ErrorResponse "NFC決済なし"
// @Router /host/nfc/cancel [post]
func (h *HostHandler) CancelNFC(c echo.Context) error {
	cancelled, err := h.shell.CancelNFC()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CancelNFCResponse{Cancelled: cancelled})
}

// SetNFCAdapter NFCの有効/無効を切り替え
// @Summary NFCの有効/無効を切り替え
// @Tags host
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body SetNFCAdapterRequest true "有効/無効"
// @Success 204 "切り替え完了"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Router /host/nfc/adapter [put]
func (h *HostHandler) SetNFCAdapter(c echo.Context) error {
	var reqBody SetNFCAdapterRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.Enabled == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "enabled is required")
	}

	h.shell.SetNFCEnabled(c.Request().Context(), *reqBody.Enabled)
	return c.NoContent(http.StatusNoContent)
}

// Dismiss 決済画面を閉じる
// @Summary 決済画面を閉じる
// @Description 未確定の決済はキャンセルで確定します
// @Tags host
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body DismissRequest true "閉じる画面の種類"
// @Success 200 {object} AcceptedResponse
// @Failure 400 {object} ErrorResponse "不正な種類"
// @Failure 404 {object} ErrorResponse "該当する決済なし"
// @Router /host/dismiss [post]
func (h *HostHandler) Dismiss(c echo.Context) error {
	var reqBody DismissRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	kind, err := payment.NewKind(reqBody.Kind)
	if err != nil {
		return err
	}
	if err := h.shell.Dismiss(kind); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AcceptedResponse{Accepted: true})
}

func toHostStatusResponse(status host.Status) HostStatusResponse {
	return HostStatusResponse{
		Attached:       status.Attached,
		RedirectActive: status.RedirectActive,
		CurrentURL:     status.CurrentURL,
		NFCActive:      status.NFCActive,
		NFCState:       status.NFCState,
		NFCMessage:     status.NFCMessage,
		HapticPulses:   status.HapticPulses,
		SettingsOpened: status.SettingsOpened,
	}
}
