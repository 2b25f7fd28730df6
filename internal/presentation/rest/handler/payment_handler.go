package handler

import (
	"context"
	"net/http"

	bridgeapp "payment-bridge/internal/application/bridge"

	"github.com/labstack/echo/v4"
)

// PaymentBridge ハンドラーから利用する決済ブリッジ
type PaymentBridge interface {
	StartRedirectPayment(ctx context.Context, req *bridgeapp.StartRedirectPaymentRequest) (*bridgeapp.PaymentResponse, error)
	StartCardPresentPayment(ctx context.Context, req *bridgeapp.StartCardPresentPaymentRequest) (*bridgeapp.PaymentResponse, error)
	NFCStatus() *bridgeapp.NFCStatusResponse
	OpenNFCSettings(ctx context.Context) error
}

// PaymentHandler 決済関連ハンドラー
type PaymentHandler struct {
	bridge PaymentBridge
}

// NewPaymentHandler 新しいPaymentHandlerを作成
func NewPaymentHandler(bridge PaymentBridge) *PaymentHandler {
	return &PaymentHandler{
		bridge: bridge,
	}
}

// StartRedirectPayment リダイレクト決済ハンドラー
// @Summary リダイレクト決済を開始
// @Description 決済プロバイダーのページをホストで表示し、終端コールバックまで待機します
// @Tags payments
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body StartRedirectPaymentRequest true "リダイレクト決済開始リクエスト"
// @Success 200 {object} PaymentOutcomeResponse "決済結果（success/failed/cancelled）"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 409 {object} ErrorResponse "同種の決済が進行中"
// @Failure 503 {object} ErrorResponse "ホスト画面なし"
// @Router /payments/redirect [post]
func (h *PaymentHandler) StartRedirectPayment(c echo.Context) error {
	var reqBody StartRedirectPaymentRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.bridge.StartRedirectPayment(c.Request().Context(), &bridgeapp.StartRedirectPaymentRequest{
		PaymentURL: reqBody.PaymentURL,
		SuccessURL: reqBody.SuccessURL,
		FailURL:    reqBody.FailURL,
		CancelURL:  reqBody.CancelURL,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toPaymentOutcomeResponse(resp))
}

// StartCardPresentPayment NFC決済ハンドラー
// @Summary NFCカード決済を開始
// @Description NFC決済画面をホストで表示し、カード検出から決済結果まで待機します
// @Tags payments
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body StartCardPresentPaymentRequest true "NFC決済開始リクエスト"
// @Success 200 {object} PaymentOutcomeResponse "決済結果（success/failed/cancelled）"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 409 {object} ErrorResponse "同種の決済が進行中"
// @Failure 503 {object} ErrorResponse "ホスト画面なし"
// @Router /payments/card-present [post]
func (h *PaymentHandler) StartCardPresentPayment(c echo.Context) error {
	var reqBody StartCardPresentPaymentRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.bridge.StartCardPresentPayment(c.Request().Context(), &bridgeapp.StartCardPresentPaymentRequest{
		Amount:     reqBody.Amount,
		CardNumber: reqBody.CardNumber,
		ExpiryDate: reqBody.ExpiryDate,
		CVV:        reqBody.CVV,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toPaymentOutcomeResponse(resp))
}

// GetNFCStatus NFC状態取得ハンドラー
// @Summary NFCの対応状況を取得
// @Tags nfc
// @Produce json
// @Security Bearer
// @Success 200 {object} NFCStatusResponse
// @Router /nfc/status [get]
func (h *PaymentHandler) GetNFCStatus(c echo.Context) error {
	status := h.bridge.NFCStatus()
	return c.JSON(http.StatusOK, NFCStatusResponse{
		Supported: status.Supported,
		Enabled:   status.Enabled,
	})
}

// OpenNFCSettings NFC設定画面ハンドラー
// @Summary NFC設定画面を開く
// @Description 画面遷移の成否のみを返します
// @Tags nfc
// @Produce json
// @Security Bearer
// @Success 200 {object} NFCSettingsResponse
// @Failure 503 {object} ErrorResponse "ホスト画面なし"
// @Router /nfc/settings [post]
func (h *PaymentHandler) OpenNFCSettings(c echo.Context) error {
	if err := h.bridge.OpenNFCSettings(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NFCSettingsResponse{Opened: true})
}
