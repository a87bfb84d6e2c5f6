package public

import (
	"errors"
	"io"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/http/response"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentProviderWebhook receives payment provider notifications. The
// endpoint always answers 200 once the payload parses; reconciliation
// problems are logged and retried by the provider or the sweep, never
// surfaced here.
func (h *Handler) PaymentProviderWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("payment_webhook_body_read_failed", "error", err)
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	log.Infow("payment_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
	)

	processed, err := h.PaymentService.HandleNotification(c.Request.Context(), body)
	if err != nil {
		if errors.Is(err, service.ErrWebhookPayloadInvalid) {
			respondError(c, response.CodeBadRequest, "invalid webhook payload", nil)
			return
		}
		log.Warnw("payment_webhook_handle_failed", "error", err)
		response.Success(c, gin.H{"status": "ignored"})
		return
	}

	status := "ignored"
	if processed {
		status = "processed"
	}
	response.Success(c, gin.H{"status": status})
}
