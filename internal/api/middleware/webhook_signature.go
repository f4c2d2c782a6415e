package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/api/signature"
)

const headerWebhookSignature = "X-Webhook-Signature"

// WebhookSignature проверяет HMAC подпись тела вебхука платежного провайдера
//
// Тело запроса читается целиком и восстанавливается, чтобы handler мог
// декодировать его повторно
func WebhookSignature(verifier signature.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sig := r.Header.Get(headerWebhookSignature)
			if sig == "" {
				handlers.RespondUnauthorized(w, "отсутствует подпись вебхука")
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				handlers.RespondBadRequest(w, "не удалось прочитать тело запроса")
				return
			}
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			if !verifier.Verify(body, sig) {
				handlers.RespondUnauthorized(w, "некорректная подпись вебхука")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
