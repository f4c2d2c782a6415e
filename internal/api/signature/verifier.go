package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier проверяет подпись тела вебхука
type Verifier interface {
	Verify(body []byte, signature string) bool
}

// HMACVerifier проверка подписи HMAC-SHA256 с общим секретом платежного провайдера
//
// Подпись передается в hex в заголовке X-Webhook-Signature
type HMACVerifier struct {
	secret []byte
}

// NewHMACVerifier создает верификатор с заданным секретом
func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

// Verify сравнивает подпись тела с ожидаемой за константное время
func (v *HMACVerifier) Verify(body []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)

	return hmac.Equal(mac.Sum(nil), expected)
}
