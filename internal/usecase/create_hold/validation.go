package create_hold

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.CarID <= 0 {
		return fmt.Errorf("%w: carID must be positive", ErrInvalidInput)
	}

	if req.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}

	if !req.PayMode.IsValid() {
		return fmt.Errorf("%w: unknown pay mode %q", ErrInvalidInput, req.PayMode)
	}

	if req.TotalAmount <= 0 {
		return fmt.Errorf("%w: totalAmount must be positive", ErrInvalidInput)
	}

	// Холд составляет 10% от стоимости; для копеечных сумм он округляется
	// до нуля, и платеж предоплаты становится невозможен
	if req.PayMode.IsHold() && domain.ComputeHoldAmount(req.TotalAmount) <= 0 {
		return fmt.Errorf("%w: totalAmount %d is too small for pay mode %q", ErrInvalidInput, req.TotalAmount, req.PayMode)
	}

	// gateway_hold закрепляется вебхуком провайдера, поэтому интент
	// и имя шлюза должны существовать до создания холда
	if req.PayMode == domain.PayModeGatewayHold {
		if req.ProviderTransactionID == "" {
			return fmt.Errorf("%w: providerTransactionId is required for gateway_hold", ErrInvalidInput)
		}
		if req.Gateway == "" {
			return fmt.Errorf("%w: gateway is required for gateway_hold", ErrInvalidInput)
		}
	}

	if err := req.Window.Validate(); err != nil {
		if errors.Is(err, domain.ErrWindowEndNotAfterStart) || errors.Is(err, domain.ErrWindowTooShort) {
			return fmt.Errorf("%w: %v", ErrInvalidWindow, err)
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return nil
}
