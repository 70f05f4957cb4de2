package payment

import (
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/shophub/internal/domain/payment"
)

const (
	paymentService = "payment-service"
	gatewayPeer    = "payment_gateway"
)

var (
	ErrOrderNotFound    = domorder.ErrNotFound
	ErrAlreadyPaid      = domorder.ErrAlreadyPaid
	ErrPaymentRefTaken  = domorder.ErrPaymentRefTaken
	ErrInvalidSignature = dompayment.ErrInvalidSignature
	ErrGateway          = dompayment.ErrGateway
	ErrRepository       = application.ErrRepository
)

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domorder.ErrNotFound):
		return ErrOrderNotFound
	case errors.Is(err, domorder.ErrPaymentRefTaken):
		return ErrPaymentRefTaken
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
