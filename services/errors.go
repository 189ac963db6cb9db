package services

import (
	"errors"

	"straphub-service/clients"
	apperrors "straphub-service/common/errors"
)

var (
	ErrEmptyCart          = apperrors.ErrEmptyCart
	ErrCheckoutInProgress = apperrors.ErrCheckoutInProgress
	ErrVariantNotFound    = apperrors.New(apperrors.ErrNotFound.Code, apperrors.CategoryNotFound, "That option is no longer available", nil)
	ErrProductNotFound    = apperrors.New(apperrors.ErrNotFound.Code, apperrors.CategoryNotFound, "Product not found", nil)

	// ErrMixedCurrency is returned by Subtotal when line items are priced in
	// more than one currency.
	ErrMixedCurrency = errors.New("cart contains more than one currency")
)

// classifyGatewayError maps a gateway failure to the category shown to the
// shopper. The original error stays reachable through errors.Is/As.
func classifyGatewayError(err error) error {
	var verr *clients.ValidationError
	switch {
	case errors.As(err, &verr):
		return apperrors.Wrap(apperrors.ErrValidation, err, verr.Messages()...)
	case errors.Is(err, clients.ErrPaymentRequired):
		return apperrors.Wrap(apperrors.ErrMerchantConfig, err)
	case errors.Is(err, clients.ErrProductNotFound):
		return apperrors.Wrap(ErrProductNotFound, err)
	default:
		return apperrors.Wrap(apperrors.ErrNetwork, err)
	}
}
