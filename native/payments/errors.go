package payments

import (
	"errors"
	"fmt"

	"travelledger/native/common"
)

var (
	ErrNilState          = errors.New("payments: state not configured")
	ErrNilTransferer     = errors.New("payments: transfer capability not configured")
	ErrTokenNotSupported = fmt.Errorf("payments: token not supported: %w", common.ErrValidation)
	ErrUnknownProvider   = fmt.Errorf("payments: recipient is not a provider: %w", common.ErrValidation)
	ErrAmountNotPositive = fmt.Errorf("payments: amount must be positive: %w", common.ErrValidation)
	ErrPaymentNotFound   = fmt.Errorf("payments: payment not found: %w", common.ErrValidation)
	ErrNotProvider       = fmt.Errorf("payments: caller is not a provider: %w", common.ErrUnauthorized)
	ErrAlreadyRefunded   = fmt.Errorf("payments: payment already refunded: %w", common.ErrState)
	ErrPaymentTransfer   = fmt.Errorf("payments: payment settlement failed: %w", common.ErrTransfer)
	ErrRefundTransfer    = fmt.Errorf("payments: refund settlement failed: %w", common.ErrTransfer)
)
