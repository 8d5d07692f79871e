package loyalty

import (
	"errors"
	"fmt"

	"travelledger/native/common"
)

var (
	ErrNilState            = errors.New("loyalty: state not configured")
	ErrNilTransferer       = errors.New("loyalty: transfer capability not configured")
	ErrTokenNotSupported   = fmt.Errorf("loyalty: token not supported: %w", common.ErrValidation)
	ErrPointsNotPositive   = fmt.Errorf("loyalty: points must be positive: %w", common.ErrValidation)
	ErrInsufficientBalance = fmt.Errorf("loyalty: insufficient point balance: %w", common.ErrState)
	ErrRedeemTransfer      = fmt.Errorf("loyalty: redemption payout failed: %w", common.ErrTransfer)
)
