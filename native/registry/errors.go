package registry

import (
	"fmt"

	"travelledger/native/common"
)

var (
	ErrNotAdmin         = fmt.Errorf("registry: caller is not the admin: %w", common.ErrUnauthorized)
	ErrEmptySymbol      = fmt.Errorf("registry: token symbol required: %w", common.ErrValidation)
	ErrTokenNotFound    = fmt.Errorf("registry: token not supported: %w", common.ErrValidation)
	ErrEmptyProvider    = fmt.Errorf("registry: provider address required: %w", common.ErrValidation)
	ErrProviderNotFound = fmt.Errorf("registry: provider not registered: %w", common.ErrValidation)
)
