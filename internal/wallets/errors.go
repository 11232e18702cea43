package wallets

import pkgerrors "github.com/vendora/vendora-backend/pkg/errors"

// ErrInsufficientFunds is returned when a guarded balance move would drive a
// wallet field negative. The mutation is rejected whole, never clamped.
var ErrInsufficientFunds = pkgerrors.New(pkgerrors.CodeInsufficientFunds, "amount exceeds wallet balance")
