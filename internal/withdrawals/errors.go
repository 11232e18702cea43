package withdrawals

import pkgerrors "github.com/vendora/vendora-backend/pkg/errors"

// ErrInsufficientBalance is returned when a withdrawal request exceeds the
// wallet's available balance.
var ErrInsufficientBalance = pkgerrors.New(pkgerrors.CodeInsufficientFunds, "amount exceeds available balance")

// ErrInvalidStatus is returned when a withdrawal transition is requested from
// a status that does not allow it.
var ErrInvalidStatus = pkgerrors.New(pkgerrors.CodeConflict, "withdrawal not in expected status")

// ErrWalletFrozen is returned when the business has open disputes and cannot
// take money out.
var ErrWalletFrozen = pkgerrors.New(pkgerrors.CodeConflict, "wallet frozen while disputes are open")
