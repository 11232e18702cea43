package escrow

import pkgerrors "github.com/vendora/vendora-backend/pkg/errors"

// ErrInvalidTransition is returned when an escrow transition is requested
// from a state that does not allow it. Terminal states never move again.
var ErrInvalidTransition = pkgerrors.New(pkgerrors.CodeConflict, "illegal escrow transition")

// ErrNotOrderBuyer is returned when a buyer-scoped operation targets an order
// the caller did not pay for.
var ErrNotOrderBuyer = pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to a different buyer")
