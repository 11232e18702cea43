package disputes

import pkgerrors "github.com/vendora/vendora-backend/pkg/errors"

// ErrAlreadyResolved is returned when a closed dispute is resolved again. The
// first decision stands; the second attempt changes nothing.
var ErrAlreadyResolved = pkgerrors.New(pkgerrors.CodeConflict, "dispute already resolved")

// ErrDisputeExists is returned when an order already has a dispute open.
var ErrDisputeExists = pkgerrors.New(pkgerrors.CodeConflict, "dispute already open for order")
