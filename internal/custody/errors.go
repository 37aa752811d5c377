package custody

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace groups system and token program failures.
const Codespace = "custody"

var (
	ErrAccountNotFound      = errorsmod.Register(Codespace, 1, "account not found")
	ErrAccountAlreadyInUse  = errorsmod.Register(Codespace, 2, "account already in use")
	ErrInsufficientLamports = errorsmod.Register(Codespace, 3, "insufficient lamports")
	ErrInvalidAccountData   = errorsmod.Register(Codespace, 4, "invalid account data for instruction")
	ErrInsufficientFunds    = errorsmod.Register(Codespace, 5, "insufficient funds")
	ErrOwnerMismatch        = errorsmod.Register(Codespace, 6, "owner does not match")
	ErrMintMismatch         = errorsmod.Register(Codespace, 7, "account not associated with this mint")
	ErrOverflow             = errorsmod.Register(Codespace, 8, "operation overflowed")
)
