package errs

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace is the codespace for sale program errors.
const Codespace = "walien_pool"

// AnchorCodespace holds framework-level account errors.
const AnchorCodespace = "anchor"

// Framework errors keep the Anchor numbering so codes match what clients of the
// on-chain program already decode.
var (
	ErrConstraintRaw              = errorsmod.Register(AnchorCodespace, 2003, "a raw constraint was violated")
	ErrConstraintSeeds            = errorsmod.Register(AnchorCodespace, 2006, "a seeds constraint was violated")
	ErrAccountDiscriminator       = errorsmod.Register(AnchorCodespace, 3002, "account discriminator did not match what was expected")
	ErrAccountDidNotSerialize     = errorsmod.Register(AnchorCodespace, 3004, "failed to serialize the account")
	ErrAccountOwnedByWrongProgram = errorsmod.Register(AnchorCodespace, 3007, "the given account is owned by a different program than expected")
	ErrAccountNotInitialized      = errorsmod.Register(AnchorCodespace, 3012, "the program expected this account to be already initialized")
)

// Program errors. Custom codes start at 6000 in declaration order.
var (
	// tick and price math
	ErrInvalidStartTick     = errorsmod.Register(Codespace, 6000, "invalid start tick index provided")
	ErrInvalidTickSpacing   = errorsmod.Register(Codespace, 6001, "tick-spacing is not supported")
	ErrTickNotFound         = errorsmod.Register(Codespace, 6002, "tick not found within tick array")
	ErrInvalidTickIndex     = errorsmod.Register(Codespace, 6003, "provided tick index is either out of bounds or uninitializable")
	ErrSqrtPriceOutOfBounds = errorsmod.Register(Codespace, 6004, "provided sqrt price out of bounds")

	// liquidity math
	ErrLiquidityZero      = errorsmod.Register(Codespace, 6005, "liquidity amount must be greater than zero")
	ErrLiquidityTooHigh   = errorsmod.Register(Codespace, 6006, "liquidity amount must be less than i64::MAX")
	ErrLiquidityOverflow  = errorsmod.Register(Codespace, 6007, "liquidity overflow")
	ErrLiquidityUnderflow = errorsmod.Register(Codespace, 6008, "liquidity underflow")
	ErrLiquidityNetError  = errorsmod.Register(Codespace, 6009, "tick liquidity net underflowed or overflowed")

	// numeric math
	ErrDivideByZero                     = errorsmod.Register(Codespace, 6010, "unable to divide by zero")
	ErrNumberCastError                  = errorsmod.Register(Codespace, 6011, "unable to cast number into BigInt")
	ErrNumberDownCastError              = errorsmod.Register(Codespace, 6012, "unable to down cast number")
	ErrTokenMinSubceeded                = errorsmod.Register(Codespace, 6013, "did not meet token min")
	ErrMultiplicationShiftRightOverflow = errorsmod.Register(Codespace, 6014, "multiplication with shift right overflow")
	ErrMulDivOverflow                   = errorsmod.Register(Codespace, 6015, "muldiv overflow")
	ErrMulDivInvalidInput               = errorsmod.Register(Codespace, 6016, "invalid div_u256 input")
	ErrMultiplicationOverflow           = errorsmod.Register(Codespace, 6017, "multiplication overflow")

	// swap math
	ErrZeroTradableAmount      = errorsmod.Register(Codespace, 6018, "there are no tradable amount to swap")
	ErrAmountOutBelowMinimum   = errorsmod.Register(Codespace, 6019, "amount out below minimum threshold")
	ErrAmountInAboveMaximum    = errorsmod.Register(Codespace, 6020, "amount in above maximum threshold")
	ErrAmountCalcOverflow      = errorsmod.Register(Codespace, 6021, "amount calculated overflows")
	ErrAmountRemainingOverflow = errorsmod.Register(Codespace, 6022, "amount remaining overflows")

	ErrInvalidSqrtPriceLimitDirection = errorsmod.Register(Codespace, 6023, "provided sqrt price limit not in the same direction as the swap")
	ErrTokenMaxExceeded               = errorsmod.Register(Codespace, 6024, "exceeded token max")

	// sale
	ErrSlippageExceeded             = errorsmod.Register(Codespace, 6025, "slippage exceeded")
	ErrSaleNotActive                = errorsmod.Register(Codespace, 6026, "sale not active")
	ErrInsufficientAvailableForSwap = errorsmod.Register(Codespace, 6027, "insufficient available USDC for swap")
	ErrUsdcCapExceeded              = errorsmod.Register(Codespace, 6028, "USDC cap exceeded")
	ErrUserSummaryUnderflow         = errorsmod.Register(Codespace, 6029, "user summary underflow")
	ErrNothingToClaim               = errorsmod.Register(Codespace, 6030, "nothing to claim")
	ErrClaimIsNotActive             = errorsmod.Register(Codespace, 6031, "claim is not active")
	ErrInvalidWalienTokenAccount    = errorsmod.Register(Codespace, 6032, "invalid Walien token account")
	ErrWalienIsNotSet               = errorsmod.Register(Codespace, 6033, "Walien is not set")
	ErrWithdrawNotAllowed           = errorsmod.Register(Codespace, 6034, "withdrawal not allowed")
	ErrInvalidUsdcMint              = errorsmod.Register(Codespace, 6035, "invalid USDC mint")
	ErrInvalidUsdcDecimals          = errorsmod.Register(Codespace, 6036, "invalid USDC decimals")
	ErrInvalidWalienDecimals        = errorsmod.Register(Codespace, 6037, "invalid Walien decimals")
	ErrInvalidFeeRate               = errorsmod.Register(Codespace, 6038, "fee rate above maximum")
)

// Code returns the codespace and numeric code carried by err. Unregistered
// errors report the undefined codespace.
func Code(err error) (string, uint32) {
	if err == nil {
		return "", 0
	}
	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	return codespace, code
}

// Is reports whether err carries any of the registered targets.
func Is(err error, targets ...error) bool {
	return errorsmod.IsOf(err, targets...)
}
