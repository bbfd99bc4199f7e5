package provision

import (
	"errors"

	"github.com/Klingon-tech/klingnet-custody/internal/custody"
	"github.com/Klingon-tech/klingnet-custody/internal/repo"
	"github.com/Klingon-tech/klingnet-custody/internal/wallet"
)

// Errors returned by the service. Collaborator errors are re-exported so
// callers only need this package for errors.Is checks.
var (
	ErrUnknownAddress = errors.New("unknown address")
	ErrInvalidMFACode = errors.New("invalid MFA code")
	ErrAddressExists  = errors.New("address already bound")

	ErrInvalidParameter  = wallet.ErrInvalidParameter
	ErrKeyNotFound       = custody.ErrKeyNotFound
	ErrExportUnsupported = custody.ErrExportUnsupported
	ErrRepository        = repo.ErrRepository
	ErrWalletNotFound    = repo.ErrWalletNotFound
)

// authFailedMessage is shown for both unknown addresses and bad codes.
const authFailedMessage = "authentication failed"

// PublicError returns the message safe to show a caller. Authentication
// failures collapse into one message so a caller cannot probe which
// addresses exist.
func PublicError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownAddress), errors.Is(err, ErrInvalidMFACode):
		return authFailedMessage
	case errors.Is(err, ErrInvalidParameter), errors.Is(err, wallet.ErrInvalidMnemonic):
		return "invalid request"
	case errors.Is(err, ErrAddressExists):
		return "wallet already exists"
	case errors.Is(err, ErrExportUnsupported):
		return "key export is not available"
	case errors.Is(err, ErrWalletNotFound):
		return "wallet not found"
	default:
		return "internal error"
	}
}
