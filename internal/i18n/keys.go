// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAccessDenied           = "auth.access_denied"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// Users
	KeyUserCreated   = "user.created"
	KeyUserNotFound  = "user.not_found"
	KeyUserSuspended = "user.suspended"

	// Keys
	KeyKeysCreated         = "key.created"
	KeyKeysTransferred     = "key.transferred"
	KeyKeysRevoked         = "key.revoked"
	KeyKeyNotFound         = "key.not_found"
	KeyKeyProvisioned      = "key.provisioned"
	KeyKeyInsufficient     = "key.insufficient_inventory"
	KeyKeyTransferBlocked  = "key.transfer_not_permitted"
	KeyKeyExpired          = "key.expired"
	KeyKeyAlreadyConsumed  = "key.already_consumed"
	KeyKeyPartialProvision = "key.provision_partial"

	// Wallet
	KeyWalletNotFound = "wallet.not_found"

	// Transactions
	KeyTransactionNotFound = "transaction.not_found"

	// Payments
	KeyPaymentSuccess = "payment.success"
	KeyPaymentFailed  = "payment.failed"
)
