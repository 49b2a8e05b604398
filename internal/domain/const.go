package domain

import "strings"

const RequesterIdCtxKey = "dashboard-requesterId"

const (
	DashboardRoute = "/dashboard"
	InvoicesRoute  = "/dashboard/invoices"
	LoginRoute     = "/login"
)

// InvoicesPath is the cache path token invalidated after every invoice mutation.
const InvoicesPath = "dashboard/invoices"

const CredentialsSigninCode = "CredentialsSignin"

// CredentialsProviderName is the name of the email/password provider.
const CredentialsProviderName = "credentials"

const (
	MessageCreateMissingField = "Missing Field. Failed to create Invoice."
	MessageUpdateMissingField = "Missing Field. Failed to Update Invoice."
	MessageCreateFailed       = "Database Error: Failed to Create Invoice."
	MessageUpdateFailed       = "Database Error: Failed to Update Invoice."
	MessageDeleteFailed       = "Database Error: Failed to Delete Invoice"
)

// NormalizePath maps "dashboard/invoices", "/dashboard/invoices/" and
// "/dashboard/invoices" to the same cache path.
func NormalizePath(path string) string {
	return "/" + strings.Trim(strings.TrimSpace(path), "/")
}
