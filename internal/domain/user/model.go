package user

// Principal identifies the authenticated caller as reported by the account
// service. The prediction service never stores credentials.
type Principal struct {
	UserID string
	Email  string
}
