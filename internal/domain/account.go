package domain

// Account is a registered local account.
// It is owned by the credential store and never edited after registration.
type Account struct {
	Name             string
	Email            string
	ObscuredPassword string
}

// Identity returns the password-free view of the account.
func (a Account) Identity() Identity {
	return Identity{Name: a.Name, Email: a.Email}
}

// Identity is who is signed in. It never carries a password.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
