package email

import "net/mail"

const maxEmailLength = 254

// IsEmailValid accepts a bare addr-spec such as user@example.com.
func IsEmailValid(email string) bool {
	if len(email) < 3 || len(email) > maxEmailLength {
		return false
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}

	return addr.Address == email
}
