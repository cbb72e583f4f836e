package provider

import "fmt"

// AuthError means the provider rejected our credentials (401/403), or no
// credential was configured at all.
type AuthError struct {
	Provider string
	Status   int
	Message  string
}

func (e *AuthError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: missing api key", e.Provider)
	}
	return fmt.Sprintf("%s: auth failed (status %d): %s", e.Provider, e.Status, truncate(e.Message, 200))
}

// RequestError covers transport failures and non-auth HTTP errors.
type RequestError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, truncate(e.Message, 200))
}

func (e *RequestError) Unwrap() error { return e.Err }

// EmptyResultError means the provider answered successfully but returned no
// usable content.
type EmptyResultError struct {
	Provider string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s: empty result", e.Provider)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
