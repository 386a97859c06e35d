package domain

// Book is a catalog entry keyed by ISBN. The ISBN field is populated on
// search results and left empty when the key is already known to the caller.
type Book struct {
	ISBN    string            `json:"isbn,omitempty"`
	Author  string            `json:"author"`
	Title   string            `json:"title"`
	Reviews map[string]string `json:"reviews"`
}

// User is a registered credential pair. Passwords are stored and compared
// as-is; hashing is intentionally absent from this service.
type User struct {
	Username string `json:"username"`
	Password string `json:"-"`
}
