package models

// Identity is the name/email pair git records for an author or committer
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Equal reports whether both fields match exactly. No case or whitespace
// normalization is applied.
func (i Identity) Equal(other Identity) bool {
	return i.Name == other.Name && i.Email == other.Email
}

// Commit represents a commit listed on a pull request
type Commit struct {
	SHA       string   `json:"sha"`
	Message   string   `json:"message"`
	Author    Identity `json:"author"`
	Committer Identity `json:"committer"`
	URL       string   `json:"html_url"` // web URL, linked from the check report
}
