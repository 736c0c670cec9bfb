package domain

// Repository is a GitHub repository descriptor as returned by the REST API.
type Repository struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	FullName        string `json:"full_name"`
	Owner           Owner  `json:"owner"`
	HTMLURL         string `json:"html_url"`
	Description     string `json:"description"`
	UpdatedAt       string `json:"updated_at"`
	StargazersCount int    `json:"stargazers_count"`
	Language        string `json:"language"`
	ForksCount      int    `json:"forks_count"`

	// IsBookmarked is filled by callers that know the active account's
	// bookmarks; GitHub never sets it.
	IsBookmarked bool `json:"is_bookmarked,omitempty"`
}

// GitHubUser is a GitHub account descriptor as returned by user search.
type GitHubUser struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	HTMLURL   string `json:"html_url"`
	ReposURL  string `json:"repos_url"`
	AvatarURL string `json:"avatar_url"`
}
