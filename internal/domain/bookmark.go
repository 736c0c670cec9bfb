package domain

import "time"

// Owner is the subset of a GitHub account kept alongside a bookmark.
type Owner struct {
	Login     string `json:"login" yaml:"login"`
	AvatarURL string `json:"avatar_url" yaml:"avatar_url"`
	HTMLURL   string `json:"html_url" yaml:"html_url"`
}

// BookmarkEntry is a saved repository reference.
// Within one account's list, ID is unique.
type BookmarkEntry struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the GitHub repository id.
	ID int64 `json:"id"`

	// Name is the short repository name. Example: "chi"
	Name string `json:"name"`

	// FullName is "owner/repo". Example: "go-chi/chi"
	FullName string `json:"full_name"`

	// ─────────────────────────────
	// Snapshot of the repository at bookmark time
	// ─────────────────────────────

	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	Owner       Owner  `json:"owner"`
	StarCount   int    `json:"stargazers_count"`
	ForkCount   int    `json:"forks_count"`
	Language    string `json:"language"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// BookmarkedAt is when the entry was created, or the date column of
	// an imported CSV row.
	BookmarkedAt time.Time `json:"bookmarked_at"`
}

// NewBookmarkEntry snapshots repo into an entry stamped with at (UTC).
func NewBookmarkEntry(repo *Repository, at time.Time) BookmarkEntry {
	return BookmarkEntry{
		ID:          repo.ID,
		Name:        repo.Name,
		FullName:    repo.FullName,
		Description: repo.Description,
		HTMLURL:     repo.HTMLURL,
		Owner: Owner{
			Login:     repo.Owner.Login,
			AvatarURL: repo.Owner.AvatarURL,
			HTMLURL:   repo.Owner.HTMLURL,
		},
		StarCount:    repo.StargazersCount,
		ForkCount:    repo.ForksCount,
		Language:     repo.Language,
		BookmarkedAt: at.UTC(),
	}
}
