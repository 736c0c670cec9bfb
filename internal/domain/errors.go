package domain

import "errors"

// Auth
var (
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account does not exist")
	ErrInvalidCredentials = errors.New("incorrect password")
)

// Bookmarks
var (
	ErrNoActiveAccount   = errors.New("no active account")
	ErrAccountChanged    = errors.New("active account changed")
	ErrAlreadyBookmarked = errors.New("repository already bookmarked")
	ErrRepoNotFound      = errors.New("repository not found")
)

// Import
var (
	ErrCSVParse         = errors.New("error parsing CSV file")
	ErrImport           = errors.New("error importing CSV file")
	ErrImportInProgress = errors.New("import already in progress")
)
