// Package trustedapps is a small HTTP client for the trusted apps service.
package trustedapps

import "time"

// MatchEntry is a single condition a process must satisfy to be trusted.
type MatchEntry struct {
	Field    string `json:"field"`
	Type     string `json:"type"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// TrustedApp is an allow-list entry as returned by the service.
type TrustedApp struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	OS          string       `json:"os"`
	Entries     []MatchEntry `json:"entries"`
	CreatedAt   time.Time    `json:"created_at"`
	CreatedBy   string       `json:"created_by"`
}

// NewTrustedApp is the creation payload.
type NewTrustedApp struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	OS          string       `json:"os"`
	Entries     []MatchEntry `json:"entries"`
}

// ListItem is the raw stored record returned by List.
type ListItem struct {
	ID            string       `json:"id"`
	ItemID        string       `json:"item_id"`
	ListID        string       `json:"list_id"`
	Type          string       `json:"type"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Entries       []MatchEntry `json:"entries"`
	Tags          []string     `json:"tags"`
	OSTags        []string     `json:"_tags"`
	NamespaceType string       `json:"namespace_type"`
	Comments      []string     `json:"comments"`
	CreatedAt     time.Time    `json:"created_at"`
	CreatedBy     string       `json:"created_by"`
}

// ListOptions selects a page of trusted apps.
type ListOptions struct {
	Page    int
	PerPage int
	Filter  string
}

// ListResult is one page of trusted apps.
type ListResult struct {
	Data    []ListItem `json:"data"`
	Page    int        `json:"page"`
	PerPage int        `json:"per_page"`
	Total   int        `json:"total"`
}
