package types

import (
	"encoding/json"
	"time"
)

// OSType identifies the operating system a trusted application applies to.
type OSType string

const (
	OSWindows OSType = "windows"
	OSLinux   OSType = "linux"
	OSMacOS   OSType = "macos"
)

// EntryType classifies how a match entry value is compared.
type EntryType string

const (
	EntryTypeExact    EntryType = "exact"
	EntryTypeMatch    EntryType = "match"
	EntryTypeWildcard EntryType = "wildcard"
)

// EntryOperator determines whether a matched value is included or excluded.
type EntryOperator string

const (
	OperatorIncluded EntryOperator = "included"
	OperatorExcluded EntryOperator = "excluded"
)

// MatchEntry is a single condition a process must satisfy to be trusted.
type MatchEntry struct {
	Field    string        `json:"field"`
	Type     EntryType     `json:"type"`
	Operator EntryOperator `json:"operator"`
	Value    string        `json:"value"`
}

// TrustedApp is an allow-list entry exempting matched processes from
// security scanning. It exists only at the API boundary; the durable record
// is the ExceptionListItem owned by the list client.
type TrustedApp struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	OS          OSType       `json:"os"`
	Entries     []MatchEntry `json:"entries"`
	CreatedAt   time.Time    `json:"created_at"`
	CreatedBy   string       `json:"created_by"`
}

// NewTrustedApp is the creation payload (without generated fields).
type NewTrustedApp struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	OS          OSType       `json:"os"`
	Entries     []MatchEntry `json:"entries"`
}

// ExceptionListItem is the generic persisted record type the list client
// stores. Trusted apps are one semantic use of it.
type ExceptionListItem struct {
	ID            string          `json:"id"`
	ItemID        string          `json:"item_id"`
	ListID        string          `json:"list_id"`
	Type          string          `json:"type"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Entries       []MatchEntry    `json:"entries"`
	Tags          []string        `json:"tags"`
	OSTags        []string        `json:"_tags"`
	NamespaceType string          `json:"namespace_type"`
	Meta          json.RawMessage `json:"meta,omitempty"`
	Comments      []string        `json:"comments"`
	CreatedAt     time.Time       `json:"created_at"`
	CreatedBy     string          `json:"created_by"`
}

// CreateExceptionListItemRequest carries everything needed to persist an
// item. ID, CreatedAt and CreatedBy are assigned by the list client.
type CreateExceptionListItemRequest struct {
	ItemID        string          `json:"item_id"`
	ListID        string          `json:"list_id"`
	Type          string          `json:"type"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Entries       []MatchEntry    `json:"entries"`
	Tags          []string        `json:"tags"`
	OSTags        []string        `json:"_tags"`
	NamespaceType string          `json:"namespace_type"`
	Meta          json.RawMessage `json:"meta,omitempty"`
	Comments      []string        `json:"comments"`
}

// FindExceptionListItemsOptions selects a page of items from one list.
type FindExceptionListItemsOptions struct {
	ListID        string
	Page          int
	PerPage       int
	Filter        string
	NamespaceType string
	SortField     string
	SortOrder     string
}

// DeleteExceptionListItemOptions identifies a single item for deletion.
// Exactly one of ID and ItemID is expected to be set.
type DeleteExceptionListItemOptions struct {
	ID            string
	ItemID        string
	NamespaceType string
}

// FoundExceptionListItems is one page of query results.
type FoundExceptionListItems struct {
	Data    []ExceptionListItem `json:"data"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"per_page"`
	Total   int                 `json:"total"`
}

// ListTrustedAppsResponse is the List endpoint response envelope.
type ListTrustedAppsResponse struct {
	Data    []ExceptionListItem `json:"data"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"per_page"`
	Total   int                 `json:"total"`
}

// CreateTrustedAppResponse is the Create endpoint response envelope.
type CreateTrustedAppResponse struct {
	Data TrustedApp `json:"data"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	ItemCount int64  `json:"item_count"`
}

// MarshalJSON ensures nil slices in TrustedApp marshal as [] not null.
func (a TrustedApp) MarshalJSON() ([]byte, error) {
	if a.Entries == nil {
		a.Entries = []MatchEntry{}
	}
	type Alias TrustedApp
	return json.Marshal(Alias(a))
}

// MarshalJSON ensures nil slices in ExceptionListItem marshal as [] not null.
func (i ExceptionListItem) MarshalJSON() ([]byte, error) {
	if i.Entries == nil {
		i.Entries = []MatchEntry{}
	}
	if i.Tags == nil {
		i.Tags = []string{}
	}
	if i.OSTags == nil {
		i.OSTags = []string{}
	}
	if i.Comments == nil {
		i.Comments = []string{}
	}
	type Alias ExceptionListItem
	return json.Marshal(Alias(i))
}

// MarshalJSON ensures nil slices in ListTrustedAppsResponse marshal as [] not null.
func (r ListTrustedAppsResponse) MarshalJSON() ([]byte, error) {
	if r.Data == nil {
		r.Data = []ExceptionListItem{}
	}
	type Alias ListTrustedAppsResponse
	return json.Marshal(Alias(r))
}
