package listclient

import (
	"context"

	"github.com/hyperengineering/trustedapps/internal/types"
)

// Well-known identifiers for the trusted apps list.
const (
	// TrustedAppsListID is the fixed list all trusted apps live in.
	TrustedAppsListID = "endpoint_trusted_apps"

	// TrustedAppsListName and TrustedAppsListDescription label the list
	// when it is first created.
	TrustedAppsListName        = "Trusted Apps"
	TrustedAppsListDescription = "Trusted applications exempted from malware protection"

	// NamespaceAgnostic is the scoping attribute on stored items, fixed
	// for this use case.
	NamespaceAgnostic = "agnostic"

	// ItemTypeSimple is the exception item type used for trusted apps.
	ItemTypeSimple = "simple"
)

// Sort parameters the handlers always query with.
const (
	SortFieldName = "name"
	SortOrderAsc  = "asc"
)

// ExceptionListClient manages named, namespaced collections of structured
// exception/allow items. Handlers depend on this interface; the SQLite
// implementation below is the default, but anything satisfying the contract
// can be injected through the request context.
type ExceptionListClient interface {
	// CreateTrustedAppsList creates the trusted apps list if it does not
	// already exist. It is idempotent and safe to call on every request.
	CreateTrustedAppsList(ctx context.Context) error

	// FindExceptionListItems returns one page of items from a list.
	FindExceptionListItems(ctx context.Context, opts types.FindExceptionListItemsOptions) (*types.FoundExceptionListItems, error)

	// CreateExceptionListItem persists a new item, assigning id,
	// created_at and created_by.
	CreateExceptionListItem(ctx context.Context, req types.CreateExceptionListItemRequest) (*types.ExceptionListItem, error)

	// DeleteExceptionListItem deletes one item and returns it. A nil item
	// with nil error means nothing matched.
	DeleteExceptionListItem(ctx context.Context, opts types.DeleteExceptionListItemOptions) (*types.ExceptionListItem, error)

	// CountItems reports the number of stored items across all lists.
	CountItems(ctx context.Context) (int64, error)

	Close() error
}
