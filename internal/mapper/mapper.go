// Package mapper projects trusted applications onto the generic exception
// list item schema and back. Both directions are pure; the only generated
// value is the item_id of a new item.
package mapper

import (
	"strings"

	"github.com/google/uuid"

	"github.com/hyperengineering/trustedapps/internal/listclient"
	"github.com/hyperengineering/trustedapps/internal/types"
)

// osTagPrefix encodes the operating system into the item's _tags facet.
const osTagPrefix = "os:"

// ToCreateItemRequest maps a creation payload onto the list client schema.
// A fresh item_id is generated per call.
func ToCreateItemRequest(app types.NewTrustedApp) types.CreateExceptionListItemRequest {
	return types.CreateExceptionListItemRequest{
		ItemID:        uuid.NewString(),
		ListID:        listclient.TrustedAppsListID,
		Type:          listclient.ItemTypeSimple,
		Name:          app.Name,
		Description:   app.Description,
		Entries:       app.Entries,
		Tags:          []string{},
		OSTags:        []string{OSTag(app.OS)},
		NamespaceType: listclient.NamespaceAgnostic,
		Comments:      []string{},
	}
}

// FromItem maps a stored item back into the trusted app response shape.
func FromItem(item types.ExceptionListItem) types.TrustedApp {
	return types.TrustedApp{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		OS:          OSFromTags(item.OSTags),
		Entries:     item.Entries,
		CreatedAt:   item.CreatedAt,
		CreatedBy:   item.CreatedBy,
	}
}

// OSTag encodes an operating system as a _tags facet.
func OSTag(os types.OSType) string {
	return osTagPrefix + string(os)
}

// OSFromTags decodes the operating system from the first os: facet.
// Returns the empty OSType when no facet is present.
func OSFromTags(tags []string) types.OSType {
	for _, tag := range tags {
		if strings.HasPrefix(tag, osTagPrefix) {
			return types.OSType(strings.TrimPrefix(tag, osTagPrefix))
		}
	}
	return ""
}
