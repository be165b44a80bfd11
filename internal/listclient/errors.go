package listclient

import "errors"

var (
	ErrNotFound     = errors.New("exception list item not found")
	ErrListNotFound = errors.New("exception list not found")
	ErrInvalidSort  = errors.New("unsupported sort field")
)
