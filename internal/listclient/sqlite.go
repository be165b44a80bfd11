package listclient

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/hyperengineering/trustedapps/internal/types"
)

// SQLiteClient is the SQLite-backed exception list store.
type SQLiteClient struct {
	db       *sql.DB
	username string
}

// Option configures a SQLiteClient.
type Option func(*SQLiteClient)

// WithUsername sets the created_by attribution for persisted items.
func WithUsername(name string) Option {
	return func(c *SQLiteClient) {
		c.username = name
	}
}

// NewSQLiteClient opens (creating if necessary) the database at dbPath.
// It enables WAL mode, applies pragmas, and runs migrations.
func NewSQLiteClient(dbPath string, opts ...Option) (*SQLiteClient, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	c := &SQLiteClient{db: db, username: "system"}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// CreateTrustedAppsList creates the trusted apps list if absent. Concurrent
// callers are safe: the insert is a single INSERT OR IGNORE statement.
func (c *SQLiteClient) CreateTrustedAppsList(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO exception_lists (list_id, name, description, namespace_type, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, TrustedAppsListID, TrustedAppsListName, TrustedAppsListDescription,
		NamespaceAgnostic, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("create trusted apps list: %w", err)
	}
	return nil
}

// sortColumns whitelists sortable columns. Sort input never reaches SQL
// directly.
var sortColumns = map[string]string{
	"name":       "name",
	"created_at": "created_at",
	"created_by": "created_by",
}

// FindExceptionListItems returns one page of items matching opts.
func (c *SQLiteClient) FindExceptionListItems(ctx context.Context, opts types.FindExceptionListItemsOptions) (*types.FoundExceptionListItems, error) {
	column, ok := sortColumns[opts.SortField]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSort, opts.SortField)
	}
	order := "ASC"
	if opts.SortOrder == "desc" {
		order = "DESC"
	}

	where := "list_id = ? AND namespace_type = ?"
	args := []any{opts.ListID, opts.NamespaceType}
	if opts.Filter != "" {
		where += " AND (name LIKE ? OR description LIKE ?)"
		pattern := "%" + opts.Filter + "%"
		args = append(args, pattern, pattern)
	}

	var total int
	if err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM exception_list_items WHERE "+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, item_id, list_id, type, name, description, entries, tags,
		       os_tags, namespace_type, meta, comments, created_at, created_by
		FROM exception_list_items
		WHERE %s
		ORDER BY %s %s
		LIMIT ? OFFSET ?
	`, where, column, order)
	args = append(args, opts.PerPage, (opts.Page-1)*opts.PerPage)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []types.ExceptionListItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return &types.FoundExceptionListItems{
		Data:    items,
		Page:    opts.Page,
		PerPage: opts.PerPage,
		Total:   total,
	}, nil
}

// CreateExceptionListItem persists a new item, assigning id, created_at and
// created_by.
func (c *SQLiteClient) CreateExceptionListItem(ctx context.Context, req types.CreateExceptionListItemRequest) (*types.ExceptionListItem, error) {
	var listID string
	err := c.db.QueryRowContext(ctx,
		"SELECT list_id FROM exception_lists WHERE list_id = ?", req.ListID,
	).Scan(&listID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrListNotFound, req.ListID)
	}
	if err != nil {
		return nil, fmt.Errorf("look up list: %w", err)
	}

	item := types.ExceptionListItem{
		ID:            ulid.Make().String(),
		ItemID:        req.ItemID,
		ListID:        req.ListID,
		Type:          req.Type,
		Name:          req.Name,
		Description:   req.Description,
		Entries:       req.Entries,
		Tags:          req.Tags,
		OSTags:        req.OSTags,
		NamespaceType: req.NamespaceType,
		Meta:          req.Meta,
		Comments:      req.Comments,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     c.username,
	}

	entriesJSON, err := marshalList(item.Entries)
	if err != nil {
		return nil, fmt.Errorf("marshal entries: %w", err)
	}
	tagsJSON, err := marshalList(item.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	osTagsJSON, err := marshalList(item.OSTags)
	if err != nil {
		return nil, fmt.Errorf("marshal _tags: %w", err)
	}
	commentsJSON, err := marshalList(item.Comments)
	if err != nil {
		return nil, fmt.Errorf("marshal comments: %w", err)
	}

	var meta sql.NullString
	if len(item.Meta) > 0 {
		meta = sql.NullString{String: string(item.Meta), Valid: true}
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO exception_list_items (
			id, item_id, list_id, type, name, description, entries, tags,
			os_tags, namespace_type, meta, comments, created_at, created_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.ItemID, item.ListID, item.Type, item.Name, item.Description,
		entriesJSON, tagsJSON, osTagsJSON, item.NamespaceType, meta, commentsJSON,
		item.CreatedAt.Format(time.RFC3339), item.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	return &item, nil
}

// DeleteExceptionListItem deletes one item by id or item_id and returns it.
// Returns (nil, nil) when nothing matched.
func (c *SQLiteClient) DeleteExceptionListItem(ctx context.Context, opts types.DeleteExceptionListItemOptions) (*types.ExceptionListItem, error) {
	where := "namespace_type = ?"
	args := []any{opts.NamespaceType}
	switch {
	case opts.ID != "":
		where += " AND id = ?"
		args = append(args, opts.ID)
	case opts.ItemID != "":
		where += " AND item_id = ?"
		args = append(args, opts.ItemID)
	default:
		return nil, fmt.Errorf("delete item: id or item_id required")
	}

	row := c.db.QueryRowContext(ctx, `
		SELECT id, item_id, list_id, type, name, description, entries, tags,
		       os_tags, namespace_type, meta, comments, created_at, created_by
		FROM exception_list_items WHERE `+where, args...)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := c.db.ExecContext(ctx,
		"DELETE FROM exception_list_items WHERE id = ?", item.ID,
	); err != nil {
		return nil, fmt.Errorf("delete item: %w", err)
	}

	return item, nil
}

// CountItems reports the number of stored items across all lists.
func (c *SQLiteClient) CountItems(ctx context.Context) (int64, error) {
	var count int64
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM exception_list_items",
	).Scan(&count)
	return count, err
}

// scanItem scans a row into an ExceptionListItem, handling JSON columns.
func scanItem(scanner interface{ Scan(...any) error }) (*types.ExceptionListItem, error) {
	var item types.ExceptionListItem
	var entriesJSON, tagsJSON, osTagsJSON, commentsJSON string
	var meta sql.NullString
	var createdAt string

	err := scanner.Scan(
		&item.ID,
		&item.ItemID,
		&item.ListID,
		&item.Type,
		&item.Name,
		&item.Description,
		&entriesJSON,
		&tagsJSON,
		&osTagsJSON,
		&item.NamespaceType,
		&meta,
		&commentsJSON,
		&createdAt,
		&item.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(entriesJSON), &item.Entries); err != nil {
		return nil, fmt.Errorf("parse entries JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &item.Tags); err != nil {
		return nil, fmt.Errorf("parse tags JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(osTagsJSON), &item.OSTags); err != nil {
		return nil, fmt.Errorf("parse _tags JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(commentsJSON), &item.Comments); err != nil {
		return nil, fmt.Errorf("parse comments JSON: %w", err)
	}
	if meta.Valid {
		item.Meta = json.RawMessage(meta.String)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		item.CreatedAt = t
	}

	return &item, nil
}

// marshalList marshals a slice column, storing nil as [].
func marshalList(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s := string(b)
	if s == "null" {
		s = "[]"
	}
	return s, nil
}
