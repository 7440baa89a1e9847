// Package catalog_repo provides PostgreSQL implementations of the reference-record
// repositories (parties, inventory items).
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/id"
	"orderledger/internal/domain"
	"orderledger/internal/infrastructure/storage/postgres"
)

// touchable is implemented by every entity embedding entity.BaseEntity.
type touchable interface {
	GetID() id.ID
	GetVersion() int
	Touch()
}

// BaseCatalogRepo provides common CRUD operations for reference records.
// Embed this in specific catalog repositories.
type BaseCatalogRepo[T touchable] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string

	// selectCols may contain computed expressions; writeCols are plain columns.
	selectCols []string
	writeCols  []string

	// immutable columns are written on insert but never updated
	immutable  []string
	searchCols []string
	scope      squirrel.Sqlizer
	defaultOrd string
	newFn      func() T
}

// BaseConfig configures a BaseCatalogRepo.
type BaseConfig[T touchable] struct {
	TableName  string
	EntityName string
	SelectCols []string
	WriteCols  []string
	Immutable  []string
	SearchCols []string

	// Scope restricts every query, e.g. squirrel.Eq{"kind": "customer"}.
	Scope        squirrel.Sqlizer
	DefaultOrder string
	New          func() T
}

// NewBaseCatalogRepo creates a new base catalog repository.
func NewBaseCatalogRepo[T touchable](txm *postgres.TxManager, cfg BaseConfig[T]) *BaseCatalogRepo[T] {
	selectCols := cfg.SelectCols
	if len(selectCols) == 0 {
		selectCols = cfg.WriteCols
	}
	order := cfg.DefaultOrder
	if order == "" {
		order = "created_at DESC"
	}
	return &BaseCatalogRepo[T]{
		txm:        txm,
		tableName:  cfg.TableName,
		entityName: cfg.EntityName,
		selectCols: selectCols,
		writeCols:  cfg.WriteCols,
		immutable:  cfg.Immutable,
		searchCols: cfg.SearchCols,
		scope:      cfg.Scope,
		defaultOrd: order,
		newFn:      cfg.New,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Querier returns the transaction-bound querier for ctx.
func (r *BaseCatalogRepo[T]) Querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// TableName returns the backing table.
func (r *BaseCatalogRepo[T]) TableName() string {
	return r.tableName
}

// Create inserts a new entity using its "db" tags.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	data := postgres.ColumnValues(entity, r.writeCols)
	if len(data) == 0 {
		return fmt.Errorf("no db columns found in %s", r.entityName)
	}

	sql, args, err := r.Builder().
		Insert(r.tableName).
		SetMap(data).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert %s: %w", r.tableName, err), r.entityName)
	}
	return nil
}

// Update modifies an existing entity with optimistic locking. On success the
// entity's version is incremented to match the row.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, entity T) error {
	skip := append([]string{"id", "version", "created_at", "updated_at"}, r.immutable...)
	data := postgres.ColumnValues(entity, postgres.Without(r.writeCols, skip...))

	q := r.Builder().
		Update(r.tableName).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entity.GetID()}).
		Where(squirrel.Eq{"version": entity.GetVersion()})
	q = r.scoped(q)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update %s: %w", r.tableName, err), r.entityName)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entityName, entity.GetID())
	}

	entity.Touch()
	return nil
}

// BaseSelect creates a scoped SELECT builder over selectCols.
func (r *BaseCatalogRepo[T]) BaseSelect() squirrel.SelectBuilder {
	q := r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
	if r.scope != nil {
		q = q.Where(r.scope)
	}
	return q
}

func (r *BaseCatalogRepo[T]) scoped(q squirrel.UpdateBuilder) squirrel.UpdateBuilder {
	if r.scope != nil {
		q = q.Where(r.scope)
	}
	return q
}

// GetByID retrieves entity by ID. Soft-deleted rows are returned with DeletionMark set.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.get(ctx, entityID, "")
}

// GetForUpdate retrieves a live entity by ID with a row lock.
func (r *BaseCatalogRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	return r.get(ctx, entityID, "FOR UPDATE")
}

func (r *BaseCatalogRepo[T]) get(ctx context.Context, entityID id.ID, suffix string) (T, error) {
	entity := r.newFn()

	q := r.BaseSelect().Where(squirrel.Eq{"id": entityID})
	if suffix != "" {
		q = q.Where(squirrel.Eq{"deletion_mark": false}).Suffix(suffix)
	} else {
		q = q.Limit(1)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.Querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return entity, fmt.Errorf("get %s: %w", r.entityName, err)
	}
	return entity, nil
}

// List retrieves entities with filtering and pagination.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	return r.ListWhere(ctx, filter, nil)
}

// ListWhere is List with extra conditions supplied by a specific repository.
func (r *BaseCatalogRepo[T]) ListWhere(ctx context.Context, filter domain.ListFilter, extra squirrel.Sqlizer) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Items:  []T{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.BaseSelect()
	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" && len(r.searchCols) > 0 {
		pattern := "%" + filter.Search + "%"
		or := make(squirrel.Or, 0, len(r.searchCols))
		for _, col := range r.searchCols {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}
	if extra != nil {
		q = q.Where(extra)
	}

	countSQL, countArgs, err := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.Querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "id")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return result, nil
}

// Delete sets the deletion mark. Rows are never physically removed.
func (r *BaseCatalogRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	q := r.Builder().
		Update(r.tableName).
		Set("deletion_mark", true).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"deletion_mark": false})
	q = r.scoped(q)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("delete %s: %w", r.tableName, err), r.entityName)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

// ListIDs returns the ids of all live rows in id order.
func (r *BaseCatalogRepo[T]) ListIDs(ctx context.Context) ([]id.ID, error) {
	q := r.Builder().
		Select("id").
		From(r.tableName).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("id")
	if r.scope != nil {
		q = q.Where(r.scope)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var ids []id.ID
	if err := pgxscan.Select(ctx, r.Querier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s ids: %w", r.tableName, err)
	}
	return ids, nil
}

func (r *BaseCatalogRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return r.defaultOrd, nil
	}

	allowed := make(map[string]struct{}, len(r.writeCols))
	for _, col := range r.writeCols {
		allowed[col] = struct{}{}
	}

	// Support "-field" for DESC.
	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if _, ok := allowed[field]; !ok || field == "" {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}
	return field + " " + direction, nil
}
