package postgres

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/YelzhanWeb/prepboard/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB answers queries by matching a fragment of the SQL text.
type fakeDB struct {
	results map[string][][]any
	row     []any
	rowErr  error
	err     error
	args    [][]any
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (Rows, error) {
	f.args = append(f.args, args)
	if f.err != nil {
		return nil, f.err
	}
	for fragment, rows := range f.results {
		if strings.Contains(sql, fragment) {
			return &fakeRows{rows: rows, pos: -1}, nil
		}
	}
	return &fakeRows{pos: -1}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) Row {
	f.args = append(f.args, args)
	return fakeRow{values: f.row, err: f.rowErr}
}

func (f *fakeDB) Ping(context.Context) error { return f.err }
func (f *fakeDB) Close()                     {}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error { return assign(r.rows[r.pos], dest) }
func (r *fakeRows) Err() error             { return nil }
func (r *fakeRows) Close()                 {}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(values), len(dest))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(v))
	}
	return nil
}

func strPtr(s string) *string { return &s }

func TestOrderRepository_ListOrders(t *testing.T) {
	orderID := uuid.New()
	otherID := uuid.New()
	itemID := uuid.New()
	variantID := uuid.New()

	db := &fakeDB{results: map[string][][]any{
		"FROM pedidos": {
			{orderID, "P-001", "Lupita", "18:00", decimal.RequireFromString("450")},
			{otherID, "P-002", "Beto", "", decimal.Zero},
		},
		"FROM items_pedido": {
			{
				itemID, orderID, uuid.New(), "Pierna", "platos_fuertes",
				&variantID, strPtr("Adobada"), (*uuid.UUID)(nil), (*string)(nil),
				2, decimal.RequireFromString("150"), decimal.RequireFromString("300"),
				"sin picante", "preparando",
			},
			{
				uuid.New(), orderID, uuid.New(), "Sopa", "sopas",
				(*uuid.UUID)(nil), (*string)(nil), (*uuid.UUID)(nil), (*string)(nil),
				1, decimal.RequireFromString("150"), decimal.RequireFromString("150"),
				"", "servido",
			},
		},
	}}

	orders, err := NewOrderRepository(db).ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, "P-001", first.Number)
	assert.Equal(t, "18:00", first.DeliveryTime)
	require.Len(t, first.Items, 2)

	pierna := first.Items[0]
	assert.Equal(t, itemID, pierna.ID)
	assert.Equal(t, domain.CategoryPlatosFuertes, pierna.Category)
	assert.Equal(t, domain.ItemStatusPreparing, pierna.Status)
	require.NotNil(t, pierna.VariantName)
	assert.Equal(t, "Adobada", *pierna.VariantName)
	assert.Nil(t, pierna.SauceName)
	assert.True(t, pierna.Subtotal.Equal(decimal.RequireFromString("300")))

	assert.Equal(t, domain.MenuCategory("sopas"), first.Items[1].Category, "unknown categories pass through")
	assert.Equal(t, domain.ItemStatus("servido"), first.Items[1].Status, "unknown statuses pass through")
	assert.Empty(t, orders[1].Items)
}

func TestOrderRepository_ListOrders_StoreDown(t *testing.T) {
	db := &fakeDB{err: errors.New("connection refused")}

	_, err := NewOrderRepository(db).ListOrders(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestOrderRepository_SetItemStatus(t *testing.T) {
	itemID := uuid.New()
	db := &fakeDB{row: []any{
		itemID, uuid.New(), uuid.New(), (*uuid.UUID)(nil), (*uuid.UUID)(nil),
		1, decimal.RequireFromString("80"), decimal.RequireFromString("80"), "", "listo",
	}}

	item, err := NewOrderRepository(db).SetItemStatus(context.Background(), itemID, domain.ItemStatusReady)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusReady, item.Status)
	assert.Equal(t, []any{"listo", itemID}, db.args[0])
}

func TestOrderRepository_SetItemStatus_Errors(t *testing.T) {
	repo := NewOrderRepository(&fakeDB{rowErr: pgx.ErrNoRows})
	_, err := repo.SetItemStatus(context.Background(), uuid.New(), domain.ItemStatusReady)
	assert.ErrorIs(t, err, domain.ErrStatusTransitionConflict)

	repo = NewOrderRepository(&fakeDB{rowErr: errors.New("timeout")})
	_, err = repo.SetItemStatus(context.Background(), uuid.New(), domain.ItemStatusReady)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, domain.ErrStatusTransitionConflict)
}

func TestMenuRepository_ListMenu(t *testing.T) {
	itemID := uuid.New()
	price := decimal.RequireFromString("95")

	db := &fakeDB{results: map[string][][]any{
		"FROM items_menu": {
			{itemID, "Tamales", "entradas", "pz", (*decimal.Decimal)(nil), strPtr("sabor"), true, time.Date(2025, time.December, 1, 9, 0, 0, 0, time.UTC)},
		},
		"FROM variantes_menu": {
			{uuid.New(), itemID, "Rajas", &price, (*string)(nil)},
			{uuid.New(), uuid.New(), "Huérfana", &price, (*string)(nil)},
		},
	}}

	menu, err := NewMenuRepository(db).ListMenu(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, domain.CategoryEntradas, menu[0].Category)
	require.Len(t, menu[0].Variants, 1)
	assert.Equal(t, "Rajas", menu[0].Variants[0].Name)
	assert.Equal(t, true, db.args[0][0])
}
