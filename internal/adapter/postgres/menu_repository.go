package postgres

import (
	"context"

	"github.com/YelzhanWeb/prepboard/internal/domain"
	"github.com/YelzhanWeb/prepboard/internal/interfaces"
	"github.com/google/uuid"
)

type menuRepository struct {
	db DB
}

func NewMenuRepository(db DB) interfaces.MenuCatalog {
	return &menuRepository{db: db}
}

func (r *menuRepository) ListMenu(ctx context.Context, onlyActive bool) ([]*domain.MenuItem, error) {
	query := `
		SELECT id, nombre, categoria, unidad_medida, precio_base, tipo_variante, activo, fecha_creacion
		FROM items_menu
		WHERE activo OR NOT $1
		ORDER BY categoria, nombre
	`

	rows, err := r.db.Query(ctx, query, onlyActive)
	if err != nil {
		return nil, storeError("failed to list menu", err)
	}
	defer rows.Close()

	var items []*domain.MenuItem
	byID := make(map[uuid.UUID]*domain.MenuItem)
	for rows.Next() {
		var (
			item     domain.MenuItem
			category string
		)
		if err := rows.Scan(
			&item.ID, &item.Name, &category, &item.Unit, &item.BasePrice,
			&item.VariantKind, &item.Active, &item.CreatedAt,
		); err != nil {
			return nil, storeError("failed to scan menu item", err)
		}
		item.Category = domain.MenuCategory(category)
		items = append(items, &item)
		byID[item.ID] = &item
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to read menu", err)
	}

	variantRows, err := r.db.Query(ctx, `
		SELECT id, item_menu_id, nombre, precio, descripcion
		FROM variantes_menu
		ORDER BY nombre
	`)
	if err != nil {
		return nil, storeError("failed to list variants", err)
	}
	defer variantRows.Close()

	for variantRows.Next() {
		var v domain.MenuVariant
		if err := variantRows.Scan(&v.ID, &v.MenuItemID, &v.Name, &v.Price, &v.Description); err != nil {
			return nil, storeError("failed to scan variant", err)
		}
		if item, ok := byID[v.MenuItemID]; ok {
			item.Variants = append(item.Variants, v)
		}
	}
	if err := variantRows.Err(); err != nil {
		return nil, storeError("failed to read variants", err)
	}

	return items, nil
}
