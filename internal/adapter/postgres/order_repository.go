package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/YelzhanWeb/prepboard/internal/domain"
	"github.com/YelzhanWeb/prepboard/internal/interfaces"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderStore {
	return &orderRepository{db: db}
}

const listOrdersQuery = `
	SELECT id, numero_pedido, cliente,
	       COALESCE(to_char(horario_entrega, 'HH24:MI'), ''), COALESCE(total, 0)
	FROM pedidos
	ORDER BY horario_entrega, numero_pedido
`

// Variant and sauce both point at variantes_menu.
const listItemsQuery = `
	SELECT i.id, i.pedido_id, i.item_menu_id, m.nombre, m.categoria,
	       i.variante_id, v.nombre, i.salsa_id, s.nombre,
	       i.cantidad, COALESCE(i.precio_unitario, 0), COALESCE(i.subtotal, 0),
	       COALESCE(i.notas, ''), COALESCE(i.estado, 'pendiente')
	FROM items_pedido i
	JOIN items_menu m ON m.id = i.item_menu_id
	LEFT JOIN variantes_menu v ON v.id = i.variante_id
	LEFT JOIN variantes_menu s ON s.id = i.salsa_id
	ORDER BY i.fecha_creacion, i.id
`

func (r *orderRepository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, listOrdersQuery)
	if err != nil {
		return nil, storeError("failed to query orders", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	byID := make(map[uuid.UUID]*domain.Order)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.Number, &o.CustomerName, &o.DeliveryTime, &o.Total); err != nil {
			return nil, storeError("failed to scan order", err)
		}
		orders = append(orders, &o)
		byID[o.ID] = &o
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to read orders", err)
	}

	itemRows, err := r.db.Query(ctx, listItemsQuery)
	if err != nil {
		return nil, storeError("failed to query order items", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			item     domain.OrderItem
			category string
			status   string
		)
		if err := itemRows.Scan(
			&item.ID, &item.OrderID, &item.MenuItemID, &item.MenuItemName, &category,
			&item.VariantID, &item.VariantName, &item.SauceID, &item.SauceName,
			&item.Quantity, &item.UnitPrice, &item.Subtotal,
			&item.Notes, &status,
		); err != nil {
			return nil, storeError("failed to scan order item", err)
		}

		// Unknown categories and statuses are kept as-is; the projection
		// skips those items.
		item.Category = domain.MenuCategory(category)
		item.Status = domain.ItemStatus(status)

		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, storeError("failed to read order items", err)
	}

	return orders, nil
}

func (r *orderRepository) SetItemStatus(ctx context.Context, itemID uuid.UUID, status domain.ItemStatus) (*domain.OrderItem, error) {
	query := `
		UPDATE items_pedido
		SET estado = $1
		WHERE id = $2
		RETURNING id, pedido_id, item_menu_id, variante_id, salsa_id,
		          cantidad, COALESCE(precio_unitario, 0), COALESCE(subtotal, 0), COALESCE(notas, ''), estado
	`

	var (
		item  domain.OrderItem
		saved string
	)
	err := r.db.QueryRow(ctx, query, string(status), itemID).Scan(
		&item.ID, &item.OrderID, &item.MenuItemID, &item.VariantID, &item.SauceID,
		&item.Quantity, &item.UnitPrice, &item.Subtotal, &item.Notes, &saved,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: item %s no longer exists", domain.ErrStatusTransitionConflict, itemID)
	}
	if err != nil {
		return nil, storeError("failed to update item status", err)
	}

	if item.Status, err = domain.ParseItemStatus(saved); err != nil {
		return nil, storeError(fmt.Sprintf("order item %s", item.ID), err)
	}
	return &item, nil
}

func storeError(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, domain.ErrStoreUnavailable, err)
}
