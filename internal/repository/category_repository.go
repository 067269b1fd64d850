package repository

import (
	"context"

	"go-event-ticketing/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoryRepository interface {
	ListActive(ctx context.Context) ([]*model.Category, error)
}

type CategoryRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &CategoryRepositoryImpl{
		pool: pool,
	}
}

func (r *CategoryRepositoryImpl) ListActive(ctx context.Context) ([]*model.Category, error) {
	query := `
		SELECT id, name, description, icon, color, is_active
		FROM categories
		WHERE is_active = TRUE
		ORDER BY name ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]*model.Category, 0)
	for rows.Next() {
		var category model.Category
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Description,
			&category.Icon,
			&category.Color,
			&category.IsActive,
		)
		if err != nil {
			return nil, err
		}
		categories = append(categories, &category)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}
