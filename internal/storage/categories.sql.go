package storage

import (
	"context"
)

const getCategoryID = `
SELECT category_id FROM category WHERE name = ?
`

func (q *Queries) GetCategoryID(ctx context.Context, name string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getCategoryID, name)
	var categoryID int64
	err := row.Scan(&categoryID)
	return categoryID, err
}

const createCategory = `
INSERT INTO category (name) VALUES (?) RETURNING category_id
`

func (q *Queries) CreateCategory(ctx context.Context, name string) (int64, error) {
	row := q.db.QueryRowContext(ctx, createCategory, name)
	var categoryID int64
	err := row.Scan(&categoryID)
	return categoryID, err
}

const listCategories = `
SELECT category_id, name FROM category ORDER BY name
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.CategoryID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
