package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/schemahub/schemahub/internal/model"
)

// hierarchyRepository implements HierarchyRepository. Products, domains and
// contexts live here; schemas and schema versions are in schema_repository.go.
type hierarchyRepository struct {
	db DB
}

// NewHierarchyRepository creates a new registry hierarchy repository.
func NewHierarchyRepository(db DB) HierarchyRepository {
	return &hierarchyRepository{db: db}
}

func notFound(err error, kind string, id uuid.UUID) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	return nil
}

// CreateProduct creates a new product.
func (r *hierarchyRepository) CreateProduct(ctx context.Context, product model.Product) (model.Product, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING created_at, updated_at`,
		product.ID, product.Name, product.Description, product.CreatedAt,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return model.Product{}, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// GetProduct retrieves a product by ID.
func (r *hierarchyRepository) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	var product model.Product
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM products WHERE id = $1`,
		id,
	).Scan(&product.ID, &product.Name, &product.Description, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if nf := notFound(err, "product", id); nf != nil {
			return model.Product{}, nf
		}
		return model.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// ListProducts retrieves all products, newest first.
func (r *hierarchyRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var product model.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product rows: %w", err)
	}
	return products, nil
}

// UpdateProduct updates a product's name and description.
func (r *hierarchyRepository) UpdateProduct(ctx context.Context, product model.Product) (model.Product, error) {
	err := r.db.QueryRow(ctx, `
		UPDATE products SET name = $2, description = $3, updated_at = $4
		WHERE id = $1
		RETURNING created_at, updated_at`,
		product.ID, product.Name, product.Description, product.UpdatedAt,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if nf := notFound(err, "product", product.ID); nf != nil {
			return model.Product{}, nf
		}
		return model.Product{}, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// DeleteProduct deletes a product and, via cascade, everything below it.
func (r *hierarchyRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// CreateDomain creates a new domain under a product.
func (r *hierarchyRepository) CreateDomain(ctx context.Context, domain model.Domain) (model.Domain, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO domains (id, product_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING created_at, updated_at`,
		domain.ID, domain.ProductID, domain.Name, domain.Description, domain.CreatedAt,
	).Scan(&domain.CreatedAt, &domain.UpdatedAt)
	if err != nil {
		return model.Domain{}, fmt.Errorf("failed to create domain: %w", err)
	}
	return domain, nil
}

// GetDomain retrieves a domain by ID.
func (r *hierarchyRepository) GetDomain(ctx context.Context, id uuid.UUID) (model.Domain, error) {
	var domain model.Domain
	err := r.db.QueryRow(ctx, `
		SELECT id, product_id, name, description, created_at, updated_at
		FROM domains WHERE id = $1`,
		id,
	).Scan(&domain.ID, &domain.ProductID, &domain.Name, &domain.Description, &domain.CreatedAt, &domain.UpdatedAt)
	if err != nil {
		if nf := notFound(err, "domain", id); nf != nil {
			return model.Domain{}, nf
		}
		return model.Domain{}, fmt.Errorf("failed to get domain: %w", err)
	}
	return domain, nil
}

// ListDomains retrieves the domains under a product, newest first.
func (r *hierarchyRepository) ListDomains(ctx context.Context, productID uuid.UUID) ([]model.Domain, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, name, description, created_at, updated_at
		FROM domains WHERE product_id = $1 ORDER BY created_at DESC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	domains := []model.Domain{}
	for rows.Next() {
		var domain model.Domain
		if err := rows.Scan(&domain.ID, &domain.ProductID, &domain.Name, &domain.Description, &domain.CreatedAt, &domain.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, domain)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read domain rows: %w", err)
	}
	return domains, nil
}

// UpdateDomain updates a domain's name and description.
func (r *hierarchyRepository) UpdateDomain(ctx context.Context, domain model.Domain) (model.Domain, error) {
	err := r.db.QueryRow(ctx, `
		UPDATE domains SET name = $2, description = $3, updated_at = $4
		WHERE id = $1
		RETURNING product_id, created_at, updated_at`,
		domain.ID, domain.Name, domain.Description, domain.UpdatedAt,
	).Scan(&domain.ProductID, &domain.CreatedAt, &domain.UpdatedAt)
	if err != nil {
		if nf := notFound(err, "domain", domain.ID); nf != nil {
			return model.Domain{}, nf
		}
		return model.Domain{}, fmt.Errorf("failed to update domain: %w", err)
	}
	return domain, nil
}

// DeleteDomain deletes a domain.
func (r *hierarchyRepository) DeleteDomain(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM domains WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("domain %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// CreateContext creates a new context under a domain.
func (r *hierarchyRepository) CreateContext(ctx context.Context, bctx model.Context) (model.Context, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO contexts (id, domain_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING created_at, updated_at`,
		bctx.ID, bctx.DomainID, bctx.Name, bctx.Description, bctx.CreatedAt,
	).Scan(&bctx.CreatedAt, &bctx.UpdatedAt)
	if err != nil {
		return model.Context{}, fmt.Errorf("failed to create context: %w", err)
	}
	return bctx, nil
}

// GetContext retrieves a context by ID.
func (r *hierarchyRepository) GetContext(ctx context.Context, id uuid.UUID) (model.Context, error) {
	var bctx model.Context
	err := r.db.QueryRow(ctx, `
		SELECT id, domain_id, name, description, created_at, updated_at
		FROM contexts WHERE id = $1`,
		id,
	).Scan(&bctx.ID, &bctx.DomainID, &bctx.Name, &bctx.Description, &bctx.CreatedAt, &bctx.UpdatedAt)
	if err != nil {
		if nf := notFound(err, "context", id); nf != nil {
			return model.Context{}, nf
		}
		return model.Context{}, fmt.Errorf("failed to get context: %w", err)
	}
	return bctx, nil
}

// ListContexts retrieves the contexts under a domain, newest first.
func (r *hierarchyRepository) ListContexts(ctx context.Context, domainID uuid.UUID) ([]model.Context, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, domain_id, name, description, created_at, updated_at
		FROM contexts WHERE domain_id = $1 ORDER BY created_at DESC`,
		domainID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contexts: %w", err)
	}
	defer rows.Close()

	contexts := []model.Context{}
	for rows.Next() {
		var bctx model.Context
		if err := rows.Scan(&bctx.ID, &bctx.DomainID, &bctx.Name, &bctx.Description, &bctx.CreatedAt, &bctx.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan context: %w", err)
		}
		contexts = append(contexts, bctx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read context rows: %w", err)
	}
	return contexts, nil
}

// UpdateContext updates a context's name and description.
func (r *hierarchyRepository) UpdateContext(ctx context.Context, bctx model.Context) (model.Context, error) {
	err := r.db.QueryRow(ctx, `
		UPDATE contexts SET name = $2, description = $3, updated_at = $4
		WHERE id = $1
		RETURNING domain_id, created_at, updated_at`,
		bctx.ID, bctx.Name, bctx.Description, bctx.UpdatedAt,
	).Scan(&bctx.DomainID, &bctx.CreatedAt, &bctx.UpdatedAt)
	if err != nil {
		if nf := notFound(err, "context", bctx.ID); nf != nil {
			return model.Context{}, nf
		}
		return model.Context{}, fmt.Errorf("failed to update context: %w", err)
	}
	return bctx, nil
}

// DeleteContext deletes a context.
func (r *hierarchyRepository) DeleteContext(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM contexts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete context: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("context %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// ParentProductOf returns the product id owning a domain.
func (r *hierarchyRepository) ParentProductOf(ctx context.Context, domainID uuid.UUID) (uuid.UUID, error) {
	var productID uuid.UUID
	err := r.db.QueryRow(ctx, "SELECT product_id FROM domains WHERE id = $1", domainID).Scan(&productID)
	if err != nil {
		if nf := notFound(err, "domain", domainID); nf != nil {
			return uuid.Nil, nf
		}
		return uuid.Nil, fmt.Errorf("failed to resolve parent product: %w", err)
	}
	return productID, nil
}

// ParentDomainOf returns the domain id owning a context.
func (r *hierarchyRepository) ParentDomainOf(ctx context.Context, contextID uuid.UUID) (uuid.UUID, error) {
	var domainID uuid.UUID
	err := r.db.QueryRow(ctx, "SELECT domain_id FROM contexts WHERE id = $1", contextID).Scan(&domainID)
	if err != nil {
		if nf := notFound(err, "context", contextID); nf != nil {
			return uuid.Nil, nf
		}
		return uuid.Nil, fmt.Errorf("failed to resolve parent domain: %w", err)
	}
	return domainID, nil
}

// ParentContextOf returns the context id owning a schema.
func (r *hierarchyRepository) ParentContextOf(ctx context.Context, schemaID uuid.UUID) (uuid.UUID, error) {
	var contextID uuid.UUID
	err := r.db.QueryRow(ctx, "SELECT context_id FROM schemas WHERE id = $1", schemaID).Scan(&contextID)
	if err != nil {
		if nf := notFound(err, "schema", schemaID); nf != nil {
			return uuid.Nil, nf
		}
		return uuid.Nil, fmt.Errorf("failed to resolve parent context: %w", err)
	}
	return contextID, nil
}

// ParentSchemaOf returns the schema id owning a schema version.
func (r *hierarchyRepository) ParentSchemaOf(ctx context.Context, versionID uuid.UUID) (uuid.UUID, error) {
	var schemaID uuid.UUID
	err := r.db.QueryRow(ctx, "SELECT schema_id FROM schema_versions WHERE id = $1", versionID).Scan(&schemaID)
	if err != nil {
		if nf := notFound(err, "schema version", versionID); nf != nil {
			return uuid.Nil, nf
		}
		return uuid.Nil, fmt.Errorf("failed to resolve parent schema: %w", err)
	}
	return schemaID, nil
}
