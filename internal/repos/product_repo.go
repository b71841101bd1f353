package repos

import (
	"logbloga/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
  id, slug, category_id, title, COALESCE(description,'') AS description,
  product_type, price, COALESCE(images_json,'[]') AS images_json,
  COALESCE(levels_json,'') AS levels_json, COALESCE(content_md,'') AS content_md,
  active, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) ListByCategory(catID string, limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE category_id = ? AND active = 1
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?
	`, catID, limit, offset)
	return out, err
}

// ListAll returns every product, inactive ones included, for the admin pages.
func (r *ProductRepo) ListAll() ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  ORDER BY created_at DESC
	`)
	return out, err
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

func (r *ProductRepo) GetBySlug(slug string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE slug = ?`, slug)
	return p, err
}

func (r *ProductRepo) Search(q, catID, productType string, limit, offset int) ([]domain.Product, error) {
	where := `active = 1`
	args := []any{}
	if q != "" {
		where += ` AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if catID != "" {
		where += ` AND category_id = ?`
		args = append(args, catID)
	}
	if productType != "" {
		where += ` AND product_type = ?`
		args = append(args, productType)
	}

	query := `SELECT ` + productCols + ` FROM products WHERE ` + where + `
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var out []domain.Product
	err := r.db.Select(&out, query, args...)
	return out, err
}

func (r *ProductRepo) Create(p domain.Product) error {
	_, err := r.db.Exec(`
	  INSERT INTO products(id,slug,category_id,title,description,product_type,price,images_json,levels_json,content_md,active,created_at)
	  VALUES(?,?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, p.ID, p.Slug, p.CategoryID, p.Title, p.Description, p.ProductType, p.Price, p.ImagesJSON, p.LevelsJSON, p.ContentMD, p.Active)
	return err
}

func (r *ProductRepo) Update(p domain.Product) error {
	_, err := r.db.Exec(`
	  UPDATE products
	  SET slug=?, category_id=?, title=?, description=?, product_type=?, price=?,
	      images_json=?, levels_json=?, content_md=?, active=?, updated_at=CURRENT_TIMESTAMP
	  WHERE id=?
	`, p.Slug, p.CategoryID, p.Title, p.Description, p.ProductType, p.Price, p.ImagesJSON, p.LevelsJSON, p.ContentMD, p.Active, p.ID)
	return err
}

// Deactivate hides a product from the storefront without touching order history.
func (r *ProductRepo) Deactivate(id string) error {
	_, err := r.db.Exec(`UPDATE products SET active=0, updated_at=CURRENT_TIMESTAMP WHERE id=?`, id)
	return err
}
