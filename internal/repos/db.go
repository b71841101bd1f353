package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline catalog if DB is empty (categories/products/coupons)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Categories
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

-- Products (digital goods; packages bundle multiple content levels)
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  slug TEXT NOT NULL UNIQUE,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  title TEXT NOT NULL,
  description TEXT,
  product_type TEXT NOT NULL CHECK (product_type IN ('individual','package')),
  price NUMERIC NOT NULL CHECK (price >= 0),
  images_json TEXT,
  levels_json TEXT,
  content_md TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_title      ON products(LOWER(title));
CREATE INDEX IF NOT EXISTS idx_products_type       ON products(product_type);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Coupons
CREATE TABLE IF NOT EXISTS coupons(
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL CHECK (type IN ('fixed','percent')),
  value NUMERIC NOT NULL CHECK (value >= 0),
  active INTEGER NOT NULL DEFAULT 1,
  expires_at TEXT
);

-- Carts (session-keyed; linked to a user after login)
CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  session_id TEXT UNIQUE NOT NULL,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_carts_user ON carts(user_id);

CREATE TABLE IF NOT EXISTS cart_items(
  id TEXT PRIMARY KEY,
  cart_id    TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  variant_id TEXT NOT NULL DEFAULT '',
  qty INTEGER NOT NULL CHECK (qty >= 1 AND qty <= 10),
  price_at_add NUMERIC NOT NULL,
  created_at TEXT,
  updated_at TEXT,
  UNIQUE (cart_id, product_id, variant_id)
);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  session_id TEXT,
  coupon_code TEXT,
  subtotal NUMERIC NOT NULL DEFAULT 0,
  discount NUMERIC NOT NULL DEFAULT 0,
  tax NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending'
    CHECK (status IN ('pending','processing','completed','cancelled','refunded')),
  fingerprint TEXT NOT NULL DEFAULT '',
  stripe_session_id TEXT,
  stripe_payment_intent TEXT,
  billing_name TEXT,
  billing_email TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_user       ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_status     ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

-- Line items snapshot price at purchase time; historical orders keep their
-- prices when the catalog changes.
CREATE TABLE IF NOT EXISTS order_items(
  order_id  TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  variant_id TEXT NOT NULL DEFAULT '',
  qty INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  total_price NUMERIC NOT NULL,
  PRIMARY KEY (order_id, product_id, variant_id)
);

-- Licenses (revoked, never deleted)
CREATE TABLE IF NOT EXISTS licenses(
  id TEXT PRIMARY KEY,
  license_key TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL REFERENCES users(id),
  order_id TEXT NOT NULL REFERENCES orders(id),
  product_id TEXT NOT NULL REFERENCES products(id),
  status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','revoked')),
  issued_at TEXT DEFAULT CURRENT_TIMESTAMP,
  revoked_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_licenses_user ON licenses(user_id);

-- Content access grants per (user, product)
CREATE TABLE IF NOT EXISTS access_grants(
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  granted_at TEXT DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (user_id, product_id)
);

-- Notifications (status-mutated, never deleted)
CREATE TABLE IF NOT EXISTS notifications(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  kind TEXT NOT NULL,
  title TEXT NOT NULL,
  body TEXT,
  is_read INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read);

-- Piracy reports (status-mutated, never deleted)
CREATE TABLE IF NOT EXISTS piracy_reports(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id),
  url TEXT NOT NULL,
  reported_by TEXT,
  notes TEXT,
  status TEXT NOT NULL DEFAULT 'new'
    CHECK (status IN ('new','reviewing','takedown_sent','resolved','dismissed')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_piracy_status ON piracy_reports(status);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo categories/products/coupons")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO categories(id,name) VALUES
	  ('logging-courses','Logging & Observability Courses'),
	  ('writing-packages','Technical Writing Packages'),
	  ('templates','Templates & Checklists')`)

	tx.MustExec(`INSERT INTO products(id,slug,category_id,title,description,product_type,price,images_json,levels_json,content_md) VALUES
	  ('crs-structured-101','structured-logging-101','logging-courses','Structured Logging 101',
	   'Foundations of structured logging for production services.','individual',49.00,
	   '["products/crs-structured-101/cover.jpg"]',NULL,
	   '# Structured Logging 101' || char(10) || char(10) || 'Welcome to the course.'),
	  ('pkg-observability','observability-master-pack','logging-courses','Observability Master Pack',
	   'Three-level bundle: logs, metrics, traces.','package',199.00,
	   '["products/pkg-observability/cover.jpg"]',
	   '[{"level":1,"title":"Logs"},{"level":2,"title":"Metrics"},{"level":3,"title":"Traces"}]',
	   '# Observability Master Pack' || char(10) || char(10) || 'Bundle overview.'),
	  ('tpl-runbook','incident-runbook-template','templates','Incident Runbook Template',
	   'Fill-in-the-blanks incident runbook.','individual',19.00,
	   '["products/tpl-runbook/cover.jpg"]',NULL,
	   '# Incident Runbook' || char(10) || char(10) || 'Template body.')`)

	tx.MustExec(`INSERT INTO coupons(id,code,type,value,active) VALUES
	  ('cpn-welcome10','WELCOME10','percent',10,1),
	  ('cpn-launch25','LAUNCH25','fixed',25,1),
	  ('cpn-expired','OLDTIMES','percent',50,0)`)

	return tx.Commit()
}

// seedUsers ensures two USERs and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-alice", "alice@logbloga.test", "Alice", "USER", "Passw0rd!"),
		mk("u-bob", "bob@logbloga.test", "Bob", "USER", "Passw0rd!"),
		mk("u-admin", "admin@logbloga.test", "Admin", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
