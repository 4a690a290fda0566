package store

// SQLite DDL for the entity tables, in dependency order
var sqliteEntityTables = []string{
	`CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name VARCHAR(200) NOT NULL,
    slug VARCHAR(200) NOT NULL UNIQUE,
    url VARCHAR(500) NOT NULL DEFAULT '',
    parent_id INTEGER,
    description TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(parent_id) REFERENCES categories (id)
)`,
	`CREATE TABLE IF NOT EXISTS brands (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name VARCHAR(200) NOT NULL UNIQUE,
    slug VARCHAR(200) NOT NULL UNIQUE,
    url VARCHAR(500) NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS products (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name VARCHAR(500) NOT NULL,
    slug VARCHAR(500) NOT NULL UNIQUE,
    url VARCHAR(1000) NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    price REAL,
    original_price REAL,
    discount_percentage REAL,
    sku VARCHAR(100) NOT NULL DEFAULT '',
    availability VARCHAR(50) NOT NULL DEFAULT 'unknown',
    rating REAL,
    review_count INTEGER NOT NULL DEFAULT 0,
    image_url VARCHAR(1000) NOT NULL DEFAULT '',
    images TEXT NOT NULL DEFAULT '',
    ingredients TEXT NOT NULL DEFAULT '',
    usage_instructions TEXT NOT NULL DEFAULT '',
    category_id INTEGER,
    brand_id INTEGER,
    is_featured BOOLEAN NOT NULL DEFAULT 0,
    is_bestseller BOOLEAN NOT NULL DEFAULT 0,
    is_new BOOLEAN NOT NULL DEFAULT 0,
    is_sale BOOLEAN NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(category_id) REFERENCES categories (id),
    FOREIGN KEY(brand_id) REFERENCES brands (id)
)`,
}

const sqliteSessionTable = `CREATE TABLE IF NOT EXISTS crawl_sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id VARCHAR(64) NOT NULL DEFAULT '',
    started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    finished_at DATETIME,
    status VARCHAR(50) NOT NULL DEFAULT 'running',
    categories_found INTEGER NOT NULL DEFAULT 0,
    products_found INTEGER NOT NULL DEFAULT 0,
    products_created INTEGER NOT NULL DEFAULT 0,
    products_updated INTEGER NOT NULL DEFAULT 0,
    errors TEXT NOT NULL DEFAULT ''
)`

var postgresEntityTables = []string{
	`CREATE TABLE IF NOT EXISTS categories (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    slug VARCHAR(200) NOT NULL UNIQUE,
    url VARCHAR(500) NOT NULL DEFAULT '',
    parent_id BIGINT REFERENCES categories (id),
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS brands (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(200) NOT NULL UNIQUE,
    slug VARCHAR(200) NOT NULL UNIQUE,
    url VARCHAR(500) NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS products (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(500) NOT NULL,
    slug VARCHAR(500) NOT NULL UNIQUE,
    url VARCHAR(1000) NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    price DOUBLE PRECISION,
    original_price DOUBLE PRECISION,
    discount_percentage DOUBLE PRECISION,
    sku VARCHAR(100) NOT NULL DEFAULT '',
    availability VARCHAR(50) NOT NULL DEFAULT 'unknown',
    rating DOUBLE PRECISION,
    review_count INTEGER NOT NULL DEFAULT 0,
    image_url VARCHAR(1000) NOT NULL DEFAULT '',
    images TEXT NOT NULL DEFAULT '',
    ingredients TEXT NOT NULL DEFAULT '',
    usage_instructions TEXT NOT NULL DEFAULT '',
    category_id BIGINT REFERENCES categories (id),
    brand_id BIGINT REFERENCES brands (id),
    is_featured BOOLEAN NOT NULL DEFAULT FALSE,
    is_bestseller BOOLEAN NOT NULL DEFAULT FALSE,
    is_new BOOLEAN NOT NULL DEFAULT FALSE,
    is_sale BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
}

const postgresSessionTable = `CREATE TABLE IF NOT EXISTS crawl_sessions (
    id BIGSERIAL PRIMARY KEY,
    run_id VARCHAR(64) NOT NULL DEFAULT '',
    started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    finished_at TIMESTAMPTZ,
    status VARCHAR(50) NOT NULL DEFAULT 'running',
    categories_found INTEGER NOT NULL DEFAULT 0,
    products_found INTEGER NOT NULL DEFAULT 0,
    products_created INTEGER NOT NULL DEFAULT 0,
    products_updated INTEGER NOT NULL DEFAULT 0,
    errors TEXT NOT NULL DEFAULT ''
)`

// Index DDL shared by both dialects
var entityIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_categories_slug ON categories (slug)`,
	`CREATE INDEX IF NOT EXISTS idx_categories_parent_id ON categories (parent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_brands_slug ON brands (slug)`,
	`CREATE INDEX IF NOT EXISTS idx_products_slug ON products (slug)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category_id ON products (category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_brand_id ON products (brand_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_price ON products (price)`,
	`CREATE INDEX IF NOT EXISTS idx_products_rating ON products (rating)`,
	`CREATE INDEX IF NOT EXISTS idx_products_availability ON products (availability)`,
	`CREATE INDEX IF NOT EXISTS idx_products_flags ON products (is_featured, is_bestseller, is_new, is_sale)`,
}

const sessionIndex = `CREATE INDEX IF NOT EXISTS idx_crawl_sessions_started_at ON crawl_sessions (started_at)`

// EntityTables returns the CREATE TABLE statements for categories, brands
// and products in dependency order.
func EntityTables(d Dialect) []string {
	if d == Postgres {
		return append([]string(nil), postgresEntityTables...)
	}
	return append([]string(nil), sqliteEntityTables...)
}

// EntityIndexes returns the index statements for the entity tables
func EntityIndexes() []string {
	return append([]string(nil), entityIndexes...)
}

// SchemaStatements returns the full schema for d, tables before indexes
func SchemaStatements(d Dialect) []string {
	stmts := EntityTables(d)
	if d == Postgres {
		stmts = append(stmts, postgresSessionTable)
	} else {
		stmts = append(stmts, sqliteSessionTable)
	}
	stmts = append(stmts, entityIndexes...)
	return append(stmts, sessionIndex)
}
