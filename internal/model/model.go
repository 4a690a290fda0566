package model

import "time"

// Availability is the stock state of a product
type Availability string

const (
	InStock    Availability = "in_stock"
	OutOfStock Availability = "out_of_stock"
	PreOrder   Availability = "pre_order"
	Unknown    Availability = "unknown"
)

// Crawl session states
const (
	SessionRunning   = "running"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
)

// Category is a persisted category row
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	URL         string    `db:"url" json:"url"`
	ParentID    *int64    `db:"parent_id" json:"parent_id,omitempty"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Brand is a persisted brand row
type Brand struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	URL         string    `db:"url" json:"url"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Product is a persisted product row
type Product struct {
	ID                 int64        `db:"id" json:"id"`
	Name               string       `db:"name" json:"name"`
	Slug               string       `db:"slug" json:"slug"`
	URL                string       `db:"url" json:"url"`
	Description        string       `db:"description" json:"description"`
	Price              *float64     `db:"price" json:"price,omitempty"`
	OriginalPrice      *float64     `db:"original_price" json:"original_price,omitempty"`
	DiscountPercentage *float64     `db:"discount_percentage" json:"discount_percentage,omitempty"`
	SKU                string       `db:"sku" json:"sku"`
	Availability       Availability `db:"availability" json:"availability"`
	Rating             *float64     `db:"rating" json:"rating,omitempty"`
	ReviewCount        int          `db:"review_count" json:"review_count"`
	ImageURL           string       `db:"image_url" json:"image_url"`
	Images             string       `db:"images" json:"images"`
	Ingredients        string       `db:"ingredients" json:"ingredients"`
	UsageInstructions  string       `db:"usage_instructions" json:"usage_instructions"`
	CategoryID         *int64       `db:"category_id" json:"category_id,omitempty"`
	BrandID            *int64       `db:"brand_id" json:"brand_id,omitempty"`
	IsFeatured         bool         `db:"is_featured" json:"is_featured"`
	IsBestseller       bool         `db:"is_bestseller" json:"is_bestseller"`
	IsNew              bool         `db:"is_new" json:"is_new"`
	IsSale             bool         `db:"is_sale" json:"is_sale"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}

// CrawlSession is one persisted orchestrator run
type CrawlSession struct {
	ID              int64      `db:"id" json:"id"`
	RunID           string     `db:"run_id" json:"run_id"`
	StartedAt       time.Time  `db:"started_at" json:"started_at"`
	FinishedAt      *time.Time `db:"finished_at" json:"finished_at,omitempty"`
	Status          string     `db:"status" json:"status"`
	CategoriesFound int        `db:"categories_found" json:"categories_found"`
	ProductsFound   int        `db:"products_found" json:"products_found"`
	ProductsCreated int        `db:"products_created" json:"products_created"`
	ProductsUpdated int        `db:"products_updated" json:"products_updated"`
	Errors          string     `db:"errors" json:"errors"`
}

// CategoryRecord is a normalized category ready to be upserted
type CategoryRecord struct {
	Name        string
	Slug        string
	URL         string
	Description string
	ParentSlug  string
}

// BrandRecord is a normalized brand ready to be upserted
type BrandRecord struct {
	Name        string
	Slug        string
	URL         string
	Description string
}

// ProductRecord is a normalized product ready to be upserted. Category and
// brand are references by slug or display name, resolved by the store.
type ProductRecord struct {
	Name               string
	Slug               string
	URL                string
	Description        string
	Price              *float64
	OriginalPrice      *float64
	DiscountPercentage *float64
	SKU                string
	Availability       Availability
	Rating             *float64
	ReviewCount        int
	ImageURL           string
	Images             string
	Ingredients        string
	UsageInstructions  string
	CategorySlug       string
	CategoryName       string
	BrandName          string
	IsFeatured         bool
	IsBestseller       bool
	IsNew              bool
	IsSale             bool
}

// DatabaseStats holds entity counts shown by the stats command and the export summary
type DatabaseStats struct {
	Categories          int `db:"categories" json:"categories"`
	Brands              int `db:"brands" json:"brands"`
	Products            int `db:"products" json:"products"`
	CrawlSessions       int `db:"crawl_sessions" json:"crawl_sessions"`
	ProductsWithImages  int `db:"products_with_images" json:"products_with_images"`
	ProductsWithPrices  int `db:"products_with_prices" json:"products_with_prices"`
	ProductsWithRatings int `db:"products_with_ratings" json:"products_with_ratings"`
}

// BulkResult tallies a bulk upsert
type BulkResult struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
