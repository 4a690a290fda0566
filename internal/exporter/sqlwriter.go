package exporter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sjsage522/bestmuadata/internal/model"
	"sjsage522/bestmuadata/internal/store"
)

var (
	categoryFields = []string{"id", "name", "slug", "url", "parent_id", "description", "created_at", "updated_at"}
	brandFields    = []string{"id", "name", "slug", "url", "description", "created_at", "updated_at"}
	productFields  = []string{
		"id", "name", "slug", "url", "description", "price", "original_price",
		"discount_percentage", "sku", "availability", "rating", "review_count",
		"image_url", "images", "ingredients", "usage_instructions", "category_id",
		"brand_id", "is_featured", "is_bestseller", "is_new", "is_sale",
		"created_at", "updated_at",
	}
)

// dumpWriter builds a SQLite dump in memory
type dumpWriter struct {
	bytes.Buffer
}

func (w *dumpWriter) header(cat model.Category, total int, at time.Time) {
	w.WriteString("-- bestmua.vn Product Data Export\n")
	fmt.Fprintf(w, "-- Category: %s (%s)\n", commentSafe(cat.Name), commentSafe(cat.Slug))
	fmt.Fprintf(w, "-- Exported at: %s\n", at.Format(time.RFC3339))
	fmt.Fprintf(w, "-- Total products: %d\n\n", total)
}

func (w *dumpWriter) schema() {
	w.WriteString("-- Create tables if they don't exist\n")
	writeStatements(w, store.EntityTables(store.SQLite))
	writeStatements(w, store.EntityIndexes())
	w.WriteString("\n")
}

func (w *dumpWriter) categories(cats []model.Category) {
	w.WriteString("-- Insert category data\n")
	for _, c := range cats {
		w.insert("categories", categoryFields, []string{
			intValue(c.ID),
			quote(c.Name),
			quote(c.Slug),
			quote(c.URL),
			idValue(c.ParentID),
			quote(c.Description),
			timeValue(c.CreatedAt),
			timeValue(c.UpdatedAt),
		})
	}
	w.WriteString("\n")
}

func (w *dumpWriter) brands(brands []model.Brand) {
	w.WriteString("-- Insert brand data\n")
	for _, b := range brands {
		w.insert("brands", brandFields, []string{
			intValue(b.ID),
			quote(b.Name),
			quote(b.Slug),
			quote(b.URL),
			quote(b.Description),
			timeValue(b.CreatedAt),
			timeValue(b.UpdatedAt),
		})
	}
	w.WriteString("\n")
}

func (w *dumpWriter) products(products []model.Product) {
	w.WriteString("-- Insert product data\n")
	for _, p := range products {
		w.insert("products", productFields, []string{
			intValue(p.ID),
			quote(p.Name),
			quote(p.Slug),
			quote(p.URL),
			quote(p.Description),
			floatValue(p.Price),
			floatValue(p.OriginalPrice),
			floatValue(p.DiscountPercentage),
			quote(p.SKU),
			quote(string(p.Availability)),
			floatValue(p.Rating),
			strconv.Itoa(p.ReviewCount),
			quote(p.ImageURL),
			quote(p.Images),
			quote(p.Ingredients),
			quote(p.UsageInstructions),
			idValue(p.CategoryID),
			idValue(p.BrandID),
			boolValue(p.IsFeatured),
			boolValue(p.IsBestseller),
			boolValue(p.IsNew),
			boolValue(p.IsSale),
			timeValue(p.CreatedAt),
			timeValue(p.UpdatedAt),
		})
	}
	w.WriteString("\n")
}

func (w *dumpWriter) footer() {
	w.WriteString("-- End of export\n")
}

func (w *dumpWriter) insert(table string, fields, values []string) {
	fmt.Fprintf(w, "INSERT OR REPLACE INTO %s (%s) VALUES (\n    ", table, strings.Join(fields, ", "))
	w.WriteString(strings.Join(values, ",\n    "))
	w.WriteString("\n);\n")
}

type stringWriter interface {
	WriteString(s string) (int, error)
}

func writeStatements(w stringWriter, stmts []string) {
	for _, stmt := range stmts {
		w.WriteString(stmt)
		w.WriteString(";\n")
	}
}

// quote renders s as a SQL string literal
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// commentSafe keeps a value on its comment line
func commentSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func intValue(v int64) string {
	return strconv.FormatInt(v, 10)
}

func idValue(v *int64) string {
	if v == nil {
		return "NULL"
	}
	return strconv.FormatInt(*v, 10)
}

func floatValue(v *float64) string {
	if v == nil {
		return "NULL"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func boolValue(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// sqliteTime matches the text form of CURRENT_TIMESTAMP
const sqliteTime = "2006-01-02 15:04:05"

func timeValue(t time.Time) string {
	if t.IsZero() {
		return "CURRENT_TIMESTAMP"
	}
	return quote(t.UTC().Format(sqliteTime))
}
