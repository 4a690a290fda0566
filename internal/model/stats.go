package model

// CrawlStats aggregates the counters of one orchestrator run or of one
// category's task within a run.
type CrawlStats struct {
	CategoriesFound     int          `json:"categories_found"`
	CategoriesProcessed int          `json:"categories_processed"`
	ProductsFound       int          `json:"products_found"`
	ProductsProcessed   int          `json:"products_processed"`
	ProductsCreated     int          `json:"products_created"`
	ProductsUpdated     int          `json:"products_updated"`
	Errors              int          `json:"errors"`
	DurationSeconds     float64      `json:"duration_seconds"`
	Export              *ExportStats `json:"export_stats,omitempty"`
}

// Add folds the product and error counters of a sub-result into s.
func (s *CrawlStats) Add(sub CrawlStats) {
	s.CategoriesProcessed += sub.CategoriesProcessed
	s.ProductsFound += sub.ProductsFound
	s.ProductsProcessed += sub.ProductsProcessed
	s.ProductsCreated += sub.ProductsCreated
	s.ProductsUpdated += sub.ProductsUpdated
	s.Errors += sub.Errors
}

// ExportStats summarizes one export pass
type ExportStats struct {
	CategoriesProcessed int      `json:"categories_processed"`
	FilesCreated        int      `json:"files_created"`
	ProductsExported    int      `json:"products_exported"`
	Files               []string `json:"files,omitempty"`
	SchemaFile          string   `json:"schema_file,omitempty"`
	SummaryFile         string   `json:"summary_file,omitempty"`
	Errors              []string `json:"errors,omitempty"`
}

// Add folds another export pass into s.
func (s *ExportStats) Add(other ExportStats) {
	s.CategoriesProcessed += other.CategoriesProcessed
	s.FilesCreated += other.FilesCreated
	s.ProductsExported += other.ProductsExported
	s.Files = append(s.Files, other.Files...)
	s.Errors = append(s.Errors, other.Errors...)
}
