package scan

// Config holds configuration for scan execution.
type Config struct {
	// PageSize is the number of records fetched per source page.
	PageSize int `mapstructure:"page_size" default:"100"`
	// ResolutionWorkers bounds concurrent resolution writes per bulk request.
	ResolutionWorkers int `mapstructure:"resolution_workers" default:"4"`
}
