package cache

// Manager inspects and cleans the data mvnindex keeps on disk.
type Manager interface {
	Clean(options CleanOptions) (*CleanResult, error)
	GetInfo() (*Info, error)
}

// CleanOptions specifies what to clean. With no field set everything is cleaned.
type CleanOptions struct {
	All      bool
	Indices  bool
	Catalogs bool
}

// CleanResult contains information about what was cleaned.
type CleanResult struct {
	TotalFreed   int64
	IndexFreed   int64
	IndexCount   int
	CatalogFreed int64
}

// Info describes the on-disk data.
type Info struct {
	IndexDir     string
	CatalogDir   string
	TotalSize    int64
	IndexSize    int64
	IndexCount   int
	CatalogSize  int64
	CatalogFiles int
}
