package m_product

// Field name constants for the products table.
const (
	TableName = "products"

	ProductID            = "product_id"
	CatalogID            = "catalog_id"
	SKU                  = "sku"
	Name                 = "name"
	Category             = "category"
	Tags                 = "tags"
	PriceNumerator       = "price_numerator"
	PriceDenominator     = "price_denominator"
	CompareAtNumerator   = "compare_at_numerator"
	CompareAtDenominator = "compare_at_denominator"
	Status               = "status"
	Version              = "version"
	RepricedFor          = "repriced_for"
	CreatedAt            = "created_at"
	UpdatedAt            = "updated_at"
)

// Product status constants. Only active products are repriced.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)
