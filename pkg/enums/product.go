package enums

import "fmt"

// ProductCategory represents the catalog groupings used to filter products.
type ProductCategory string

const (
	ProductCategoryHardware  ProductCategory = "hardware"
	ProductCategorySoftware  ProductCategory = "software"
	ProductCategoryService   ProductCategory = "service"
	ProductCategoryPackaging ProductCategory = "packaging"
	ProductCategoryRawGoods  ProductCategory = "raw_goods"
	ProductCategoryOther     ProductCategory = "other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryHardware,
	ProductCategorySoftware,
	ProductCategoryService,
	ProductCategoryPackaging,
	ProductCategoryRawGoods,
	ProductCategoryOther,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
