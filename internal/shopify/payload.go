package shopify

import (
	"github.com/souta-ok/storesync/internal/domain"
)

// ProductPayload is the admin API create-product request body. Only the
// transferable catalog fields are sent; source-store IDs are dropped so the
// destination always mints its own.
type ProductPayload struct {
	Product ProductBody `json:"product"`
}

type ProductBody struct {
	Title       string           `json:"title"`
	BodyHTML    string           `json:"body_html"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	Tags        string           `json:"tags"`
	Variants    []VariantPayload `json:"variants"`
	Images      []ImagePayload   `json:"images"`
}

type VariantPayload struct {
	Price             string `json:"price"`
	SKU               string `json:"sku"`
	InventoryQuantity int    `json:"inventory_quantity"`
	Title             string `json:"title"`
}

type ImagePayload struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// NewProductPayload reshapes a catalog product into the destination API's
// create request. Variant and image order is preserved; absent sequences
// become empty, never null.
func NewProductPayload(p domain.Product) ProductPayload {
	variants := make([]VariantPayload, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, VariantPayload{
			Price:             v.Price,
			SKU:               v.SKU,
			InventoryQuantity: v.InventoryQuantity,
			Title:             v.Title,
		})
	}

	images := make([]ImagePayload, 0, len(p.Images))
	for _, img := range p.Images {
		alt := img.Alt
		if alt == "" {
			alt = p.Title
		}
		images = append(images, ImagePayload{Src: img.Src, Alt: alt})
	}

	return ProductPayload{
		Product: ProductBody{
			Title:       p.Title,
			BodyHTML:    p.Description,
			Vendor:      p.Vendor,
			ProductType: p.ProductType,
			Tags:        p.Tags,
			Variants:    variants,
			Images:      images,
		},
	}
}
