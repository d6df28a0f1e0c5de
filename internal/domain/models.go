package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User represents an account that owns store groups
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Provider     string // "local", "google", etc.
	ProviderID   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StoreRef identifies one storefront. AdminToken is required for any write or
// authenticated read and is absent for public scraping.
type StoreRef struct {
	Domain     string `json:"domain"`
	AdminToken string `json:"adminToken"`
}

// Group is the unit of multi-store management: one parent store whose catalog
// is mirrored into zero or more child stores.
type Group struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	ParentStore StoreRef
	ChildStores []StoreRef
	SyncType    SyncType
	IsSyncing   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Variant is one purchasable option of a product. Price stays a string so
// currency values never round-trip through floats.
type Variant struct {
	ID                int64  `json:"id,omitempty"`
	Title             string `json:"title"`
	Price             string `json:"price"`
	SKU               string `json:"sku"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

// Image is one product image
type Image struct {
	ID  int64  `json:"id,omitempty"`
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Product is a catalog entry as exposed by a storefront. IDs are scoped to the
// source store; re-uploading always creates a new product on the destination.
type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Handle      string    `json:"handle,omitempty"`
	Description string    `json:"description"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Tags        string    `json:"tags"`
	Variants    []Variant `json:"variants"`
	Images      []Image   `json:"images"`
	UpdatedAt   string    `json:"updated_at,omitempty"`
}

// UploadOutcome is the result of one (store, product) upload attempt
type UploadOutcome struct {
	Store     string          `json:"store"`
	ProductID int64           `json:"productId"`
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// DispatchResult aggregates all pair outcomes of one fan-out invocation.
// Results and Errors are disjoint partitions; Uploaded+Failed always equals
// the number of attempted pairs.
type DispatchResult struct {
	Uploaded int             `json:"uploaded"`
	Failed   int             `json:"failed"`
	Results  []UploadOutcome `json:"results"`
	Errors   []UploadOutcome `json:"errors"`
}
