package models

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"time"
)

// Product sources. The two identity spaces are disjoint: a plan listed by the
// first-party catalog never appears under the marketplace and vice versa.
const (
	SourceCatalog     = "catalog"
	SourceMarketplace = "marketplace"
)

// Product is the normalized sellable house plan. Raw per-source payloads are
// mapped into this shape at the adapter boundary and never travel further.
type Product struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Price        int64  `json:"price"`
	SalePrice    int64  `json:"sale_price,omitempty"`
	Image        string `json:"image,omitempty"`
	PlanFile     string `json:"plan_file,omitempty"`
	PlotSize     string `json:"plot_size,omitempty"`
	PlotArea     string `json:"plot_area,omitempty"`
	Direction    string `json:"direction,omitempty"`
	Floors       int    `json:"floors,omitempty"`
	PropertyType string `json:"property_type,omitempty"`
}

// EffectivePrice returns the sale price when one is set and lower than the
// regular price.
func (p *Product) EffectivePrice() int64 {
	if p.SalePrice > 0 && p.SalePrice < p.Price {
		return p.SalePrice
	}
	return p.Price
}

// ProductRef is a product reference inside an order line. Historical order
// records store it either as a bare identity string or as an embedded record
// carrying an "_id" field; both decode to the same key.
type ProductRef struct {
	ID string
}

type embeddedRef struct {
	ID string `json:"_id"`
}

// UnmarshalJSON accepts both reference shapes. An unrecognized shape leaves
// the key empty rather than failing the whole order decode.
func (r *ProductRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		r.ID = ""
		return nil
	}
	if data[0] == '{' {
		var emb embeddedRef
		if err := json.Unmarshal(data, &emb); err == nil {
			r.ID = emb.ID
			return nil
		}
		r.ID = ""
		return nil
	}
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		r.ID = bare
		return nil
	}
	r.ID = ""
	return nil
}

// MarshalJSON writes the bare form.
func (r ProductRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// Key returns the normalized product identity, empty when the stored
// reference matched neither shape.
func (r ProductRef) Key() string {
	return r.ID
}

// Scan lets sqlx read the product reference column into a ProductRef. The
// column holds the reference exactly as historical records stored it, so the
// same two-shape normalization as UnmarshalJSON applies: embedded record
// first, then bare identity.
func (r *ProductRef) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		r.ID = normalizeStoredRef([]byte(v))
	case []byte:
		r.ID = normalizeStoredRef(v)
	default:
		r.ID = ""
	}
	return nil
}

// normalizeStoredRef resolves a raw stored reference to its identity key.
// Unlike the JSON path, a stored bare identity is not quoted, so bytes that
// are neither an embedded record nor a JSON string are the identity itself.
func normalizeStoredRef(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	if data[0] == '{' {
		var emb embeddedRef
		if err := json.Unmarshal(data, &emb); err == nil {
			return emb.ID
		}
		return ""
	}
	if data[0] == '"' {
		var bare string
		if err := json.Unmarshal(data, &bare); err == nil {
			return bare
		}
		return ""
	}
	return string(data)
}

// OrderLine is one product reference plus quantity/price within an order.
type OrderLine struct {
	Product  ProductRef `db:"product_id" json:"productId"`
	Quantity int        `db:"quantity" json:"qty"`
	Price    int64      `db:"price" json:"price"`
}

// Order is a read-only purchase record owned by the backend. Only the fields
// the entitlement check needs are modeled.
type Order struct {
	ID        string      `db:"id" json:"_id"`
	UserID    string      `db:"user_id" json:"user"`
	IsPaid    bool        `db:"is_paid" json:"isPaid"`
	OrderedAt time.Time   `db:"ordered_at" json:"createdAt"`
	Lines     []OrderLine `db:"-" json:"orderItems"`
}

// CartItem is one row of a user's cart: identity, a display snapshot taken at
// add time, and a quantity of at least 1.
type CartItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	SalePrice int64  `json:"sale_price,omitempty"`
	Image     string `json:"image,omitempty"`
	PlotSize  string `json:"plot_size,omitempty"`
	Quantity  int    `json:"quantity"`
}

// UnitPrice returns the price a single unit contributes to the cart total.
func (ci *CartItem) UnitPrice() int64 {
	if ci.SalePrice > 0 && ci.SalePrice < ci.Price {
		return ci.SalePrice
	}
	return ci.Price
}

// WishlistItem is a liked product: identity plus display snapshot, no
// quantity.
type WishlistItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	SalePrice int64  `json:"sale_price,omitempty"`
	Image     string `json:"image,omitempty"`
}

// Listing statuses.
const (
	StatusIdle      = "idle"
	StatusLoading   = "loading"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// SourcePage is one source's current page of results plus its pagination
// metadata.
type SourcePage struct {
	Items  []Product `json:"items"`
	Page   int       `json:"page"`
	Pages  int       `json:"pages"`
	Count  int       `json:"count"`
	Status string    `json:"status"`
	Err    string    `json:"error,omitempty"`
}

// Listing is the aggregated page presented to the buyer. Pages is the max of
// the two sources' page counts and Count the sum of their item counts; page N
// is therefore not guaranteed to be a globally correct slice across sources.
// A true cross-source merge needs a backend contract change.
type Listing struct {
	Items  []Product `json:"items"`
	Page   int       `json:"page"`
	Pages  int       `json:"pages"`
	Count  int       `json:"count"`
	Status string    `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// FilterState is the buyer's current filter/sort selection. Both sources are
// queried with the same semantic filters.
type FilterState struct {
	Category     string `form:"category" json:"category,omitempty"`
	PlotSize     string `form:"plot_size" json:"plot_size,omitempty"`
	PlotArea     string `form:"plot_area" json:"plot_area,omitempty"`
	BudgetMin    int64  `form:"budget_min" json:"budget_min,omitempty"`
	BudgetMax    int64  `form:"budget_max" json:"budget_max,omitempty"`
	Direction    string `form:"direction" json:"direction,omitempty"`
	Floors       int    `form:"floors" json:"floors,omitempty"`
	PropertyType string `form:"property_type" json:"property_type,omitempty"`
	SortKey      string `form:"sort" json:"sort,omitempty"`
	Search       string `form:"search" json:"search,omitempty"`
}

// Query encodes the filters as backend query parameters. Zero values are
// omitted so both sources see identical, minimal requests.
func (f FilterState) Query() url.Values {
	q := url.Values{}
	set := func(key, val string) {
		if val != "" {
			q.Set(key, val)
		}
	}
	set("category", f.Category)
	set("plotSize", f.PlotSize)
	set("plotArea", f.PlotArea)
	set("direction", f.Direction)
	set("propertyType", f.PropertyType)
	set("sort", f.SortKey)
	set("search", f.Search)
	if f.BudgetMin > 0 {
		q.Set("budgetMin", strconv.FormatInt(f.BudgetMin, 10))
	}
	if f.BudgetMax > 0 {
		q.Set("budgetMax", strconv.FormatInt(f.BudgetMax, 10))
	}
	if f.Floors > 0 {
		q.Set("floors", strconv.Itoa(f.Floors))
	}
	return q
}
