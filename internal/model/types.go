package model

import "time"

// Collection groups looks under a season or campaign (e.g. "spring25").
type Collection struct {
	ID        string    `json:"id" toml:"id"`
	Title     string    `json:"title" toml:"title"`
	CreatedAt time.Time `json:"created_at" toml:"-"`
}

// Look is a single lookbook image inside a collection.
// Width and Height are the natural pixel dimensions of the stored asset.
type Look struct {
	CollectionID string            `json:"collection_id" toml:"-"`
	ID           string            `json:"id" toml:"id"`
	Title        string            `json:"title" toml:"title"`
	Src          string            `json:"src" toml:"src"`
	Width        int               `json:"width" toml:"width"`
	Height       int               `json:"height" toml:"height"`
	Variants     map[string]string `json:"variants,omitempty" toml:"-"` // width label -> URL
	Position     int               `json:"position" toml:"position"`
	CreatedAt    time.Time         `json:"created_at" toml:"-"`
}

// Key returns the image identity of the look.
func (l Look) Key() LookKey {
	return LookKey{Collection: l.CollectionID, Look: l.ID}
}

// LookKey identifies the image a set of hotspots belongs to.
type LookKey struct {
	Collection string `json:"collection"`
	Look       string `json:"look"`
}

func (k LookKey) String() string {
	return k.Collection + "/" + k.Look
}

// Valid reports whether both parts of the key are set.
func (k LookKey) Valid() bool {
	return k.Collection != "" && k.Look != ""
}

// Hotspot is a clickable garment region on a look. Points is a polygon in
// normalized 0-1000 space, serialized as "x1,y1 x2,y2 ...".
type Hotspot struct {
	ID     string `json:"id" toml:"id"`
	Points string `json:"points" toml:"points"`
	Title  string `json:"title" toml:"title"`
	Brand  string `json:"brand" toml:"brand"`
	Price  string `json:"price" toml:"price"`
	URL    string `json:"url" toml:"url"`
}

// Product is purchase metadata scraped from a shop page, used to prefill a
// hotspot form.
type Product struct {
	Title    string `json:"title"`
	Brand    string `json:"brand,omitempty"`
	Price    string `json:"price,omitempty"`
	Currency string `json:"currency,omitempty"`
	URL      string `json:"url"`
	Image    string `json:"image,omitempty"`
}

// Counts summarizes the catalog size.
type Counts struct {
	Collections int `json:"collections"`
	Looks       int `json:"looks"`
	Hotspots    int `json:"hotspots"`
}
