package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Category is the ticket kind selected at submission.
type Category string

const (
	CategoryLink  Category = "Link"
	CategoryPix   Category = "Pix"
	CategoryOther Category = "Outros assuntos"
)

// Subcategory narrows an Other ticket.
type Subcategory string

const (
	SubcategoryAddress      Subcategory = "endereco"
	SubcategoryProofRequest Subcategory = "comprovantes"
)

// ErrSubcategoryRequired is returned when an Other ticket has no valid subcategory.
var ErrSubcategoryRequired = errors.New("subcategory must be endereco or comprovantes for Outros assuntos")

// Kind pairs a category with its subcategory. The zero value is invalid; build it with
// NewKind so that Subcategory is only ever set on the Other arm.
type Kind struct {
	Category    Category
	Subcategory Subcategory
}

// ParseCategory accepts the stored value or a case-insensitive alias.
func ParseCategory(raw string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "link":
		return CategoryLink, nil
	case "pix":
		return CategoryPix, nil
	case "outros assuntos", "outros", "other":
		return CategoryOther, nil
	}
	return "", fmt.Errorf("unknown category %q", raw)
}

// ParseSubcategory accepts the stored value or the english alias.
func ParseSubcategory(raw string) (Subcategory, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "endereco", "address":
		return SubcategoryAddress, true
	case "comprovantes", "proof_request", "proofrequest":
		return SubcategoryProofRequest, true
	}
	return "", false
}

// NewKind validates the category/subcategory pair. A subcategory given for Link or Pix
// is dropped.
func NewKind(category Category, subcategory string) (Kind, error) {
	switch category {
	case CategoryLink, CategoryPix:
		return Kind{Category: category}, nil
	case CategoryOther:
		sub, ok := ParseSubcategory(subcategory)
		if !ok {
			return Kind{}, ErrSubcategoryRequired
		}
		return Kind{Category: category, Subcategory: sub}, nil
	}
	return Kind{}, fmt.Errorf("unknown category %q", category)
}

// HasSubcategory reports whether the kind carries a subcategory.
func (k Kind) HasSubcategory() bool {
	return k.Subcategory != ""
}

func (k Kind) String() string {
	if k.HasSubcategory() {
		return string(k.Category) + "/" + string(k.Subcategory)
	}
	return string(k.Category)
}
