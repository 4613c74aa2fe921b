package domain

// Category is the fixed venue taxonomy. Filters and intent extraction
// only ever produce values from this set.
type Category string

const (
	CategoryKorean   Category = "korean"
	CategoryChinese  Category = "chinese"
	CategoryJapanese Category = "japanese"
	CategoryWestern  Category = "western"
	CategoryMeat     Category = "meat"
	CategoryChicken  Category = "chicken"
	CategorySeafood  Category = "seafood"
	CategoryCafe     Category = "cafe"
	CategorySnack    Category = "snack"
	CategoryPub      Category = "pub"
)

// AllCategories is the canonical ordering, used for stable output.
var AllCategories = []Category{
	CategoryKorean, CategoryChinese, CategoryJapanese, CategoryWestern,
	CategoryMeat, CategoryChicken, CategorySeafood, CategoryCafe,
	CategorySnack, CategoryPub,
}

func ParseCategory(s string) (Category, bool) {
	for _, c := range AllCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Purpose describes what a visit is for (solo meal, date, ...).
type Purpose string

const (
	PurposeSolo   Purpose = "solo"
	PurposeDate   Purpose = "date"
	PurposeFamily Purpose = "family"
	PurposeGroup  Purpose = "group"
	PurposeOther  Purpose = "other"
)

func ParsePurpose(s string) (Purpose, bool) {
	switch Purpose(s) {
	case PurposeSolo, PurposeDate, PurposeFamily, PurposeGroup, PurposeOther:
		return Purpose(s), true
	}
	return "", false
}

// PriceRange is a per-person spend band in won. Min <= Max always.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (p PriceRange) Valid() bool { return p.Min >= 0 && p.Min <= p.Max }

// DayHours holds opening hours as "15:04" strings; both empty means closed.
type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Hours is keyed by lowercase three-letter weekday (mon..sun).
type Hours map[string]DayHours

type Venue struct {
	ID          int64
	Name        string
	Category    Category
	District    string
	Address     *string
	Lat, Lon    *float64
	PriceRange  PriceRange
	Hours       Hours
	Description *string
	Specialties []string
	SuitableFor []Purpose

	// Derived fields. Only the review write unit may change them:
	// BaseRating is the one-decimal mean of non-spam review ratings,
	// ReviewCount the size of that same set. 0.0 / 0 when unreviewed.
	BaseRating  float64
	ReviewCount int
}

// SuitedFor reports whether p is one of the venue's declared purposes.
func (v Venue) SuitedFor(p Purpose) bool {
	for _, s := range v.SuitableFor {
		if s == p {
			return true
		}
	}
	return false
}
