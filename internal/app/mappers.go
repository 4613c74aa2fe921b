package app

import (
	"strconv"
	"strings"

	"github.com/LeeYoungMin22/SW-Design/internal/domain"
)

/********** alias registries (single source of truth) **********/

// Seed files come from hand-maintained spreadsheets and exports, so
// the same field shows up under Korean and English names.
var venueAliases = map[string][]string{
	"name":        {"name", "venue_name", "상호명", "이름", "가게명"},
	"category":    {"category", "type", "업종", "분류", "카테고리"},
	"district":    {"district", "dong", "동", "행정동", "지역"},
	"address":     {"address", "road_address", "주소", "도로명주소", "location.address"},
	"description": {"description", "intro", "설명", "소개"},
}

var categoryValues = map[string]domain.Category{
	"한식": domain.CategoryKorean, "한정식": domain.CategoryKorean, "국밥": domain.CategoryKorean,
	"중식": domain.CategoryChinese, "중국집": domain.CategoryChinese,
	"일식": domain.CategoryJapanese, "초밥": domain.CategoryJapanese,
	"양식": domain.CategoryWestern, "이탈리안": domain.CategoryWestern, "파스타": domain.CategoryWestern,
	"고기": domain.CategoryMeat, "고깃집": domain.CategoryMeat, "육류": domain.CategoryMeat, "bbq": domain.CategoryMeat,
	"치킨": domain.CategoryChicken,
	"해산물": domain.CategorySeafood, "횟집": domain.CategorySeafood, "회": domain.CategorySeafood,
	"카페": domain.CategoryCafe, "커피": domain.CategoryCafe, "디저트": domain.CategoryCafe,
	"분식": domain.CategorySnack,
	"주점": domain.CategoryPub, "술집": domain.CategoryPub, "포차": domain.CategoryPub,
}

var purposeValues = map[string]domain.Purpose{
	"혼밥": domain.PurposeSolo, "혼자": domain.PurposeSolo,
	"데이트": domain.PurposeDate, "커플": domain.PurposeDate,
	"가족": domain.PurposeFamily,
	"회식": domain.PurposeGroup, "모임": domain.PurposeGroup, "단체": domain.PurposeGroup,
	"기타": domain.PurposeOther,
}

var dayNames = map[string]string{
	"mon": "mon", "monday": "mon", "월": "mon",
	"tue": "tue", "tuesday": "tue", "화": "tue",
	"wed": "wed", "wednesday": "wed", "수": "wed",
	"thu": "thu", "thursday": "thu", "목": "thu",
	"fri": "fri", "friday": "fri", "금": "fri",
	"sat": "sat", "saturday": "sat", "토": "sat",
	"sun": "sun", "sunday": "sun", "일": "sun",
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return &s
		}
	}
	return nil
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// getIntFlexible: int from several paths (float64/int/string, commas allowed).
func getIntFlexible(m map[string]any, paths ...string) *int {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int(v)
			return &x
		case int:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
			if s == "" {
				continue
			}
			if n, err := strconv.Atoi(s); err == nil {
				return &n
			}
		}
	}
	return nil
}

// firstSliceStrings: accept []any with either strings or {name} objects.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		if raw, ok := lookupAny(m, k).([]any); ok {
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				switch t := it.(type) {
				case string:
					if t != "" {
						out = append(out, t)
					}
				case map[string]any:
					if n, ok := t["name"].(string); ok && n != "" {
						out = append(out, n)
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

/********** venue mapper **********/

type seedError struct{ msg string }

func (e *seedError) Error() string { return e.msg }

// mapVenue shapes one loose seed entry into a venue. Name and a
// recognizable category are required; everything else degrades to
// empty rather than failing the whole file.
func mapVenue(p map[string]any) (domain.Venue, error) {
	name := firstNonEmptyAlias(p, venueAliases, "name")
	if name == nil {
		return domain.Venue{}, &seedError{"seed entry has no name"}
	}

	rawCat := firstNonEmptyAlias(p, venueAliases, "category")
	if rawCat == nil {
		return domain.Venue{}, &seedError{"seed entry " + *name + " has no category"}
	}
	cat, ok := parseSeedCategory(*rawCat)
	if !ok {
		return domain.Venue{}, &seedError{"seed entry " + *name + " has unknown category " + *rawCat}
	}

	v := domain.Venue{
		Name:        *name,
		Category:    cat,
		Address:     firstNonEmptyAlias(p, venueAliases, "address"),
		Description: firstNonEmptyAlias(p, venueAliases, "description"),
		Lat:         getFloatFlexible(p, "lat", "latitude", "위도", "location.lat"),
		Lon:         getFloatFlexible(p, "lon", "lng", "longitude", "경도", "location.lon", "location.lng"),
		Specialties: firstSliceStrings(p, "specialties", "menus", "signature", "대표메뉴", "메뉴"),
		Hours:       mapHours(p),
	}
	if d := firstNonEmptyAlias(p, venueAliases, "district"); d != nil {
		v.District = *d
	}

	if min := getIntFlexible(p, "price_min", "min_price", "최저가", "price.min"); min != nil {
		v.PriceRange.Min = *min
	}
	if max := getIntFlexible(p, "price_max", "max_price", "최고가", "price.max"); max != nil {
		v.PriceRange.Max = *max
	}
	if v.PriceRange.Max < v.PriceRange.Min {
		v.PriceRange.Max = v.PriceRange.Min
	}

	for _, raw := range firstSliceStrings(p, "suitable_for", "purposes", "용도", "모임") {
		key := strings.ToLower(strings.TrimSpace(raw))
		purpose, ok := purposeValues[key]
		if !ok {
			purpose, ok = domain.ParsePurpose(key)
		}
		if ok && !v.SuitedFor(purpose) {
			v.SuitableFor = append(v.SuitableFor, purpose)
		}
	}
	return v, nil
}

func parseSeedCategory(raw string) (domain.Category, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if c, ok := categoryValues[key]; ok {
		return c, true
	}
	return domain.ParseCategory(key)
}

// mapHours accepts two shapes per day: {"open":"11:00","close":"22:00"}
// and the compact "11:00-22:00". Unknown day names are dropped.
func mapHours(p map[string]any) domain.Hours {
	raw, ok := lookupAny(p, "hours").(map[string]any)
	if !ok {
		if raw, ok = lookupAny(p, "영업시간").(map[string]any); !ok {
			return nil
		}
	}
	out := domain.Hours{}
	for k, val := range raw {
		day, ok := dayNames[strings.ToLower(strings.TrimSpace(k))]
		if !ok {
			continue
		}
		switch t := val.(type) {
		case string:
			parts := strings.SplitN(t, "-", 2)
			if len(parts) == 2 {
				out[day] = domain.DayHours{Open: strings.TrimSpace(parts[0]), Close: strings.TrimSpace(parts[1])}
			}
		case map[string]any:
			open, _ := t["open"].(string)
			clos, _ := t["close"].(string)
			if open != "" || clos != "" {
				out[day] = domain.DayHours{Open: open, Close: clos}
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
