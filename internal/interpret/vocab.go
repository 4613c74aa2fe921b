package interpret

import "github.com/LeeYoungMin22/SW-Design/internal/domain"

// Vocabularies are ordered slices, not maps: extraction iterates them
// in place, which keeps the interpreter deterministic.

type categoryEntry struct {
	cat  domain.Category
	keys []string
}

var categoryVocab = []categoryEntry{
	{domain.CategoryKorean, []string{"한식", "한정식", "국밥", "찌개", "비빔밥", "불고기", "김치", "korean"}},
	{domain.CategoryChinese, []string{"중식", "중국집", "짜장", "짬뽕", "탕수육", "chinese"}},
	{domain.CategoryJapanese, []string{"일식", "초밥", "스시", "라멘", "돈까스", "우동", "japanese", "sushi", "ramen"}},
	{domain.CategoryWestern, []string{"양식", "파스타", "피자", "스테이크", "버거", "western", "pasta", "pizza", "steak", "burger"}},
	{domain.CategoryMeat, []string{"고기", "고깃집", "삼겹살", "갈비", "곱창", "구이", "bbq", "meat"}},
	{domain.CategoryChicken, []string{"치킨", "닭", "통닭", "chicken"}},
	// 회 on its own is avoided: it shadows 회식 (a group-dinner cue).
	{domain.CategorySeafood, []string{"해산물", "횟집", "물회", "생선회", "회덮밥", "해물", "수산", "조개", "대게", "seafood"}},
	{domain.CategoryCafe, []string{"카페", "커피", "디저트", "케이크", "빵집", "브런치", "cafe", "coffee", "dessert", "brunch"}},
	{domain.CategorySnack, []string{"분식", "떡볶이", "김밥", "순대", "라면", "튀김", "snack"}},
	{domain.CategoryPub, []string{"술집", "호프", "포차", "맥주", "소주", "안주", "술", "pub", "beer"}},
}

type purposeEntry struct {
	p    domain.Purpose
	keys []string
}

// First matching entry wins, so the order encodes priority.
var purposeVocab = []purposeEntry{
	{domain.PurposeSolo, []string{"혼밥", "혼자", "혼술", "solo", "alone"}},
	{domain.PurposeDate, []string{"데이트", "연인", "소개팅", "기념일", "date"}},
	{domain.PurposeFamily, []string{"가족", "부모님", "아이들", "family", "parents"}},
	{domain.PurposeGroup, []string{"회식", "친구", "모임", "단체", "동료", "group", "friends", "team"}},
}

type moodEntry struct {
	label string
	keys  []string
}

var moodVocab = []moodEntry{
	{"spicy", []string{"매운", "매워", "맵게", "얼큰"}},
	{"sweet", []string{"달콤", "달달"}},
	{"mild", []string{"담백", "깔끔"}},
	{"rich", []string{"진한", "꾸덕"}},
	{"healthy", []string{"건강", "웰빙"}},
}

type windowEntry struct {
	w    domain.TimeWindow
	keys []string
}

var windowVocab = []windowEntry{
	{domain.TimeWindow{Label: "breakfast", Open: "06:00", Close: "10:00"}, []string{"아침", "조식", "breakfast", "morning"}},
	{domain.TimeWindow{Label: "lunch", Open: "11:00", Close: "14:00"}, []string{"점심", "런치", "lunch"}},
	{domain.TimeWindow{Label: "dinner", Open: "17:00", Close: "21:00"}, []string{"저녁", "디너", "dinner"}},
	{domain.TimeWindow{Label: "latenight", Open: "21:00", Close: "02:00"}, []string{"야식", "심야", "새벽", "late night", "latenight"}},
}

// WindowByLabel resolves a meal-slot label to its hour band. External
// refiners name slots by label; the hours stay ours.
func WindowByLabel(label string) (domain.TimeWindow, bool) {
	for _, e := range windowVocab {
		if e.w.Label == label {
			return e.w, true
		}
	}
	return domain.TimeWindow{}, false
}

// CategoryTerms exposes the keyword list behind a category so ranking
// can match leftover free-text terms against it.
func CategoryTerms(c domain.Category) []string {
	for _, e := range categoryVocab {
		if e.cat == c {
			return e.keys
		}
	}
	return nil
}

type districtEntry struct {
	name string
	keys []string
}

// name is the full legal dong, the exact form venue rows store, so an
// extracted district works as an equality filter. Keys cover the
// spoken short form (which also matches the full form by substring).
var districtVocab = []districtEntry{
	{"성서동", []string{"성서", "seongseo"}},
	{"월배동", []string{"월배", "wolbae"}},
	{"상인동", []string{"상인", "sangin"}},
	{"감삼동", []string{"감삼", "gamsam"}},
	{"본리동", []string{"본리", "bonri"}},
	{"죽전동", []string{"죽전", "jukjeon"}},
}

// Stopwords drop query filler from the free-text terms. Tokens match
// exactly, or by prefix for multi-rune entries so attached particles
// stay covered (이하로, 까지는, ...).
var stopwords = []string{
	"먹을", "먹고", "먹기", "마실", "싶어", "싶은", "싶다", "있는", "있을", "없는",
	"맛있는", "맛집", "추천", "해줘", "해주세요", "알려줘", "알려주세요", "어디", "근처", "주변",
	"제일", "가장", "괜찮은", "좋은", "같이", "오늘", "내일",
	"이랑", "하고", "에서", "으로", "부터",
	"이하", "이내", "아래", "까지", "미만", "정도", "안으로",
	"the", "an", "in", "for", "to", "of", "me", "some", "please",
	"find", "want", "eat", "good", "best", "place", "restaurant", "near",
	"under", "below", "max", "around", "budget", "with",
}
