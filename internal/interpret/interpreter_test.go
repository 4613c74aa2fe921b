package interpret_test

import (
	"reflect"
	"testing"

	"github.com/LeeYoungMin22/SW-Design/internal/domain"
	"github.com/LeeYoungMin22/SW-Design/internal/interpret"
)

func TestInterpret_BudgetAndCategory(t *testing.T) {
	in := interpret.New().Interpret("2만원 이하로 고기 먹을 수 있는 곳")

	if in.BudgetMax == nil || *in.BudgetMax != 20000 {
		t.Fatalf("budget: got %v, want 20000", in.BudgetMax)
	}
	if !in.HasCategory(domain.CategoryMeat) {
		t.Fatalf("categories: got %v, want meat included", in.Categories)
	}
	if len(in.FreeTextTerms) != 0 {
		t.Fatalf("free terms should be empty, got %v", in.FreeTextTerms)
	}
	if in.Assisted {
		t.Fatal("rule-based parse must not set Assisted")
	}
}

func TestInterpret_BudgetForms(t *testing.T) {
	cases := []struct {
		text string
		want *int
	}{
		{"5천원짜리 김밥", ptr(5000)},
		{"20,000원 이하", ptr(20000)},
		{"9000 won or less", ptr(9000)},
		{"1.5만원 정도", ptr(15000)},
		{"3만원 아니면 2만원 이하", ptr(20000)}, // smallest wins
		{"만원의 행복", nil},                  // no digits, no amount
		{"별점 4 이상인 곳", nil},              // number without currency marker
	}
	for _, tc := range cases {
		in := interpret.New().Interpret(tc.text)
		switch {
		case tc.want == nil && in.BudgetMax != nil:
			t.Fatalf("%q: got %d, want no budget", tc.text, *in.BudgetMax)
		case tc.want != nil && (in.BudgetMax == nil || *in.BudgetMax != *tc.want):
			t.Fatalf("%q: got %v, want %d", tc.text, in.BudgetMax, *tc.want)
		}
	}
}

func TestInterpret_CategoryUnion(t *testing.T) {
	in := interpret.New().Interpret("치킨이랑 피자 둘 다 파는 곳")
	want := []domain.Category{domain.CategoryWestern, domain.CategoryChicken}
	if !reflect.DeepEqual(in.Categories, want) {
		t.Fatalf("categories: got %v, want %v", in.Categories, want)
	}
}

func TestInterpret_SingleValuedFields(t *testing.T) {
	in := interpret.New().Interpret("성서에서 가족이랑 저녁 먹기 좋은 매운 한식")

	// The short spoken form resolves to the full dong name, the form
	// venue rows store.
	if in.District == nil || *in.District != "성서동" {
		t.Fatalf("district: got %v", in.District)
	}
	if in.Purpose == nil || *in.Purpose != domain.PurposeFamily {
		t.Fatalf("purpose: got %v", in.Purpose)
	}
	if in.TimeWindow == nil || in.TimeWindow.Label != "dinner" {
		t.Fatalf("time window: got %v", in.TimeWindow)
	}
	if in.Mood == nil || *in.Mood != "spicy" {
		t.Fatalf("mood: got %v", in.Mood)
	}
	if !in.HasCategory(domain.CategoryKorean) {
		t.Fatalf("categories: got %v, want korean", in.Categories)
	}
	if len(in.FreeTextTerms) != 0 {
		t.Fatalf("free terms should be empty, got %v", in.FreeTextTerms)
	}
}

func TestInterpret_PurposePriority(t *testing.T) {
	// Both 데이트 and 가족 appear; the earlier vocabulary entry wins.
	in := interpret.New().Interpret("가족 말고 데이트")
	if in.Purpose == nil || *in.Purpose != domain.PurposeDate {
		t.Fatalf("purpose: got %v, want date", in.Purpose)
	}
}

func TestInterpret_FreeTextFallback(t *testing.T) {
	in := interpret.New().Interpret("분위기 좋은 조용한 노포")
	want := []string{"분위기", "조용한", "노포"}
	if !reflect.DeepEqual(in.FreeTextTerms, want) {
		t.Fatalf("terms: got %v, want %v", in.FreeTextTerms, want)
	}
	if in.BudgetMax != nil || in.Categories != nil || in.Purpose != nil {
		t.Fatalf("no structured fields expected: %+v", in)
	}
}

func TestInterpret_NeverFails(t *testing.T) {
	for _, text := range []string{"", "   ", "!!!???", "ㅁㄴㅇㄹ"} {
		in := interpret.New().Interpret(text)
		if in.BudgetMax != nil || in.Categories != nil {
			t.Fatalf("%q: expected unconstrained intent, got %+v", text, in)
		}
	}
}

func TestInterpret_Deterministic(t *testing.T) {
	ip := interpret.New()
	const q = "월배 근처 2만원 이하 분위기 좋은 고기집에서 회식"
	a, b := ip.Interpret(q), ip.Interpret(q)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same query produced different intents:\n%+v\n%+v", a, b)
	}
}

func ptr[T any](v T) *T { return &v }
