package cache

import (
	"testing"
)

func TestRequestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  RequestKey
		want string
	}{
		{
			name: "categories",
			key:  RequestKey{Kind: KindCategories, FilterOrCategory: "Muscles", Page: 1, Limit: 12},
			want: "your-energy:filters:Muscles:page=1:limit=12:keyword=",
		},
		{
			name: "filter with space",
			key:  RequestKey{Kind: KindCategories, FilterOrCategory: "Body parts", Page: 2, Limit: 12},
			want: "your-energy:filters:Body+parts:page=2:limit=12:keyword=",
		},
		{
			name: "exercises with keyword",
			key:  RequestKey{Kind: KindExercises, FilterOrCategory: "bodypart=Arms", Page: 1, Limit: 10, Keyword: "curl"},
			want: "your-energy:exercises:bodypart%3DArms:page=1:limit=10:keyword=curl",
		},
		{
			name: "separator inside value is escaped",
			key:  RequestKey{Kind: KindExercises, FilterOrCategory: "muscles=a:b", Keyword: "x:y"},
			want: "your-energy:exercises:muscles%3Da%3Ab:page=0:limit=0:keyword=x%3Ay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("RequestKey.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestKeyFromParams_OrderIndependent builds the same parameters in different
// orders and from different value types.
func TestKeyFromParams_OrderIndependent(t *testing.T) {
	a := map[string]any{}
	a["filter"] = "Muscles"
	a["page"] = 1
	a["limit"] = 12
	a["keyword"] = ""

	b := map[string]any{}
	b["keyword"] = ""
	b["limit"] = "12"
	b["page"] = "1"
	b["filter"] = "Muscles"

	literal := RequestKey{Limit: 12, Keyword: "", Page: 1, FilterOrCategory: "Muscles", Kind: KindCategories}

	ka := KeyFromParams(KindCategories, a)
	kb := KeyFromParams(KindCategories, b)

	if ka != kb || ka != literal {
		t.Fatalf("keys differ: %+v %+v %+v", ka, kb, literal)
	}
	for i := 0; i < 10; i++ {
		if KeyFromParams(KindCategories, a).String() != literal.String() {
			t.Fatal("serialization is not deterministic")
		}
	}
}

func TestKeyFromParams_Category(t *testing.T) {
	key := KeyFromParams(KindExercises, map[string]any{
		"bodypart": "Arms",
		"page":     1,
		"limit":    10,
		"keyword":  "  curl ",
	})

	want := RequestKey{Kind: KindExercises, FilterOrCategory: "bodypart=Arms", Page: 1, Limit: 10, Keyword: "curl"}
	if key != want {
		t.Errorf("KeyFromParams() = %+v, want %+v", key, want)
	}
}

func TestRequestKey_DistinctFields(t *testing.T) {
	base := RequestKey{Kind: KindExercises, FilterOrCategory: "muscles=abs", Page: 1, Limit: 10}
	variants := []RequestKey{
		{Kind: KindCategories, FilterOrCategory: "muscles=abs", Page: 1, Limit: 10},
		{Kind: KindExercises, FilterOrCategory: "muscles=lats", Page: 1, Limit: 10},
		{Kind: KindExercises, FilterOrCategory: "muscles=abs", Page: 2, Limit: 10},
		{Kind: KindExercises, FilterOrCategory: "muscles=abs", Page: 1, Limit: 12},
		{Kind: KindExercises, FilterOrCategory: "muscles=abs", Page: 1, Limit: 10, Keyword: "crunch"},
	}
	for _, v := range variants {
		if v.String() == base.String() {
			t.Errorf("%+v serializes like %+v", v, base)
		}
	}
}
