package catalog

import (
	"math"
	"testing"
)

// axisVec builds a 3-d vector whose cosine against the x axis is s.
func axisVec(s float64) []float32 {
	return []float32{float32(s), float32(math.Sqrt(1 - s*s)), 0}
}

func testCatalog() *Catalog {
	return New([]Collection{
		{
			ID:   "ho_tich_cap_xa",
			Name: "Hộ tịch cấp xã",
			Documents: []Document{
				{
					ID:    "dang_ky_khai_sinh",
					Title: "Đăng ký khai sinh",
					Questions: []ReferenceQuestion{
						{Text: "thủ tục khai sinh", Embedding: []float32{1, 0, 0}, DocumentID: "dang_ky_khai_sinh", CollectionID: "ho_tich_cap_xa"},
						{Text: "giấy tờ khai sinh", Embedding: []float32{0, 1, 0}, DocumentID: "dang_ky_khai_sinh", CollectionID: "ho_tich_cap_xa"},
					},
				},
				{
					ID:    "dang_ky_ket_hon",
					Title: "Đăng ký kết hôn",
					Questions: []ReferenceQuestion{
						{Text: "thủ tục kết hôn", Embedding: []float32{0, 0, 1}, DocumentID: "dang_ky_ket_hon", CollectionID: "ho_tich_cap_xa"},
					},
				},
				{
					ID:    "trong",
					Title: "Trống",
				},
			},
		},
		{
			ID:   "cu_tru",
			Name: "Cư trú",
			Documents: []Document{
				{
					ID:    "dang_ky_thuong_tru",
					Title: "Đăng ký thường trú",
					Questions: []ReferenceQuestion{
						{Text: "đăng ký thường trú", Embedding: []float32{0, 1, 0}, DocumentID: "dang_ky_thuong_tru", CollectionID: "cu_tru"},
					},
				},
			},
		},
	})
}

func TestCatalogGet(t *testing.T) {
	c := testCatalog()

	if got := c.Get("cu_tru"); got == nil || got.Name != "Cư trú" {
		t.Fatalf("Get(cu_tru) = %+v", got)
	}
	if got := c.Get("missing"); got != nil {
		t.Fatalf("Get(missing) = %+v, want nil", got)
	}
	if n := c.Get("ho_tich_cap_xa").QuestionCount(); n != 3 {
		t.Fatalf("QuestionCount() = %d, want 3", n)
	}
}

func TestCatalogCollectionsOrder(t *testing.T) {
	c := testCatalog()
	cols := c.Collections()
	if len(cols) != 2 || cols[0].ID != "ho_tich_cap_xa" || cols[1].ID != "cu_tru" {
		t.Fatalf("Collections() order = %v", []string{cols[0].ID, cols[1].ID})
	}
}

func TestRankDocuments(t *testing.T) {
	c := testCatalog()

	// Closest to the z axis: ket_hon's only question wins, khai_sinh
	// scores via its best question, the empty document sorts last.
	query := []float32{0.3, 0, 0.9}
	ranked := c.RankDocuments("ho_tich_cap_xa", query)
	if len(ranked) != 3 {
		t.Fatalf("RankDocuments() len = %d, want 3", len(ranked))
	}
	if ranked[0].Document.ID != "dang_ky_ket_hon" {
		t.Errorf("best document = %s, want dang_ky_ket_hon", ranked[0].Document.ID)
	}
	if ranked[1].Document.ID != "dang_ky_khai_sinh" {
		t.Errorf("second document = %s, want dang_ky_khai_sinh", ranked[1].Document.ID)
	}
	if ranked[2].Document.ID != "trong" || ranked[2].Score != 0 {
		t.Errorf("empty document should sort last with zero score, got %s (%v)", ranked[2].Document.ID, ranked[2].Score)
	}
	if ranked[0].Score <= ranked[1].Score {
		t.Errorf("scores not descending: %v then %v", ranked[0].Score, ranked[1].Score)
	}

	if got := c.RankDocuments("missing", query); got != nil {
		t.Errorf("RankDocuments(missing) = %v, want nil", got)
	}
}

func TestRankQuestions(t *testing.T) {
	c := testCatalog()

	query := axisVec(0.95)
	ranked := c.RankQuestions("ho_tich_cap_xa", "dang_ky_khai_sinh", query)
	if len(ranked) != 2 {
		t.Fatalf("RankQuestions() len = %d, want 2", len(ranked))
	}
	if ranked[0].Question.Text != "thủ tục khai sinh" {
		t.Errorf("best question = %q", ranked[0].Question.Text)
	}
	if math.Abs(ranked[0].Score-0.95) > 1e-6 {
		t.Errorf("best score = %v, want ~0.95", ranked[0].Score)
	}

	if got := c.RankQuestions("ho_tich_cap_xa", "missing_doc", query); got != nil {
		t.Errorf("RankQuestions(missing doc) = %v, want nil", got)
	}
	if got := c.RankQuestions("missing", "dang_ky_khai_sinh", query); got != nil {
		t.Errorf("RankQuestions(missing collection) = %v, want nil", got)
	}
}

func TestProviderSwap(t *testing.T) {
	first := testCatalog()
	p := NewProvider(first)

	if p.Current() != first {
		t.Fatal("Current() did not return the initial catalog")
	}

	second := New([]Collection{{ID: "thue", Name: "Thuế"}})
	p.Swap(second)
	if p.Current() != second {
		t.Fatal("Swap() did not replace the catalog")
	}

	// A nil swap keeps the active catalog.
	p.Swap(nil)
	if p.Current() != second {
		t.Fatal("Swap(nil) must keep the current catalog")
	}
}
