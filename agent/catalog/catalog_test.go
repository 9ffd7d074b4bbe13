package catalog

import "testing"

func demoItems() []MenuItem {
	return []MenuItem{
		{ID: "1", Name: "불고기정식", Price: 15000, Description: "부드러운 불고기와 반찬"},
		{ID: "2", Name: "김치찌개", Price: 12000},
		{ID: "3", Name: "Bibimbap", Price: 13000},
	}
}

func TestUpsertAndListKeepImportOrder(t *testing.T) {
	t.Parallel()

	c := New()
	if err := c.Upsert("옥소반 마곡본점", demoItems(), nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got := c.List("옥소반 마곡본점")
	if len(got) != 3 {
		t.Fatalf("List returned %d items, want 3", len(got))
	}
	for i, want := range []string{"불고기정식", "김치찌개", "Bibimbap"} {
		if got[i].Name != want {
			t.Fatalf("item %d = %q, want %q", i, got[i].Name, want)
		}
	}
	if !c.HasMenu("옥소반 마곡본점") {
		t.Fatal("HasMenu = false after import")
	}
}

func TestUpsertDropsNamelessItemsAndRejectsEmptyStore(t *testing.T) {
	t.Parallel()

	c := New()
	items := append(demoItems(), MenuItem{Price: 9000})
	if err := c.Upsert("가게", items, nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if got := len(c.List("가게")); got != 3 {
		t.Fatalf("nameless item kept, got %d items", got)
	}

	if err := c.Upsert("  ", demoItems(), nil); err == nil {
		t.Fatal("Upsert with blank store should fail")
	}
}

func TestFindMatchesNormalizedNames(t *testing.T) {
	t.Parallel()

	c := New()
	if err := c.Upsert("가게", demoItems(), nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	item, ok := c.Find("가게", "  bibimbap ")
	if !ok || item.Price != 13000 {
		t.Fatalf("Find normalized = (%+v, %v)", item, ok)
	}
	if _, ok := c.Find("가게", "불고기"); ok {
		t.Fatal("Find should not do substring matching")
	}
	if _, ok := c.Find("가게", ""); ok {
		t.Fatal("Find with empty name should miss")
	}
	if _, ok := c.Find("없는가게", "비빔밥"); ok {
		t.Fatal("Find on unknown store should miss")
	}
}

func TestFeaturedFallsBackToFirstItem(t *testing.T) {
	t.Parallel()

	c := New()
	if err := c.Upsert("가게", demoItems(), nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	item, ok := c.Featured("가게")
	if !ok || item.Name != "불고기정식" {
		t.Fatalf("Featured fallback = (%q, %v), want first item", item.Name, ok)
	}

	explicit := MenuItem{Name: "김치찌개", Price: 12000}
	if err := c.Upsert("가게", demoItems(), &explicit); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	item, _ = c.Featured("가게")
	if item.Name != "김치찌개" {
		t.Fatalf("explicit featured ignored, got %q", item.Name)
	}

	if err := c.Upsert("가게", nil, nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, ok := c.Featured("가게"); ok {
		t.Fatal("Featured should be cleared when the menu empties")
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		" Bul Go Gi ": "bulgogi",
		"불고기 정식":      "불고기정식",
		"":            "",
		"  ":          "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
