package aggregates_test

import (
	"testing"

	"github.com/google/uuid"

	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
)

// Scenario B: Animals sits under Nature, so moving Nature under Animals is a cycle.
func TestScenarioBReparentCycleIsRejected(t *testing.T) {
	h := newHarness(t)
	nature := h.category(t, nil, "Narava", "Nature")
	animals := h.category(t, &nature, "Živali", "Animals")
	editsBefore, entriesBefore := h.counts(t)

	_, err := h.lexicon.UpdateCategory(h.ctx, h.admin, domainagg.UpdateCategoryInput{
		CategoryID: nature.ID,
		Parent:     lexicon.SetParent(animals.ID),
	})
	if !domainagg.IsCode(err, domainagg.CodeCycleDetected) {
		t.Fatalf("want cycle_detected got=%v", err)
	}
	if !domainagg.IsConstraintViolation(err) {
		t.Fatalf("a cycle is also a constraint violation: %v", err)
	}

	n, _ := h.repos.Categories.GetByID(h.dbc(), nature.ID)
	a, _ := h.repos.Categories.GetByID(h.dbc(), animals.ID)
	if n.ParentCategoryID != nil {
		t.Fatalf("nature parent changed: %v", n.ParentCategoryID)
	}
	if a.ParentCategoryID == nil || *a.ParentCategoryID != nature.ID {
		t.Fatalf("animals parent changed: %v", a.ParentCategoryID)
	}
	editsAfter, entriesAfter := h.counts(t)
	if editsAfter != editsBefore || entriesAfter != entriesBefore {
		t.Fatalf("rejected re-parent wrote records")
	}
}

func TestReparentGuards(t *testing.T) {
	h := newHarness(t)
	root := h.category(t, nil, "Koren", "Root")
	mid := h.category(t, &root, "Sredina", "Middle")
	leaf := h.category(t, &mid, "List", "Leaf")
	other := h.category(t, nil, "Drugo", "Other")

	cases := []struct {
		name   string
		target uuid.UUID
		parent uuid.UUID
		code   domainagg.ErrorCode
	}{
		{"self parent", mid.ID, mid.ID, domainagg.CodeCycleDetected},
		{"grandchild as parent", root.ID, leaf.ID, domainagg.CodeCycleDetected},
		{"missing parent", leaf.ID, uuid.New(), domainagg.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.lexicon.UpdateCategory(h.ctx, h.admin, domainagg.UpdateCategoryInput{
				CategoryID: tc.target,
				Parent:     lexicon.SetParent(tc.parent),
			})
			if !domainagg.IsCode(err, tc.code) {
				t.Fatalf("code: want=%s got=%v", tc.code, err)
			}
		})
	}

	res, err := h.lexicon.UpdateCategory(h.ctx, h.admin, domainagg.UpdateCategoryInput{
		CategoryID: leaf.ID,
		Parent:     lexicon.SetParent(other.ID),
	})
	if err != nil {
		t.Fatalf("legal re-parent: %v", err)
	}
	if res.Category.ParentCategoryID == nil || *res.Category.ParentCategoryID != other.ID {
		t.Fatalf("leaf parent: %v", res.Category.ParentCategoryID)
	}

	res, err = h.lexicon.UpdateCategory(h.ctx, h.admin, domainagg.UpdateCategoryInput{
		CategoryID: mid.ID,
		Parent:     lexicon.DetachParent(),
	})
	if err != nil {
		t.Fatalf("detach: %v", err)
	}
	if res.Category.ParentCategoryID != nil {
		t.Fatalf("mid should be a root: %v", res.Category.ParentCategoryID)
	}
	assertForestTerminates(t, h)
}

func TestReparentSequenceNeverFormsCycle(t *testing.T) {
	h := newHarness(t)
	cats := make([]lexicon.Category, 0, 6)
	for i, name := range []string{"A", "B", "C", "D", "E", "F"} {
		var parent *lexicon.Category
		if i > 0 {
			parent = &cats[i-1]
		}
		cats = append(cats, h.category(t, parent, "sl-"+name, "en-"+name))
	}

	// Try every ordered pair; only moves that keep the forest acyclic may succeed.
	for _, target := range cats {
		for _, parent := range cats {
			_, err := h.lexicon.UpdateCategory(h.ctx, h.admin, domainagg.UpdateCategoryInput{
				CategoryID: target.ID,
				Parent:     lexicon.SetParent(parent.ID),
			})
			if err != nil && !domainagg.IsCode(err, domainagg.CodeCycleDetected) {
				t.Fatalf("unexpected error moving %s under %s: %v", target.EnglishName, parent.EnglishName, err)
			}
			assertForestTerminates(t, h)
		}
	}
}

func assertForestTerminates(t *testing.T, h *harness) {
	t.Helper()
	all, err := h.repos.Categories.List(h.dbc())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	byID := make(map[uuid.UUID]*lexicon.Category, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	for _, c := range all {
		cur := c
		for steps := 0; cur.ParentCategoryID != nil; steps++ {
			if steps > len(all) {
				t.Fatalf("ancestor walk from %s does not terminate", c.EnglishName)
			}
			cur = byID[*cur.ParentCategoryID]
			if cur == nil {
				t.Fatalf("dangling parent under %s", c.EnglishName)
			}
		}
	}
}

func TestUpdateCategoryRenameMarksMeanings(t *testing.T) {
	h := newHarness(t)
	animals := h.category(t, nil, "Živali", "Animals")
	m := h.meaning(t, h.word(t, lexicon.Slovene, "pes"), "dog", animals)

	newName := "Fauna"
	res, err := h.lexicon.UpdateCategory(h.ctx, h.admin, domainagg.UpdateCategoryInput{
		CategoryID:  animals.ID,
		EnglishName: &newName,
	})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if res.Category.EnglishName != "Fauna" || res.Category.SloveneName != "Živali" {
		t.Fatalf("renamed category: %+v", res.Category)
	}
	related, err := h.entryOf(t, res.Receipt).RelatedRefs()
	if err != nil {
		t.Fatalf("RelatedRefs: %v", err)
	}
	if len(related) != 1 || related[0] != feed.Ref(feed.KindMeaning, m.ID) {
		t.Fatalf("related: %+v", related)
	}

	other := h.category(t, nil, "Rastline", "Plants")
	_, err = h.lexicon.UpdateCategory(h.ctx, h.admin, domainagg.UpdateCategoryInput{
		CategoryID:  other.ID,
		EnglishName: &newName,
	})
	if !domainagg.IsCode(err, domainagg.CodeConstraintViolation) {
		t.Fatalf("duplicate name: want constraint_violation got=%v", err)
	}
}

func TestCreateCategoryValidation(t *testing.T) {
	h := newHarness(t)
	h.category(t, nil, "Narava", "Nature")

	missing := uuid.New()
	cases := []struct {
		name string
		in   domainagg.CreateCategoryInput
		code domainagg.ErrorCode
	}{
		{"empty slovene name", domainagg.CreateCategoryInput{SloveneName: " ", EnglishName: "X"}, domainagg.CodeValidation},
		{"duplicate english name", domainagg.CreateCategoryInput{SloveneName: "Narava 2", EnglishName: "Nature"}, domainagg.CodeConstraintViolation},
		{"missing parent", domainagg.CreateCategoryInput{ParentID: &missing, SloveneName: "Y", EnglishName: "Y"}, domainagg.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.lexicon.CreateCategory(h.ctx, h.admin, tc.in)
			if !domainagg.IsCode(err, tc.code) {
				t.Fatalf("code: want=%s got=%v", tc.code, err)
			}
		})
	}
}

func TestDeleteCategoryDetachesChildren(t *testing.T) {
	h := newHarness(t)
	nature := h.category(t, nil, "Narava", "Nature")
	animals := h.category(t, &nature, "Živali", "Animals")
	plants := h.category(t, &nature, "Rastline", "Plants")
	m := h.meaning(t, h.word(t, lexicon.English, "forest"), "many trees", nature)

	res, err := h.lexicon.DeleteCategory(h.ctx, h.admin, domainagg.DeleteCategoryInput{CategoryID: nature.ID})
	if err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if len(res.DetachedChildIDs) != 2 {
		t.Fatalf("detached children: %+v", res.DetachedChildIDs)
	}
	for _, c := range []lexicon.Category{animals, plants} {
		row, err := h.repos.Categories.GetByID(h.dbc(), c.ID)
		if err != nil || row == nil {
			t.Fatalf("child %s deleted: err=%v", c.EnglishName, err)
		}
		if row.ParentCategoryID != nil {
			t.Fatalf("child %s still has parent %v", c.EnglishName, row.ParentCategoryID)
		}
	}
	view, err := h.repos.Meanings.GetView(h.dbc(), m.ID)
	if err != nil || view == nil {
		t.Fatalf("meaning lost: err=%v", err)
	}
	if len(view.CategoryIDs) != 0 {
		t.Fatalf("meaning keeps deleted category: %+v", view.CategoryIDs)
	}
	dirty, err := h.entryOf(t, res.Receipt).DirtySet()
	if err != nil {
		t.Fatalf("DirtySet: %v", err)
	}
	found := false
	for _, r := range dirty {
		if r == feed.Ref(feed.KindMeaning, m.ID) {
			found = true
		}
	}
	if !found {
		t.Fatalf("dirty set misses the unlinked meaning: %+v", dirty)
	}
}
