package aggregates

import (
	"context"
	"strings"

	"github.com/google/uuid"

	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/edit"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
)

func (a *lexiconAggregate) CreateCategory(ctx context.Context, caller auth.Caller, in domainagg.CreateCategoryInput) (domainagg.CategoryResult, error) {
	var out domainagg.CategoryResult
	receipt, err := write(ctx, a.deps, domainagg.OpCreateCategory, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		sl, err := RequireText("slovene_name", in.SloveneName)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		en, err := RequireText("english_name", in.EnglishName)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if in.ParentID != nil {
			parent, err := a.deps.Repos.Categories.GetByID(dbc, *in.ParentID)
			if err != nil {
				return domainagg.Receipt{}, err
			}
			if err := RequireFound(parent, "parent category", *in.ParentID); err != nil {
				return domainagg.Receipt{}, err
			}
		}

		now := a.deps.Now()
		c := &lexicon.Category{
			ID:               uuid.New(),
			ParentCategoryID: in.ParentID,
			SloveneName:      sl,
			EnglishName:      en,
			CreatedAt:        now,
			LastModifiedAt:   now,
		}
		if err := a.deps.Repos.Categories.Create(dbc, c); err != nil {
			return domainagg.Receipt{}, err
		}
		out.Category = *c

		return record(dbc, a.deps, authorOf(caller), now, change{
			Action:  edit.ActionCreatedCategory,
			Subject: feed.Ref(feed.KindCategory, c.ID),
			After:   categoryData(c),
		})
	})
	out.Receipt = receipt
	return out, err
}

func (a *lexiconAggregate) UpdateCategory(ctx context.Context, caller auth.Caller, in domainagg.UpdateCategoryInput) (domainagg.CategoryResult, error) {
	var out domainagg.CategoryResult
	receipt, err := write(ctx, a.deps, domainagg.OpUpdateCategory, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		c, err := a.deps.Repos.Categories.LockByID(dbc, in.CategoryID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireFound(c, "category", in.CategoryID); err != nil {
			return domainagg.Receipt{}, err
		}
		before := categoryData(c)

		updates := map[string]any{}
		renamed := false
		if in.SloveneName != nil {
			sl, err := RequireText("slovene_name", *in.SloveneName)
			if err != nil {
				return domainagg.Receipt{}, err
			}
			if sl != c.SloveneName {
				updates["slovene_name"] = sl
				c.SloveneName = sl
				renamed = true
			}
		}
		if in.EnglishName != nil {
			en, err := RequireText("english_name", *in.EnglishName)
			if err != nil {
				return domainagg.Receipt{}, err
			}
			if en != c.EnglishName {
				updates["english_name"] = en
				c.EnglishName = en
				renamed = true
			}
		}
		if in.Parent.Set {
			if in.Parent.ParentID != nil {
				if err := a.checkReparent(dbc, c.ID, *in.Parent.ParentID); err != nil {
					return domainagg.Receipt{}, err
				}
			}
			if in.Parent.ParentID != nil {
				updates["parent_category_id"] = *in.Parent.ParentID
			} else {
				updates["parent_category_id"] = nil
			}
			c.ParentCategoryID = in.Parent.ParentID
		}

		now := a.deps.Now()
		updates["last_modified_at"] = now
		if err := a.deps.Repos.Categories.UpdateFields(dbc, c.ID, updates); err != nil {
			return domainagg.Receipt{}, err
		}
		c.LastModifiedAt = now
		out.Category = *c

		var related []feed.EntityRef
		if renamed {
			ids, err := a.deps.Repos.Meanings.ListIDsByCategoryID(dbc, c.ID)
			if err != nil {
				return domainagg.Receipt{}, err
			}
			related = meaningRefs(ids)
		}
		return record(dbc, a.deps, authorOf(caller), now, change{
			Action:  edit.ActionUpdatedCategory,
			Subject: feed.Ref(feed.KindCategory, c.ID),
			Before:  before,
			After:   categoryData(c),
			Related: related,
		})
	})
	out.Receipt = receipt
	return out, err
}

// checkReparent walks the ancestor chain of parentID, locking each row, and rejects the
// move when categoryID is on it. The walk is bounded by the number of categories, so a
// chain that is already cyclic is reported instead of looping.
func (a *lexiconAggregate) checkReparent(dbc dbctx.Context, categoryID, parentID uuid.UUID) error {
	if parentID == categoryID {
		return CycleError("a category cannot be its own parent")
	}
	limit, err := a.deps.Repos.Categories.Count(dbc)
	if err != nil {
		return err
	}

	cur := parentID
	for steps := int64(0); ; steps++ {
		if steps > limit {
			return CycleError("category ancestor chain does not terminate")
		}
		row, err := a.deps.Repos.Categories.LockByID(dbc, cur)
		if err != nil {
			return err
		}
		if row == nil {
			if cur == parentID {
				return NotFoundError("parent category %s not found", parentID)
			}
			return nil
		}
		if row.ID == categoryID {
			return CycleError("moving the category under " + parentID.String() + " would create a cycle")
		}
		if row.ParentCategoryID == nil {
			return nil
		}
		cur = *row.ParentCategoryID
	}
}

func (a *lexiconAggregate) DeleteCategory(ctx context.Context, caller auth.Caller, in domainagg.DeleteCategoryInput) (domainagg.DeleteCategoryResult, error) {
	var out domainagg.DeleteCategoryResult
	receipt, err := write(ctx, a.deps, domainagg.OpDeleteCategory, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		c, err := a.deps.Repos.Categories.LockByID(dbc, in.CategoryID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireFound(c, "category", in.CategoryID); err != nil {
			return domainagg.Receipt{}, err
		}
		children, err := a.deps.Repos.Categories.ChildIDs(dbc, c.ID)
		if err != nil {
			return domainagg.Receipt{}, err
		}

		now := a.deps.Now()
		if _, err := a.deps.Repos.Categories.DetachChildren(dbc, c.ID, now); err != nil {
			return domainagg.Receipt{}, err
		}
		meaningIDs, err := a.deps.Repos.Categories.UnlinkMeanings(dbc, c.ID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		n, err := a.deps.Repos.Categories.Delete(dbc, c.ID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireAffected(n, "category"); err != nil {
			return domainagg.Receipt{}, err
		}
		out.DetachedChildIDs = children

		related := meaningRefs(meaningIDs)
		for _, id := range children {
			related = append(related, feed.Ref(feed.KindCategory, id))
		}
		before := categoryData(c)
		before["meaning_ids"] = meaningIDs
		before["child_ids"] = children
		return record(dbc, a.deps, authorOf(caller), now, change{
			Action:  edit.ActionDeletedCategory,
			Subject: feed.Ref(feed.KindCategory, c.ID),
			Op:      feed.OpDelete,
			Before:  before,
			Related: related,
		})
	})
	out.Receipt = receipt
	return out, err
}

func categoryData(c *lexicon.Category) map[string]any {
	var parent any
	if c.ParentCategoryID != nil {
		parent = c.ParentCategoryID.String()
	}
	return map[string]any{
		"parent_category_id": parent,
		"slovene_name":       strings.TrimSpace(c.SloveneName),
		"english_name":       strings.TrimSpace(c.EnglishName),
	}
}
