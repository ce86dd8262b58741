package services

import (
	"context"
	"testing"

	"spendwise/internal/notifier"
	"spendwise/internal/testutil"
)

func TestCreateCategory(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		rec := &testutil.Recorder{}
		svc := NewCategoryService(db, rec)
		user := testutil.CreateTestUser(t, db)

		cat, err := svc.CreateCategory(context.Background(), user.ID, "  Groceries ")
		testutil.AssertNoError(t, err)

		if cat.ID == "" {
			t.Fatal("expected category ID")
		}
		if cat.Name != "Groceries" {
			t.Errorf("expected name Groceries, got %s", cat.Name)
		}
		if cat.UserID != user.ID {
			t.Errorf("expected owner %s, got %s", user.ID, cat.UserID)
		}
		if names := rec.Names(); len(names) != 1 || names[0] != notifier.CategoryCreated {
			t.Errorf("expected categoryCreated, got %v", names)
		}
	})

	t.Run("duplicate_name_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)
		ctx := context.Background()

		first, err := svc.CreateCategory(ctx, user.ID, "Food")
		testutil.AssertNoError(t, err)
		second, err := svc.CreateCategory(ctx, user.ID, "Food")
		testutil.AssertNoError(t, err)

		if first.ID == second.ID {
			t.Error("expected distinct categories")
		}
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(context.Background(), user.ID, "   ")
		testutil.AssertViolations(t, err, "name")
	})
}

func TestGetUserCategories(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db, nil)
	alice := testutil.CreateTestUser(t, db)
	bob := testutil.CreateTestUser(t, db)

	testutil.CreateTestCategory(t, db, alice.ID)
	testutil.CreateTestCategory(t, db, alice.ID)
	testutil.CreateTestCategory(t, db, bob.ID)

	cats, err := svc.GetUserCategories(context.Background(), alice.ID)
	testutil.AssertNoError(t, err)

	if len(cats) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(cats))
	}
	for _, c := range cats {
		if c.UserID != alice.ID {
			t.Errorf("leaked category of %s", c.UserID)
		}
	}
}

func TestGetCategoryByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db, nil)
	alice := testutil.CreateTestUser(t, db)
	bob := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, alice.ID)
	ctx := context.Background()

	got, err := svc.GetCategoryByID(ctx, alice.ID, cat.ID)
	testutil.AssertNoError(t, err)
	if got.Name != cat.Name {
		t.Errorf("expected %s, got %s", cat.Name, got.Name)
	}

	_, err = svc.GetCategoryByID(ctx, bob.ID, cat.ID)
	testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
}

func TestUpdateCategory(t *testing.T) {
	t.Run("rename", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		rec := &testutil.Recorder{}
		svc := NewCategoryService(db, rec)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID)

		updated, err := svc.UpdateCategory(context.Background(), user.ID, cat.ID, "Renamed")
		testutil.AssertNoError(t, err)

		if updated.Name != "Renamed" {
			t.Errorf("expected Renamed, got %s", updated.Name)
		}
		if names := rec.Names(); len(names) != 1 || names[0] != notifier.CategoryUpdated {
			t.Errorf("expected categoryUpdated, got %v", names)
		}
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		rec := &testutil.Recorder{}
		svc := NewCategoryService(db, rec)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID)

		_, err := svc.UpdateCategory(context.Background(), user.ID, cat.ID, "")
		testutil.AssertViolations(t, err, "name")
		if len(rec.Events()) != 0 {
			t.Error("expected no events for rejected input")
		}
	})

	t.Run("other_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db, nil)
		alice := testutil.CreateTestUser(t, db)
		bob := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, alice.ID)

		_, err := svc.UpdateCategory(context.Background(), bob.ID, cat.ID, "Mine now")
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestDeleteCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	rec := &testutil.Recorder{}
	svc := NewCategoryService(db, rec)
	alice := testutil.CreateTestUser(t, db)
	bob := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, alice.ID)
	ctx := context.Background()

	testutil.AssertAppError(t, svc.DeleteCategory(ctx, bob.ID, cat.ID), "CATEGORY_NOT_FOUND")
	testutil.AssertNoError(t, svc.DeleteCategory(ctx, alice.ID, cat.ID))
	testutil.AssertAppError(t, svc.DeleteCategory(ctx, alice.ID, cat.ID), "CATEGORY_NOT_FOUND")

	if names := rec.Names(); len(names) != 1 || names[0] != notifier.CategoryDeleted {
		t.Errorf("expected a single categoryDeleted, got %v", names)
	}
}
