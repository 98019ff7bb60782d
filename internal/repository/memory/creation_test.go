package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"plume/internal/domain"
	"plume/internal/domain/models"
)

func seed(t *testing.T, r *CreationRepository, author string, status models.Status) *models.Creation {
	t.Helper()
	body := "vers"
	c := &models.Creation{
		AuthorID:   author,
		AuthorName: author,
		Kind:       models.KindText,
		Title:      "Poème",
		Body:       &body,
		Status:     status,
	}
	if err := r.Create(context.Background(), c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return c
}

func TestCreationRepository_ToggleLikeIsInvolution(t *testing.T) {
	ctx := context.Background()
	r := NewCreationRepository()
	c := seed(t, r, "alice", models.StatusPublished)

	first, err := r.ToggleLike(ctx, c.ID, "bob")
	if err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if first.LikeCount != 1 || !first.Liked {
		t.Errorf("after first toggle: %+v", first)
	}

	second, _ := r.ToggleLike(ctx, c.ID, "bob")
	if second.LikeCount != 0 || second.Liked {
		t.Errorf("after second toggle: %+v", second)
	}

	got, _ := r.Get(ctx, c.ID)
	if got.LikeCount != len(got.LikedBy) {
		t.Errorf("like_count %d != |liked_by| %d", got.LikeCount, len(got.LikedBy))
	}
}

func TestCreationRepository_ConcurrentLikes(t *testing.T) {
	ctx := context.Background()
	r := NewCreationRepository()
	c := seed(t, r, "alice", models.StatusPublished)

	users := make([]string, 50)
	for i := range users {
		users[i] = fmt.Sprintf("user-%d", i)
	}

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			if _, err := r.ToggleLike(ctx, c.ID, u); err != nil {
				t.Errorf("ToggleLike(%s): %v", u, err)
			}
		}(u)
	}
	wg.Wait()

	got, _ := r.Get(ctx, c.ID)
	if got.LikeCount != len(users) || len(got.LikedBy) != len(users) {
		t.Errorf("like_count=%d liked_by=%d, want %d", got.LikeCount, len(got.LikedBy), len(users))
	}
}

func TestCreationRepository_ConcurrentComments(t *testing.T) {
	ctx := context.Background()
	r := NewCreationRepository()
	c := seed(t, r, "alice", models.StatusPublished)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.AppendComment(ctx, c.ID, "bob", models.Comment{AuthorID: "bob", Text: fmt.Sprintf("c%d", i)})
			if err != nil {
				t.Errorf("AppendComment: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := r.Get(ctx, c.ID)
	if len(got.Comments) != 20 {
		t.Errorf("comments = %d, want 20", len(got.Comments))
	}
}

func TestCreationRepository_Visibility(t *testing.T) {
	ctx := context.Background()
	r := NewCreationRepository()
	draft := seed(t, r, "alice", models.StatusDraft)

	if _, err := r.ToggleLike(ctx, draft.ID, "bob"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("like on someone else's draft: expected ErrForbidden, got %v", err)
	}
	if _, err := r.ToggleLike(ctx, draft.ID, "alice"); err != nil {
		t.Errorf("author liking own draft: %v", err)
	}
	if _, err := r.AppendComment(ctx, "missing", "bob", models.Comment{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreationRepository_ListOrdering(t *testing.T) {
	ctx := context.Background()
	r := NewCreationRepository()
	seed(t, r, "alice", models.StatusPublished)
	seed(t, r, "alice", models.StatusDraft)
	seed(t, r, "bob", models.StatusPublished)

	mine, _ := r.ListByAuthor(ctx, "alice")
	if len(mine) != 2 {
		t.Fatalf("alice has %d creations, want 2", len(mine))
	}
	if mine[0].CreatedAt.Before(mine[1].CreatedAt) {
		t.Errorf("not newest first: %v then %v", mine[0].CreatedAt, mine[1].CreatedAt)
	}

	published, _ := r.ListPublished(ctx)
	if len(published) != 2 {
		t.Errorf("published = %d, want 2", len(published))
	}
}

func TestTransactionManager_RollsBackDelete(t *testing.T) {
	ctx := context.Background()
	r := NewCreationRepository()
	tm := NewTransactionManager()
	c := seed(t, r, "alice", models.StatusDraft)

	boom := errors.New("blob delete failed")
	err := tm.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := r.Delete(txCtx, c.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ExecTx error = %v", err)
	}

	if _, err := r.Get(ctx, c.ID); err != nil {
		t.Errorf("creation should be restored: %v", err)
	}
}

func TestCreationRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewCreationRepository()
	c := seed(t, r, "alice", models.StatusPublished)

	got, _ := r.Get(ctx, c.ID)
	got.LikedBy = append(got.LikedBy, "mallory")
	got.LikeCount = 99

	again, _ := r.Get(ctx, c.ID)
	if again.LikeCount != 0 || len(again.LikedBy) != 0 {
		t.Errorf("stored creation mutated through returned copy: %+v", again)
	}
}
