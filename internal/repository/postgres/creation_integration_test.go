package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"plume/internal/domain"
	"plume/internal/domain/models"
)

// newTestRepos connects to TEST_DATABASE_URL and creates a throwaway
// schema under a unique prefix. Skipped when the variable is unset.
func newTestRepos(t *testing.T) (*PostgresCreationRepository, *PostgresUserPreferencesRepository) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := CreateConnectionPool(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	tables := NewTableNames(fmt.Sprintf("it%d_", time.Now().UnixNano()))
	if err := EnsureSchema(ctx, pool, tables); err != nil {
		pool.Close()
		t.Fatalf("EnsureSchema: %v", err)
	}
	t.Cleanup(func() {
		if err := DropTables(context.Background(), pool, tables); err != nil {
			t.Logf("drop tables: %v", err)
		}
		pool.Close()
	})

	cfg := &RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return NewCreationRepository(cfg).(*PostgresCreationRepository),
		NewUserPreferencesRepository(cfg).(*PostgresUserPreferencesRepository)
}

func createPublished(t *testing.T, repo *PostgresCreationRepository, author string) *models.Creation {
	t.Helper()
	ctx := context.Background()
	body := "Le jour se lève"
	c := &models.Creation{
		AuthorID:   author,
		AuthorName: author,
		Kind:       models.KindText,
		Title:      "Aube",
		Body:       &body,
		Status:     models.StatusDraft,
	}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	published := models.StatusPublished
	if _, err := repo.Update(ctx, c.ID, &models.CreationPatch{Status: &published}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	return c
}

func TestCreationRepository_ToggleLikeConcurrentUsers(t *testing.T) {
	repo, _ := newTestRepos(t)
	ctx := context.Background()
	c := createPublished(t, repo, "alice")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, user := range []string{"bob", "carol"} {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			if _, err := repo.ToggleLike(ctx, c.ID, user); err != nil {
				errs <- err
			}
		}(user)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("ToggleLike: %v", err)
	}

	got, err := repo.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LikeCount != 2 {
		t.Errorf("like_count = %d, want 2", got.LikeCount)
	}
	if diff := cmp.Diff([]string{"bob", "carol"}, got.LikedBy, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Errorf("liked_by mismatch (-want +got):\n%s", diff)
	}

	// Toggling twice is an involution
	state, err := repo.ToggleLike(ctx, c.ID, "bob")
	if err != nil || state.Liked || state.LikeCount != 1 {
		t.Fatalf("unlike = %+v, %v", state, err)
	}
	state, err = repo.ToggleLike(ctx, c.ID, "bob")
	if err != nil || !state.Liked || state.LikeCount != 2 {
		t.Fatalf("relike = %+v, %v", state, err)
	}
}

func TestCreationRepository_ToggleLikeVisibility(t *testing.T) {
	repo, _ := newTestRepos(t)
	ctx := context.Background()
	body := "brouillon"
	draft := &models.Creation{AuthorID: "alice", AuthorName: "Alice", Kind: models.KindText, Title: "t", Body: &body, Status: models.StatusDraft}
	if err := repo.Create(ctx, draft); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.ToggleLike(ctx, draft.ID, "bob"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("like on another user's draft: expected ErrForbidden, got %v", err)
	}
	if _, err := repo.ToggleLike(ctx, "00000000-0000-0000-0000-000000000000", "bob"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing creation: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.ToggleLike(ctx, "not-a-uuid", "bob"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("malformed id: expected ErrNotFound, got %v", err)
	}
}

func TestCreationRepository_AppendCommentConcurrent(t *testing.T) {
	repo, _ := newTestRepos(t)
	ctx := context.Background()
	c := createPublished(t, repo, "alice")

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i)
			comment := models.Comment{AuthorID: user, AuthorName: user, Text: fmt.Sprintf("bravo %d", i), CreatedAt: time.Now().UTC()}
			if _, err := repo.AppendComment(ctx, c.ID, user, comment); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("AppendComment: %v", err)
	}

	got, err := repo.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Comments) != writers {
		t.Fatalf("comments = %d, want %d", len(got.Comments), writers)
	}
	seen := make(map[string]bool)
	for _, cm := range got.Comments {
		seen[cm.Text] = true
	}
	if len(seen) != writers {
		t.Errorf("distinct comments = %d, want %d", len(seen), writers)
	}
}

func TestUserPreferencesRepository_MergeNamespacesConcurrent(t *testing.T) {
	_, prefs := newTestRepos(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, patch := range []models.JSONMap{
		{"profile": map[string]interface{}{"artist_name": "Ali"}},
		{"tour": map[string]interface{}{"step": 2}},
	} {
		wg.Add(1)
		go func(patch models.JSONMap) {
			defer wg.Done()
			if _, err := prefs.MergeNamespaces(ctx, "alice", patch); err != nil {
				t.Errorf("MergeNamespaces: %v", err)
			}
		}(patch)
	}
	wg.Wait()

	got, err := prefs.GetByUserID(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	for _, ns := range []string{"profile", "tour"} {
		if _, ok := got.Preferences[ns]; !ok {
			t.Errorf("namespace %q lost: %v", ns, got.Preferences)
		}
	}
}
