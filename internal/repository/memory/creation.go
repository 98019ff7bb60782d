package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"plume/internal/domain"
	"plume/internal/domain/models"
	"plume/internal/domain/repositories"
)

// CreationRepository is an in-process document store. A single mutex
// serialises writes, which gives ToggleLike and AppendComment the same
// atomicity as the conditional SQL statements.
type CreationRepository struct {
	mu        sync.RWMutex
	creations map[string]*models.Creation
	now       func() time.Time
}

// NewCreationRepository creates an empty store.
func NewCreationRepository() *CreationRepository {
	return &CreationRepository{
		creations: make(map[string]*models.Creation),
		now:       time.Now,
	}
}

var _ repositories.CreationRepository = (*CreationRepository)(nil)

func (r *CreationRepository) Create(ctx context.Context, c *models.Creation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	c.ID = uuid.NewString()
	c.LikeCount = 0
	c.LikedBy = []string{}
	c.Comments = []models.Comment{}
	c.CreatedAt = now
	c.UpdatedAt = now
	r.creations[c.ID] = clone(c)

	id := c.ID
	onRollback(ctx, func() {
		r.mu.Lock()
		delete(r.creations, id)
		r.mu.Unlock()
	})
	return nil
}

func (r *CreationRepository) Get(ctx context.Context, id string) (*models.Creation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.creations[id]
	if !ok {
		return nil, notFound(id)
	}
	return clone(c), nil
}

func (r *CreationRepository) Update(ctx context.Context, id string, patch *models.CreationPatch) (*models.Creation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.creations[id]
	if !ok {
		return nil, notFound(id)
	}
	before := clone(c)

	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Body != nil {
		body := *patch.Body
		c.Body = &body
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	if patch.AudioRef != nil {
		ref := *patch.AudioRef
		c.AudioRef = &ref
	}
	c.UpdatedAt = r.now().UTC()

	onRollback(ctx, func() {
		r.mu.Lock()
		r.creations[id] = before
		r.mu.Unlock()
	})
	return clone(c), nil
}

func (r *CreationRepository) Delete(ctx context.Context, id string) (*models.Creation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.creations[id]
	if !ok {
		return nil, notFound(id)
	}
	delete(r.creations, id)

	onRollback(ctx, func() {
		r.mu.Lock()
		r.creations[id] = c
		r.mu.Unlock()
	})
	return clone(c), nil
}

func (r *CreationRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.Creation, error) {
	return r.list(func(c *models.Creation) bool { return c.AuthorID == authorID }), nil
}

func (r *CreationRepository) ListPublished(ctx context.Context) ([]models.Creation, error) {
	return r.list(func(c *models.Creation) bool { return c.IsPublished() }), nil
}

func (r *CreationRepository) ToggleLike(ctx context.Context, id, userID string) (*models.LikeState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.visibleLocked(id, userID)
	if err != nil {
		return nil, err
	}

	if i := slices.Index(c.LikedBy, userID); i >= 0 {
		c.LikedBy = slices.Delete(c.LikedBy, i, i+1)
		c.LikeCount--
	} else {
		c.LikedBy = append(c.LikedBy, userID)
		c.LikeCount++
	}
	c.UpdatedAt = r.now().UTC()

	return &models.LikeState{
		CreationID: id,
		LikeCount:  c.LikeCount,
		Liked:      c.LikedByUser(userID),
	}, nil
}

func (r *CreationRepository) AppendComment(ctx context.Context, id, userID string, comment models.Comment) (*models.Creation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.visibleLocked(id, userID)
	if err != nil {
		return nil, err
	}
	c.Comments = append(c.Comments, comment)
	c.UpdatedAt = r.now().UTC()
	return clone(c), nil
}

func (r *CreationRepository) visibleLocked(id, userID string) (*models.Creation, error) {
	c, ok := r.creations[id]
	if !ok {
		return nil, notFound(id)
	}
	if !c.VisibleTo(userID) {
		return nil, &domain.ForbiddenError{Message: "creation is not published"}
	}
	return c, nil
}

// list returns matches newest first.
func (r *CreationRepository) list(match func(*models.Creation) bool) []models.Creation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Creation{}
	for _, c := range r.creations {
		if match(c) {
			out = append(out, *clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func notFound(id string) error {
	return &domain.NotFoundError{Message: fmt.Sprintf("creation %s not found", id)}
}

func clone(c *models.Creation) *models.Creation {
	cp := *c
	cp.LikedBy = slices.Clone(c.LikedBy)
	cp.Comments = slices.Clone(c.Comments)
	if cp.LikedBy == nil {
		cp.LikedBy = []string{}
	}
	if cp.Comments == nil {
		cp.Comments = []models.Comment{}
	}
	if c.Body != nil {
		body := *c.Body
		cp.Body = &body
	}
	if c.AudioRef != nil {
		ref := *c.AudioRef
		cp.AudioRef = &ref
	}
	return &cp
}
