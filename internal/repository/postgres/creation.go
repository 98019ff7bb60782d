package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"plume/internal/domain"
	"plume/internal/domain/models"
	"plume/internal/domain/repositories"
)

const creationColumns = `id::text, author_id, author_name, kind, title, body, audio_ref,
	status, like_count, liked_by, comments, created_at, updated_at`

// PostgresCreationRepository implements CreationRepository
type PostgresCreationRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewCreationRepository creates a new PostgresCreationRepository
func NewCreationRepository(config *RepositoryConfig) repositories.CreationRepository {
	return &PostgresCreationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func (r *PostgresCreationRepository) Create(ctx context.Context, c *models.Creation) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (author_id, author_name, kind, title, body, audio_ref, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s
	`, r.tables.Creations, creationColumns)

	executor := GetExecutor(ctx, r.pool)
	row := executor.QueryRow(ctx, query,
		c.AuthorID,
		c.AuthorName,
		string(c.Kind),
		c.Title,
		c.Body,
		c.AudioRef,
		string(c.Status),
	)
	if err := scanCreation(row, c); err != nil {
		return wrapErr("create creation", err)
	}
	return nil
}

func (r *PostgresCreationRepository) Get(ctx context.Context, id string) (*models.Creation, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, creationColumns, r.tables.Creations)

	var c models.Creation
	executor := GetExecutor(ctx, r.pool)
	if err := scanCreation(executor.QueryRow(ctx, query, id), &c); err != nil {
		return nil, r.mapNotFound(err, id, "get creation")
	}
	return &c, nil
}

func (r *PostgresCreationRepository) Update(ctx context.Context, id string, patch *models.CreationPatch) (*models.Creation, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET
			title      = COALESCE($2, title),
			body       = COALESCE($3, body),
			status     = COALESCE($4, status),
			audio_ref  = COALESCE($5, audio_ref),
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, r.tables.Creations, creationColumns)

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	var c models.Creation
	executor := GetExecutor(ctx, r.pool)
	row := executor.QueryRow(ctx, query, id, patch.Title, patch.Body, status, patch.AudioRef)
	if err := scanCreation(row, &c); err != nil {
		return nil, r.mapNotFound(err, id, "update creation")
	}
	return &c, nil
}

func (r *PostgresCreationRepository) Delete(ctx context.Context, id string) (*models.Creation, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 RETURNING %s`, r.tables.Creations, creationColumns)

	var c models.Creation
	executor := GetExecutor(ctx, r.pool)
	if err := scanCreation(executor.QueryRow(ctx, query, id), &c); err != nil {
		return nil, r.mapNotFound(err, id, "delete creation")
	}
	return &c, nil
}

func (r *PostgresCreationRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.Creation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE author_id = $1
		ORDER BY created_at DESC, id DESC
	`, creationColumns, r.tables.Creations)

	return r.list(ctx, query, authorID)
}

func (r *PostgresCreationRepository) ListPublished(ctx context.Context) ([]models.Creation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE status = 'published'
		ORDER BY created_at DESC, id DESC
	`, creationColumns, r.tables.Creations)

	return r.list(ctx, query)
}

// ToggleLike flips membership and adjusts the counter in a single statement.
// SET expressions see the pre-update row, RETURNING sees the new one.
func (r *PostgresCreationRepository) ToggleLike(ctx context.Context, id, userID string) (*models.LikeState, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET
			liked_by = CASE WHEN $2::text = ANY(liked_by)
				THEN array_remove(liked_by, $2::text)
				ELSE array_append(liked_by, $2::text) END,
			like_count = CASE WHEN $2::text = ANY(liked_by)
				THEN like_count - 1
				ELSE like_count + 1 END,
			updated_at = NOW()
		WHERE id = $1 AND (status = 'published' OR author_id = $2::text)
		RETURNING like_count, $2::text = ANY(liked_by)
	`, r.tables.Creations)

	state := models.LikeState{CreationID: id}
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(&state.LikeCount, &state.Liked)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, r.explainMiss(ctx, id)
		}
		if IsPgInvalidTextError(err) {
			return nil, notFound(id)
		}
		return nil, wrapErr("toggle like", err)
	}
	return &state, nil
}

// AppendComment appends with jsonb concatenation so concurrent comments never overwrite each other.
func (r *PostgresCreationRepository) AppendComment(ctx context.Context, id, userID string, comment models.Comment) (*models.Creation, error) {
	payload, err := json.Marshal(comment)
	if err != nil {
		return nil, fmt.Errorf("encode comment: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET
			comments   = comments || jsonb_build_array($3::jsonb),
			updated_at = NOW()
		WHERE id = $1 AND (status = 'published' OR author_id = $2::text)
		RETURNING %s
	`, r.tables.Creations, creationColumns)

	var c models.Creation
	executor := GetExecutor(ctx, r.pool)
	err = scanCreation(executor.QueryRow(ctx, query, id, userID, string(payload)), &c)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, r.explainMiss(ctx, id)
		}
		if IsPgInvalidTextError(err) {
			return nil, notFound(id)
		}
		return nil, wrapErr("append comment", err)
	}
	return &c, nil
}

// explainMiss distinguishes a missing creation from one the caller cannot see.
func (r *PostgresCreationRepository) explainMiss(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return &domain.ForbiddenError{Message: "creation is not published"}
}

func (r *PostgresCreationRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Creation, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list creations", err)
	}
	defer rows.Close()

	creations := []models.Creation{}
	for rows.Next() {
		var c models.Creation
		if err := scanCreation(rows, &c); err != nil {
			return nil, fmt.Errorf("scan creation: %w", err)
		}
		creations = append(creations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate creations", err)
	}
	return creations, nil
}

func (r *PostgresCreationRepository) mapNotFound(err error, id, op string) error {
	if IsPgNoRowsError(err) || IsPgInvalidTextError(err) {
		return notFound(id)
	}
	return wrapErr(op, err)
}

func notFound(id string) error {
	return &domain.NotFoundError{Message: fmt.Sprintf("creation %s not found", id)}
}

func scanCreation(row pgx.Row, c *models.Creation) error {
	var kind, status string
	err := row.Scan(
		&c.ID,
		&c.AuthorID,
		&c.AuthorName,
		&kind,
		&c.Title,
		&c.Body,
		&c.AudioRef,
		&status,
		&c.LikeCount,
		&c.LikedBy,
		&c.Comments,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	c.Kind = models.Kind(kind)
	c.Status = models.Status(status)
	if c.LikedBy == nil {
		c.LikedBy = []string{}
	}
	if c.Comments == nil {
		c.Comments = []models.Comment{}
	}
	return nil
}
