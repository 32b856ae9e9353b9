package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/location/internal/models"
	"github.com/wolfeidau/location/internal/store"
)

var _ store.ProfileTypeStore = (*ProfileTypeStore)(nil)

const profileTypeColumns = `id, name, organization_uuid, is_global, create_date, edit_date`

var profileTypeOrderColumns = columnMap(store.ProfileTypeOrderFields, nil)

// ProfileTypeStore implements store.ProfileTypeStore using PostgreSQL.
type ProfileTypeStore struct {
	pool *pgxpool.Pool
}

// NewProfileTypeStore creates a new PostgreSQL-backed profile type store.
func NewProfileTypeStore(pool *pgxpool.Pool) *ProfileTypeStore {
	return &ProfileTypeStore{pool: pool}
}

// Create inserts a ProfileType and fills in its ID and timestamps.
func (s *ProfileTypeStore) Create(ctx context.Context, pt *models.ProfileType) error {
	if err := pt.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidRecord, err)
	}

	query := `
		INSERT INTO profile_types (name, organization_uuid, is_global)
		VALUES ($1, $2, $3)
		RETURNING id, create_date, edit_date
	`

	err := s.pool.QueryRow(ctx, query, pt.Name, pt.OrganizationUUID, pt.IsGlobal).
		Scan(&pt.ID, &pt.CreateDate, &pt.EditDate)
	if err != nil {
		return fmt.Errorf("failed to create profile type: %w", mapPostgresError(err))
	}

	log.Debug().
		Int64("id", pt.ID).
		Str("organization_uuid", pt.OrganizationUUID.String()).
		Msg("Created profile type")

	return nil
}

// Get retrieves a ProfileType by ID.
func (s *ProfileTypeStore) Get(ctx context.Context, id int64) (*models.ProfileType, error) {
	query := `SELECT ` + profileTypeColumns + ` FROM profile_types WHERE id = $1`

	pt, err := scanProfileType(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrProfileTypeNotFound
		}
		return nil, fmt.Errorf("failed to get profile type: %w", err)
	}

	return pt, nil
}

// Update persists name, owner and global flag and refreshes edit_date.
func (s *ProfileTypeStore) Update(ctx context.Context, pt *models.ProfileType) error {
	if err := pt.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidRecord, err)
	}

	query := `
		UPDATE profile_types SET
			name = $2,
			organization_uuid = $3,
			is_global = $4,
			edit_date = now()
		WHERE id = $1
		RETURNING create_date, edit_date
	`

	err := s.pool.QueryRow(ctx, query, pt.ID, pt.Name, pt.OrganizationUUID, pt.IsGlobal).
		Scan(&pt.CreateDate, &pt.EditDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrProfileTypeNotFound
		}
		return fmt.Errorf("failed to update profile type: %w", mapPostgresError(err))
	}

	log.Debug().Int64("id", pt.ID).Msg("Updated profile type")

	return nil
}

// Delete removes a ProfileType. Site profiles referencing it are removed
// by the FK constraint.
func (s *ProfileTypeStore) Delete(ctx context.Context, id int64) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM profile_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile type: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrProfileTypeNotFound
	}

	log.Info().Int64("id", id).Msg("Deleted profile type (and cascade-deleted its site profiles)")

	return nil
}

// List returns one page of ProfileTypes and the total match count.
func (s *ProfileTypeStore) List(ctx context.Context, q store.ProfileTypeQuery) ([]*models.ProfileType, int, error) {
	if q.None {
		return []*models.ProfileType{}, 0, nil
	}

	var b queryBuilder
	switch {
	case q.GlobalOnly:
		b.where("is_global")
	case q.IncludeGlobal:
		b.where("(organization_uuid = " + b.arg(q.OrganizationUUID) + " OR is_global)")
	default:
		b.where("organization_uuid = " + b.arg(q.OrganizationUUID))
	}

	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM profile_types`+b.whereSQL(), b.args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("failed to count profile types: %w", mapPostgresError(err))
	}

	query := `SELECT ` + profileTypeColumns + ` FROM profile_types` +
		b.whereSQL() +
		orderSQL(q.Ordering, profileTypeOrderColumns, "id") +
		b.pageSQL(q.Limit, q.Offset)

	rows, err := s.pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list profile types: %w", mapPostgresError(err))
	}
	defer rows.Close()

	items := make([]*models.ProfileType, 0)
	for rows.Next() {
		pt, err := scanProfileType(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan profile type: %w", err)
		}
		items = append(items, pt)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating profile types: %w", err)
	}

	return items, count, nil
}

func scanProfileType(row pgx.Row) (*models.ProfileType, error) {
	var pt models.ProfileType
	err := row.Scan(
		&pt.ID,
		&pt.Name,
		&pt.OrganizationUUID,
		&pt.IsGlobal,
		&pt.CreateDate,
		&pt.EditDate,
	)
	if err != nil {
		return nil, err
	}
	return &pt, nil
}
