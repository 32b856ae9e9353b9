package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/wolfeidau/location/internal/models"
	"github.com/wolfeidau/location/internal/store"
)

var _ store.SiteProfileStore = (*SiteProfileStore)(nil)

// Coordinates are read back as text so no precision is lost on the way
// into decimal.Decimal.
const siteProfileColumns = `
	uuid, name, profiletype_id,
	address_line1, address_line2, address_line3, address_line4,
	postcode, city, country,
	administrative_level1, administrative_level2, administrative_level3, administrative_level4,
	latitude::text, longitude::text, notes,
	organization_uuid, create_date, edit_date, workflowlevel2_uuid`

var siteProfileOrderColumns = columnMap(store.SiteProfileOrderFields, map[string]string{
	"profiletype": "profiletype_id",
})

// SiteProfileStore implements store.SiteProfileStore using PostgreSQL.
type SiteProfileStore struct {
	pool *pgxpool.Pool
}

// NewSiteProfileStore creates a new PostgreSQL-backed site profile store.
func NewSiteProfileStore(pool *pgxpool.Pool) *SiteProfileStore {
	return &SiteProfileStore{pool: pool}
}

// Create inserts a SiteProfile and fills in its timestamps.
func (s *SiteProfileStore) Create(ctx context.Context, sp *models.SiteProfile) error {
	if err := sp.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidRecord, err)
	}

	query := `
		INSERT INTO site_profiles (
			uuid, name, profiletype_id,
			address_line1, address_line2, address_line3, address_line4,
			postcode, city, country,
			administrative_level1, administrative_level2, administrative_level3, administrative_level4,
			latitude, longitude, notes,
			organization_uuid, workflowlevel2_uuid
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7,
			$8, $9, $10,
			$11, $12, $13, $14,
			$15::numeric, $16::numeric, $17,
			$18, $19
		)
		RETURNING create_date, edit_date
	`

	err := s.pool.QueryRow(ctx, query,
		sp.UUID,
		sp.Name,
		sp.ProfileTypeID,
		sp.AddressLine1,
		sp.AddressLine2,
		sp.AddressLine3,
		sp.AddressLine4,
		sp.Postcode,
		sp.City,
		sp.Country,
		sp.AdministrativeLevel1,
		sp.AdministrativeLevel2,
		sp.AdministrativeLevel3,
		sp.AdministrativeLevel4,
		sp.Latitude.String(),
		sp.Longitude.String(),
		sp.Notes,
		sp.OrganizationUUID,
		sp.Workflowlevel2UUID,
	).Scan(&sp.CreateDate, &sp.EditDate)
	if err != nil {
		return fmt.Errorf("failed to create site profile: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("uuid", sp.UUID.String()).
		Str("organization_uuid", sp.OrganizationUUID.String()).
		Msg("Created site profile")

	return nil
}

// Get retrieves a SiteProfile by UUID.
func (s *SiteProfileStore) Get(ctx context.Context, id uuid.UUID) (*models.SiteProfile, error) {
	query := `SELECT ` + siteProfileColumns + ` FROM site_profiles WHERE uuid = $1`

	sp, err := scanSiteProfile(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSiteProfileNotFound
		}
		return nil, fmt.Errorf("failed to get site profile: %w", err)
	}

	return sp, nil
}

// Update persists every mutable column and refreshes edit_date.
func (s *SiteProfileStore) Update(ctx context.Context, sp *models.SiteProfile) error {
	if err := sp.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidRecord, err)
	}

	query := `
		UPDATE site_profiles SET
			name = $2,
			profiletype_id = $3,
			address_line1 = $4,
			address_line2 = $5,
			address_line3 = $6,
			address_line4 = $7,
			postcode = $8,
			city = $9,
			country = $10,
			administrative_level1 = $11,
			administrative_level2 = $12,
			administrative_level3 = $13,
			administrative_level4 = $14,
			latitude = $15::numeric,
			longitude = $16::numeric,
			notes = $17,
			organization_uuid = $18,
			workflowlevel2_uuid = $19,
			edit_date = now()
		WHERE uuid = $1
		RETURNING create_date, edit_date
	`

	err := s.pool.QueryRow(ctx, query,
		sp.UUID,
		sp.Name,
		sp.ProfileTypeID,
		sp.AddressLine1,
		sp.AddressLine2,
		sp.AddressLine3,
		sp.AddressLine4,
		sp.Postcode,
		sp.City,
		sp.Country,
		sp.AdministrativeLevel1,
		sp.AdministrativeLevel2,
		sp.AdministrativeLevel3,
		sp.AdministrativeLevel4,
		sp.Latitude.String(),
		sp.Longitude.String(),
		sp.Notes,
		sp.OrganizationUUID,
		sp.Workflowlevel2UUID,
	).Scan(&sp.CreateDate, &sp.EditDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrSiteProfileNotFound
		}
		return fmt.Errorf("failed to update site profile: %w", mapPostgresError(err))
	}

	log.Debug().Str("uuid", sp.UUID.String()).Msg("Updated site profile")

	return nil
}

// Delete removes a SiteProfile by UUID.
func (s *SiteProfileStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM site_profiles WHERE uuid = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete site profile: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrSiteProfileNotFound
	}

	log.Debug().Str("uuid", id.String()).Msg("Deleted site profile")

	return nil
}

// List returns one page of SiteProfiles and the total match count.
func (s *SiteProfileStore) List(ctx context.Context, q store.SiteProfileQuery) ([]*models.SiteProfile, int, error) {
	if q.None {
		return []*models.SiteProfile{}, 0, nil
	}

	var b queryBuilder
	b.where("organization_uuid = " + b.arg(q.OrganizationUUID))

	if q.ProfileTypeID != nil {
		b.where("profiletype_id = " + b.arg(*q.ProfileTypeID))
	}
	if len(q.UUIDs) > 0 {
		ids := make([]string, 0, len(q.UUIDs))
		for _, id := range q.UUIDs {
			ids = append(ids, id.String())
		}
		b.where("uuid = ANY(" + b.arg(ids) + "::uuid[])")
	}
	if len(q.Workflowlevel2UUIDs) > 0 {
		matches := make([]string, 0, len(q.Workflowlevel2UUIDs))
		for _, id := range q.Workflowlevel2UUIDs {
			matches = append(matches, "workflowlevel2_uuid @> ARRAY["+b.arg(id)+"]::varchar[]")
		}
		b.where("(" + strings.Join(matches, " OR ") + ")")
	}
	for _, term := range q.Search {
		p := b.arg(likePattern(term))
		b.where("(address_line1 ILIKE " + p + " OR postcode ILIKE " + p + " OR city ILIKE " + p + ")")
	}

	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM site_profiles`+b.whereSQL(), b.args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("failed to count site profiles: %w", mapPostgresError(err))
	}

	query := `SELECT ` + siteProfileColumns + ` FROM site_profiles` +
		b.whereSQL() +
		orderSQL(q.Ordering, siteProfileOrderColumns, "uuid") +
		b.pageSQL(q.Limit, q.Offset)

	rows, err := s.pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list site profiles: %w", mapPostgresError(err))
	}
	defer rows.Close()

	items := make([]*models.SiteProfile, 0)
	for rows.Next() {
		sp, err := scanSiteProfile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan site profile: %w", err)
		}
		items = append(items, sp)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating site profiles: %w", err)
	}

	return items, count, nil
}

func scanSiteProfile(row pgx.Row) (*models.SiteProfile, error) {
	var (
		sp                  models.SiteProfile
		latitude, longitude string
		err                 error
	)

	err = row.Scan(
		&sp.UUID,
		&sp.Name,
		&sp.ProfileTypeID,
		&sp.AddressLine1,
		&sp.AddressLine2,
		&sp.AddressLine3,
		&sp.AddressLine4,
		&sp.Postcode,
		&sp.City,
		&sp.Country,
		&sp.AdministrativeLevel1,
		&sp.AdministrativeLevel2,
		&sp.AdministrativeLevel3,
		&sp.AdministrativeLevel4,
		&latitude,
		&longitude,
		&sp.Notes,
		&sp.OrganizationUUID,
		&sp.CreateDate,
		&sp.EditDate,
		&sp.Workflowlevel2UUID,
	)
	if err != nil {
		return nil, err
	}

	if sp.Latitude, err = decimal.NewFromString(latitude); err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", latitude, err)
	}
	if sp.Longitude, err = decimal.NewFromString(longitude); err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", longitude, err)
	}

	return &sp, nil
}
