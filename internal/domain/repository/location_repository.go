package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"geodir/internal/common"
	"geodir/internal/domain/model"
)

// LocationPatch is a partial update: nil fields are left untouched. The owner
// reference is deliberately absent, it is immutable after creation.
type LocationPatch struct {
	Name         *string
	Slug         *string
	Description  *string
	Category     *string
	Longitude    *float64
	Latitude     *float64
	Street       *string
	City         *string
	State        *string
	Country      *string
	PostalCode   *string
	Phone        *string
	ContactEmail *string
	Website      *string
	IsActive     *bool
}

// ProximityFilter selects records within RadiusMeters of the center point.
type ProximityFilter struct {
	Longitude    float64
	Latitude     float64
	RadiusMeters float64
}

// LocationFilter dimensions combine independently; the zero value lists every
// active record.
type LocationFilter struct {
	Category string
	Search   string // indexed relevance search over name and address fields
	Near     *ProximityFilter
}

type LocationRepository interface {
	Create(ctx context.Context, location *model.Location) error
	// FindByID fetches by identifier regardless of soft-delete state.
	FindByID(ctx context.Context, id string) (*model.Location, error)
	// List returns active records only, ordered by ascending distance when a
	// proximity filter is present, otherwise newest first.
	List(ctx context.Context, filter LocationFilter) ([]model.Location, error)
	// SearchSubstring is the type-ahead scan: case-insensitive substring match
	// OR-ed across name, category and address sub-fields, active records only.
	SearchSubstring(ctx context.Context, term string, limit int) ([]model.Location, error)
	// Update applies the patch as a single atomic statement and returns the
	// resulting row, avoiding read-modify-write lost updates.
	Update(ctx context.Context, id string, patch LocationPatch) (*model.Location, error)
}

type pgLocationRepository struct {
	db *sql.DB
}

func NewPgLocationRepository(db *sql.DB) LocationRepository {
	return &pgLocationRepository{db: db}
}

const locationColumns = `l.id, l.name, l.slug, l.description, l.category, l.longitude, l.latitude,
	l.street, l.city, l.state, l.country, l.postal_code,
	l.phone, l.contact_email, l.website,
	l.created_by, l.is_active, l.created_at, l.updated_at`

func scanLocationFields(l *model.Location) []interface{} {
	return []interface{}{
		&l.ID, &l.Name, &l.Slug, &l.Description, &l.Category, &l.Longitude, &l.Latitude,
		&l.Address.Street, &l.Address.City, &l.Address.State, &l.Address.Country, &l.Address.PostalCode,
		&l.Contact.Phone, &l.Contact.Email, &l.Contact.Website,
		&l.CreatedByID, &l.IsActive, &l.CreatedAt, &l.UpdatedAt,
	}
}

func (r *pgLocationRepository) Create(ctx context.Context, l *model.Location) error {
	query := `INSERT INTO locations (id, name, slug, description, category, longitude, latitude,
	            street, city, state, country, postal_code, phone, contact_email, website,
	            created_by, is_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.Name, l.Slug, l.Description, l.Category, l.Longitude, l.Latitude,
		l.Address.Street, l.Address.City, l.Address.State, l.Address.Country, l.Address.PostalCode,
		l.Contact.Phone, l.Contact.Email, l.Contact.Website,
		l.CreatedByID, l.IsActive,
	)
	if err != nil {
		return common.ClassifyStoreError("pgLocationRepository.Create", err)
	}
	return nil
}

func (r *pgLocationRepository) FindByID(ctx context.Context, id string) (*model.Location, error) {
	// No is_active filter here: single-record fetch returns soft-deleted rows.
	query := `SELECT ` + locationColumns + `, u.id, u.name, u.email
	          FROM locations l
	          LEFT JOIN users u ON l.created_by = u.id
	          WHERE l.id = $1`

	l := &model.Location{}
	var ownerID, ownerName, ownerEmail sql.NullString
	dest := append(scanLocationFields(l), &ownerID, &ownerName, &ownerEmail)
	err := r.db.QueryRowContext(ctx, query, id).Scan(dest...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.ClassifyStoreError("pgLocationRepository.FindByID", err)
	}
	if ownerID.Valid {
		l.CreatedBy = &model.UserRef{ID: ownerID.String, Name: ownerName.String, Email: ownerEmail.String}
	}
	return l, nil
}

func (r *pgLocationRepository) List(ctx context.Context, filter LocationFilter) ([]model.Location, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + locationColumns + `, u.id, u.name, u.email`)

	var args []interface{}
	argID := 1

	if filter.Near != nil {
		// Distance is computed once and reused for the predicate and ordering.
		query.WriteString(fmt.Sprintf(`,
		  earth_distance(ll_to_earth(l.latitude, l.longitude), ll_to_earth($%d, $%d)) AS distance`, argID, argID+1))
		args = append(args, filter.Near.Latitude, filter.Near.Longitude)
		argID += 2
	}

	query.WriteString(`
	  FROM locations l
	  LEFT JOIN users u ON l.created_by = u.id`)

	conditions := []string{"l.is_active = TRUE"}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("l.category = $%d", argID))
		args = append(args, filter.Category)
		argID++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			`to_tsvector('simple', l.name || ' ' || l.street || ' ' || l.city || ' ' || l.state || ' ' || l.country)
			   @@ plainto_tsquery('simple', $%d)`, argID))
		args = append(args, filter.Search)
		argID++
	}

	if filter.Near != nil {
		// earth_box narrows via the GiST index, earth_distance is exact.
		conditions = append(conditions, fmt.Sprintf(
			`earth_box(ll_to_earth($1, $2), $%d) @> ll_to_earth(l.latitude, l.longitude)
			 AND earth_distance(ll_to_earth(l.latitude, l.longitude), ll_to_earth($1, $2)) <= $%d`, argID, argID))
		args = append(args, filter.Near.RadiusMeters)
		argID++
	}

	query.WriteString(" WHERE " + strings.Join(conditions, " AND "))

	switch {
	case filter.Near != nil:
		query.WriteString(" ORDER BY distance ASC")
	case filter.Search != "":
		query.WriteString(fmt.Sprintf(
			` ORDER BY ts_rank(to_tsvector('simple', l.name || ' ' || l.street || ' ' || l.city || ' ' || l.state || ' ' || l.country),
			   plainto_tsquery('simple', $%d)) DESC, l.created_at DESC`, argID))
		args = append(args, filter.Search)
		argID++
	default:
		query.WriteString(" ORDER BY l.created_at DESC")
	}

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, common.ClassifyStoreError("pgLocationRepository.List query", err)
	}
	defer rows.Close()

	locations := []model.Location{}
	for rows.Next() {
		var l model.Location
		var ownerID, ownerName, ownerEmail sql.NullString
		dest := append(scanLocationFields(&l), &ownerID, &ownerName, &ownerEmail)
		if filter.Near != nil {
			var distance float64
			dest = append(dest, &distance)
			if err := rows.Scan(dest...); err != nil {
				return nil, fmt.Errorf("pgLocationRepository.List scan: %w", err)
			}
			l.DistanceMeters = &distance
		} else {
			if err := rows.Scan(dest...); err != nil {
				return nil, fmt.Errorf("pgLocationRepository.List scan: %w", err)
			}
		}
		if ownerID.Valid {
			l.CreatedBy = &model.UserRef{ID: ownerID.String, Name: ownerName.String, Email: ownerEmail.String}
		}
		locations = append(locations, l)
	}
	if err = rows.Err(); err != nil {
		return nil, common.ClassifyStoreError("pgLocationRepository.List rows", err)
	}
	return locations, nil
}

func (r *pgLocationRepository) SearchSubstring(ctx context.Context, term string, limit int) ([]model.Location, error) {
	query := `SELECT ` + locationColumns + `
	          FROM locations l
	          WHERE l.is_active = TRUE
	            AND (l.name ILIKE $1 OR l.category ILIKE $1
	                 OR l.street ILIKE $1 OR l.city ILIKE $1
	                 OR l.state ILIKE $1 OR l.country ILIKE $1
	                 OR l.postal_code ILIKE $1)
	          LIMIT $2`
	likeTerm := "%" + term + "%"
	rows, err := r.db.QueryContext(ctx, query, likeTerm, limit)
	if err != nil {
		return nil, common.ClassifyStoreError("pgLocationRepository.SearchSubstring query", err)
	}
	defer rows.Close()

	locations := []model.Location{}
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(scanLocationFields(&l)...); err != nil {
			return nil, fmt.Errorf("pgLocationRepository.SearchSubstring scan: %w", err)
		}
		locations = append(locations, l)
	}
	if err = rows.Err(); err != nil {
		return nil, common.ClassifyStoreError("pgLocationRepository.SearchSubstring rows", err)
	}
	return locations, nil
}

func (r *pgLocationRepository) Update(ctx context.Context, id string, patch LocationPatch) (*model.Location, error) {
	query := `UPDATE locations SET
	            name = COALESCE($1, name),
	            slug = COALESCE($2, slug),
	            description = COALESCE($3, description),
	            category = COALESCE($4, category),
	            longitude = COALESCE($5, longitude),
	            latitude = COALESCE($6, latitude),
	            street = COALESCE($7, street),
	            city = COALESCE($8, city),
	            state = COALESCE($9, state),
	            country = COALESCE($10, country),
	            postal_code = COALESCE($11, postal_code),
	            phone = COALESCE($12, phone),
	            contact_email = COALESCE($13, contact_email),
	            website = COALESCE($14, website),
	            is_active = COALESCE($15, is_active),
	            updated_at = CURRENT_TIMESTAMP
	          WHERE id = $16
	          RETURNING ` + strings.ReplaceAll(locationColumns, "l.", "")

	l := &model.Location{}
	err := r.db.QueryRowContext(ctx, query,
		patch.Name, patch.Slug, patch.Description, patch.Category, patch.Longitude, patch.Latitude,
		patch.Street, patch.City, patch.State, patch.Country, patch.PostalCode,
		patch.Phone, patch.ContactEmail, patch.Website, patch.IsActive, id,
	).Scan(scanLocationFields(l)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.ClassifyStoreError("pgLocationRepository.Update", err)
	}
	return l, nil
}
