package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/google/uuid"
)

// GetShowcase fetches a boutique's showcase. Returns sql.ErrNoRows when the
// boutique has never saved one.
func (q *Queries) GetShowcase(ctx context.Context, boutiqueID uuid.UUID) (domain.Showcase, error) {
	const query = `
		SELECT boutique_id, district, area, tags, rating, image_url, updated_at
		FROM boutique_showcase
		WHERE boutique_id = $1`
	var s domain.Showcase
	var district, area, tags, imageURL sql.NullString
	err := q.db.QueryRowContext(ctx, query, boutiqueID).Scan(
		&s.BoutiqueID, &district, &area, &tags, &s.Rating, &imageURL, &s.UpdatedAt)
	if err != nil {
		return domain.Showcase{}, err
	}
	s.District = strVal(district)
	s.Area = strVal(area)
	s.Tags = strVal(tags)
	s.ImageURL = strVal(imageURL)
	return s, nil
}

// UpsertShowcase saves the showcase fields, creating the row on first save.
// The image URL is managed separately and preserved on update.
func (q *Queries) UpsertShowcase(ctx context.Context, p domain.UpsertShowcaseParams) error {
	const query = `
		INSERT INTO boutique_showcase (boutique_id, district, area, tags, rating, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (boutique_id) DO UPDATE
		SET district = EXCLUDED.district, area = EXCLUDED.area, tags = EXCLUDED.tags,
		    rating = EXCLUDED.rating, updated_at = EXCLUDED.updated_at`
	_, err := q.db.ExecContext(ctx, query,
		p.BoutiqueID, nullStr(p.District), nullStr(p.Area), nullStr(p.Tags), p.Rating, time.Now().UTC())
	return err
}

// SetShowcaseImage stores the showcase image URL, creating the row if the
// boutique saved an image before any other showcase fields.
func (q *Queries) SetShowcaseImage(ctx context.Context, boutiqueID uuid.UUID, imageURL string) error {
	const query = `
		INSERT INTO boutique_showcase (boutique_id, rating, image_url, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (boutique_id) DO UPDATE
		SET image_url = EXCLUDED.image_url, updated_at = EXCLUDED.updated_at`
	_, err := q.db.ExecContext(ctx, query, boutiqueID, domain.DefaultShowcaseRating, imageURL, time.Now().UTC())
	return err
}

// ListShowcases returns every showcase keyed by boutique, for the public
// directory merge.
func (q *Queries) ListShowcases(ctx context.Context) (map[uuid.UUID]domain.Showcase, error) {
	const query = `SELECT boutique_id, district, area, tags, rating, image_url, updated_at FROM boutique_showcase`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	showcases := make(map[uuid.UUID]domain.Showcase)
	for rows.Next() {
		var s domain.Showcase
		var district, area, tags, imageURL sql.NullString
		if err := rows.Scan(&s.BoutiqueID, &district, &area, &tags, &s.Rating, &imageURL, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.District = strVal(district)
		s.Area = strVal(area)
		s.Tags = strVal(tags)
		s.ImageURL = strVal(imageURL)
		showcases[s.BoutiqueID] = s
	}
	return showcases, rows.Err()
}
