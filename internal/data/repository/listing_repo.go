package repository

import (
	"context"
	"fmt"
	"strings"

	"stayhub/internal/data/entity"
	"stayhub/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ListingOrderings maps accepted ordering keys to columns.
var ListingOrderings = map[string]string{
	"name":            "name",
	"location":        "location",
	"price_per_night": "price_per_night",
	"created_at":      "created_at",
}

type ListingFilter struct {
	Name     string
	Location string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	HostID   *uuid.UUID
	Search   string
	Ordering string
}

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	FindAll(ctx context.Context, filter ListingFilter, offset, limit int) ([]*entity.Listing, error)
	CountAll(ctx context.Context, filter ListingFilter) (int64, error)
	Update(ctx context.Context, listing *entity.Listing) error
	// DeleteIfUnpaid removes the listing unless one of its bookings has a
	// pending or completed payment. It reports whether a row was deleted.
	DeleteIfUnpaid(ctx context.Context, id uuid.UUID) (bool, error)
}

type listingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewListingRepository(db database.PgxIface, log *zap.Logger) ListingRepository {
	return &listingRepository{
		db:  db,
		log: log.With(zap.String("repository", "listing")),
	}
}

const listingColumns = `id, host_id, name, description, location, price_per_night, created_at, updated_at`

func scanListing(row pgx.Row) (*entity.Listing, error) {
	var listing entity.Listing
	err := row.Scan(
		&listing.ID,
		&listing.HostID,
		&listing.Name,
		&listing.Description,
		&listing.Location,
		&listing.PricePerNight,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	query := `
		INSERT INTO listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		listing.ID,
		listing.HostID,
		listing.Name,
		listing.Description,
		listing.Location,
		listing.PricePerNight,
		listing.CreatedAt,
		listing.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create listing",
			zap.Error(err),
			zap.String("name", listing.Name),
			zap.String("host_id", listing.HostID.String()),
		)
		return fmt.Errorf("create listing %s: %w", listing.Name, err)
	}

	return nil
}

func (r *listingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	listing, err := scanListing(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find listing by ID",
			zap.Error(err),
			zap.String("listing_id", id.String()),
		)
		return nil, fmt.Errorf("find listing by ID %s: %w", id, err)
	}

	return listing, nil
}

// whereListing builds the WHERE clause shared by FindAll and CountAll.
func whereListing(filter ListingFilter) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(" WHERE 1=1")
	args := []interface{}{}

	add := func(cond string, value interface{}) {
		args = append(args, value)
		sb.WriteString(fmt.Sprintf(" AND "+cond, len(args)))
	}

	if filter.Name != "" {
		add("LOWER(name) = LOWER($%d)", filter.Name)
	}
	if filter.Location != "" {
		add("LOWER(location) = LOWER($%d)", filter.Location)
	}
	if filter.MinPrice != nil {
		add("price_per_night >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		add("price_per_night <= $%d", *filter.MaxPrice)
	}
	if filter.HostID != nil {
		add("host_id = $%d", *filter.HostID)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		sb.WriteString(fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d OR location ILIKE $%d)", n, n, n))
	}

	return sb.String(), args
}

func (r *listingRepository) FindAll(ctx context.Context, filter ListingFilter, offset, limit int) ([]*entity.Listing, error) {
	where, args := whereListing(filter)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + listingColumns + ` FROM listings`)
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(orderClause(filter.Ordering, ListingOrderings, "name ASC, id ASC"))
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2))
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		r.log.Error("Failed to find listings",
			zap.Error(err),
			zap.Int("offset", offset),
			zap.Int("limit", limit),
		)
		return nil, fmt.Errorf("find listings: %w", err)
	}
	defer rows.Close()

	listings := []*entity.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			r.log.Error("Failed to scan listing row", zap.Error(err))
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, listing)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate listings: %w", err)
	}

	r.log.Debug("Listings found",
		zap.Int("count", len(listings)),
		zap.Int("offset", offset),
		zap.Int("limit", limit),
	)

	return listings, nil
}

func (r *listingRepository) CountAll(ctx context.Context, filter ListingFilter) (int64, error) {
	where, args := whereListing(filter)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM listings`+where, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count listings", zap.Error(err))
		return 0, fmt.Errorf("count listings: %w", err)
	}

	return total, nil
}

// Update never touches host_id; the host is fixed at creation.
func (r *listingRepository) Update(ctx context.Context, listing *entity.Listing) error {
	query := `
		UPDATE listings
		SET name = $2, description = $3, location = $4, price_per_night = $5, updated_at = $6
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query,
		listing.ID,
		listing.Name,
		listing.Description,
		listing.Location,
		listing.PricePerNight,
		listing.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update listing",
			zap.Error(err),
			zap.String("listing_id", listing.ID.String()),
		)
		return fmt.Errorf("update listing %s: %w", listing.ID, err)
	}

	return nil
}

func (r *listingRepository) DeleteIfUnpaid(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		DELETE FROM listings l
		WHERE l.id = $1
		  AND NOT EXISTS (
		      SELECT 1 FROM bookings b
		      JOIN payments p ON p.booking_id = b.id
		      WHERE b.property_id = l.id AND p.status IN ('pending', 'completed')
		  )
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete listing",
			zap.Error(err),
			zap.String("listing_id", id.String()),
		)
		return false, fmt.Errorf("delete listing %s: %w", id, err)
	}

	return tag.RowsAffected() == 1, nil
}
