package repository

import (
	"context"
	"fmt"
	"strings"

	"stayhub/internal/data/entity"
	"stayhub/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var BookingOrderings = map[string]string{
	"start_date":  "start_date",
	"end_date":    "end_date",
	"total_price": "total_price",
	"status":      "status",
	"created_at":  "created_at",
}

// BookingFilter always carries the owner; bookings are never listed across users.
type BookingFilter struct {
	UserID     uuid.UUID
	Status     *entity.BookingStatus
	PropertyID *uuid.UUID
	Ordering   string
}

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(ctx context.Context, filter BookingFilter, offset, limit int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, filter BookingFilter) (int64, error)
	Update(ctx context.Context, booking *entity.Booking) error

	// DeleteIfUnpaid removes the booking unless it has a completed payment.
	// It reports whether a row was deleted.
	DeleteIfUnpaid(ctx context.Context, id uuid.UUID) (bool, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, property_id, user_id, start_date, end_date, total_price, status, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.PropertyID,
		&booking.UserID,
		&booking.StartDate,
		&booking.EndDate,
		&booking.TotalPrice,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.PropertyID,
		booking.UserID,
		booking.StartDate,
		booking.EndDate,
		booking.TotalPrice,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("property_id", booking.PropertyID.String()),
			zap.String("user_id", booking.UserID.String()),
		)
		return fmt.Errorf("create booking for property %s: %w", booking.PropertyID, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id, err)
	}

	return booking, nil
}

func whereBooking(filter BookingFilter) (string, []interface{}) {
	var sb strings.Builder
	args := []interface{}{filter.UserID}
	sb.WriteString(" WHERE user_id = $1")

	if filter.Status != nil {
		args = append(args, *filter.Status)
		sb.WriteString(fmt.Sprintf(" AND status = $%d", len(args)))
	}
	if filter.PropertyID != nil {
		args = append(args, *filter.PropertyID)
		sb.WriteString(fmt.Sprintf(" AND property_id = $%d", len(args)))
	}

	return sb.String(), args
}

func (r *bookingRepository) FindByUserID(ctx context.Context, filter BookingFilter, offset, limit int) ([]*entity.Booking, error) {
	where, args := whereBooking(filter)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + bookingColumns + ` FROM bookings`)
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(orderClause(filter.Ordering, BookingOrderings, "created_at DESC, id ASC"))
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2))
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", filter.UserID.String()),
		)
		return nil, fmt.Errorf("find bookings for user %s: %w", filter.UserID, err)
	}
	defer rows.Close()

	bookings := []*entity.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) CountByUserID(ctx context.Context, filter BookingFilter) (int64, error) {
	where, args := whereBooking(filter)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`+where, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count bookings",
			zap.Error(err),
			zap.String("user_id", filter.UserID.String()),
		)
		return 0, fmt.Errorf("count bookings for user %s: %w", filter.UserID, err)
	}

	return total, nil
}

// Update never changes user_id; ownership is fixed at creation.
func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET property_id = $2, start_date = $3, end_date = $4, total_price = $5, status = $6, updated_at = $7
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.PropertyID,
		booking.StartDate,
		booking.EndDate,
		booking.TotalPrice,
		booking.Status,
		booking.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		return fmt.Errorf("update booking %s: %w", booking.ID, err)
	}

	return nil
}

func (r *bookingRepository) DeleteIfUnpaid(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		DELETE FROM bookings b
		WHERE b.id = $1
		  AND NOT EXISTS (
		      SELECT 1 FROM payments p
		      WHERE p.booking_id = b.id AND p.status = 'completed'
		  )
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("delete booking %s: %w", id, err)
	}

	return tag.RowsAffected() == 1, nil
}
