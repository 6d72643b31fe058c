package repository

import (
	"context"
	"errors"
	"fmt"

	"stayhub/internal/data/entity"
	"stayhub/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ErrPendingExists is returned by Create when the booking already has a
// pending payment. The caller should re-read that row.
var ErrPendingExists = errors.New("booking already has a pending payment")

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByTxRef(ctx context.Context, txRef string) (*entity.Payment, error)
	FindPendingByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Payment, error)
	HasCompletedByBookingID(ctx context.Context, bookingID uuid.UUID) (bool, error)

	// SetGatewayTransactionID records the gateway reference on a pending row.
	SetGatewayTransactionID(ctx context.Context, id uuid.UUID, transactionID string) error

	// TransitionFromPending moves a pending payment to status in a single
	// conditional update. It returns false when the row was no longer pending,
	// meaning another request already applied a terminal state.
	TransitionFromPending(ctx context.Context, id uuid.UUID, status entity.PaymentStatus, transactionID *string) (bool, error)
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `id, booking_id, amount, tx_ref, checkout_url, chapa_transaction_id, status, created_at, updated_at`

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var payment entity.Payment
	err := row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.Amount,
		&payment.TxRef,
		&payment.CheckoutURL,
		&payment.ChapaTransactionID,
		&payment.Status,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.Amount,
		payment.TxRef,
		payment.CheckoutURL,
		payment.ChapaTransactionID,
		payment.Status,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if database.IsUniqueViolation(err, "payments_one_pending_per_booking") {
		return ErrPendingExists
	}
	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("tx_ref", payment.TxRef),
			zap.String("booking_id", payment.BookingID.String()),
		)
		return fmt.Errorf("create payment %s: %w", payment.TxRef, err)
	}

	return nil
}

func (r *paymentRepository) findOne(ctx context.Context, where string, arg interface{}) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + where
	payment, err := scanPayment(r.db.QueryRow(ctx, query, arg))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return payment, err
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	payment, err := r.findOne(ctx, "id = $1", id)
	if err != nil {
		r.log.Error("Failed to find payment by ID",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return nil, fmt.Errorf("find payment by ID %s: %w", id, err)
	}
	return payment, nil
}

func (r *paymentRepository) FindByTxRef(ctx context.Context, txRef string) (*entity.Payment, error) {
	payment, err := r.findOne(ctx, "tx_ref = $1", txRef)
	if err != nil {
		r.log.Error("Failed to find payment by tx_ref",
			zap.Error(err),
			zap.String("tx_ref", txRef),
		)
		return nil, fmt.Errorf("find payment by tx_ref %s: %w", txRef, err)
	}
	return payment, nil
}

func (r *paymentRepository) FindPendingByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	payment, err := r.findOne(ctx, "booking_id = $1 AND status = 'pending'", bookingID)
	if err != nil {
		r.log.Error("Failed to find pending payment",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find pending payment for booking %s: %w", bookingID, err)
	}
	return payment, nil
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find payments by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payments for booking %s: %w", bookingID, err)
	}
	defer rows.Close()

	payments := []*entity.Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			r.log.Error("Failed to scan payment row", zap.Error(err))
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate payments: %w", err)
	}

	return payments, nil
}

func (r *paymentRepository) HasCompletedByBookingID(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM payments WHERE booking_id = $1 AND status = 'completed')`

	var exists bool
	if err := r.db.QueryRow(ctx, query, bookingID).Scan(&exists); err != nil {
		r.log.Error("Failed to check completed payment",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return false, fmt.Errorf("check completed payment for booking %s: %w", bookingID, err)
	}

	return exists, nil
}

func (r *paymentRepository) SetGatewayTransactionID(ctx context.Context, id uuid.UUID, transactionID string) error {
	query := `
		UPDATE payments
		SET chapa_transaction_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	if _, err := r.db.Exec(ctx, query, id, transactionID); err != nil {
		r.log.Error("Failed to record gateway transaction ID",
			zap.Error(err),
			zap.String("payment_id", id.String()),
			zap.String("chapa_transaction_id", transactionID),
		)
		return fmt.Errorf("set gateway transaction for payment %s: %w", id, err)
	}

	return nil
}

func (r *paymentRepository) TransitionFromPending(ctx context.Context, id uuid.UUID, status entity.PaymentStatus, transactionID *string) (bool, error) {
	query := `
		UPDATE payments
		SET status = $2,
		    chapa_transaction_id = COALESCE($3, chapa_transaction_id),
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query, id, status, transactionID)
	if err != nil {
		r.log.Error("Failed to transition payment",
			zap.Error(err),
			zap.String("payment_id", id.String()),
			zap.String("status", string(status)),
		)
		return false, fmt.Errorf("transition payment %s to %s: %w", id, status, err)
	}

	applied := tag.RowsAffected() == 1
	r.log.Debug("Payment transition",
		zap.String("payment_id", id.String()),
		zap.String("status", string(status)),
		zap.Bool("applied", applied),
	)

	return applied, nil
}
