package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uppalapadu/watersafe/internal/model"
)

// PostgresStore persists records in PostgreSQL through a pgx pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore. The schema must already be applied.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	userColumns     = `id, name, email, role, village, phone`
	campaignColumns = `id, title, description, date, time, location, capacity, booked_slots, status, created_by`
	bookingColumns  = `id, user_id, campaign_id, booking_date, status, confirmation_code`
)

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPGUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Village, &u.Phone)
	return u, err
}

func scanPGCampaign(row rowScanner) (model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Date, &c.Time, &c.Location,
		&c.Capacity, &c.BookedSlots, &c.Status, &c.CreatedBy)
	c.Date = c.Date.UTC()
	return c, err
}

func scanPGBooking(row rowScanner) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.CampaignID, &b.BookingDate, &b.Status, &b.ConfirmationCode)
	b.BookingDate = b.BookingDate.UTC()
	return b, err
}

// pgUniqueViolation maps a unique-constraint failure to the matching store error.
func pgUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return ErrDuplicateEmail
	case strings.Contains(pgErr.ConstraintName, "one_confirmed"):
		return ErrConfirmedBookingExists
	default:
		return ErrDuplicateID
	}
}

// inTx runs fn inside a transaction that is rolled back unless fn and the commit succeed.
func (s *PostgresStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (model.User, error) {
	u, err := scanPGUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanPGUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error) {
	var (
		rows pgx.Rows
		err  error
	)
	switch {
	case filter.IDs == nil:
		rows, err = s.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	case len(filter.IDs) == 0:
		return nil, nil
	default:
		rows, err = s.db.Query(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = ANY($1) ORDER BY id`, filter.IDs)
	}
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanPGUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) InsertUser(ctx context.Context, user model.User) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, user.Email, user.Role, user.Village, user.Phone,
	)
	if err != nil {
		if mapped := pgUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCampaign(ctx context.Context, id string) (model.Campaign, error) {
	c, err := scanPGCampaign(s.db.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Campaign{}, ErrNotFound
		}
		return model.Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// ListCampaigns returns campaigns ordered by event date descending.
func (s *PostgresStore) ListCampaigns(ctx context.Context, filter CampaignFilter) ([]model.Campaign, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+campaignColumns+`
		 FROM campaigns
		 WHERE ($1 = '' OR status <> $1)
		 ORDER BY date DESC, id ASC`,
		string(filter.ExcludeStatus),
	)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		c, err := scanPGCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (s *PostgresStore) InsertCampaign(ctx context.Context, c model.Campaign) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO campaigns (`+campaignColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Title, c.Description, c.Date, c.Time, c.Location, c.Capacity, c.BookedSlots, c.Status, c.CreatedBy,
	)
	if err != nil {
		if mapped := pgUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// UpdateCampaign locks the campaign row with SELECT … FOR UPDATE, applies mutate and
// writes the result back in the same transaction. Concurrent updates of the same
// campaign queue on the row lock; other campaigns are unaffected.
func (s *PostgresStore) UpdateCampaign(ctx context.Context, id string, mutate CampaignMutation) (model.Campaign, error) {
	var updated model.Campaign
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		c, err := scanPGCampaign(tx.QueryRow(ctx,
			`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock campaign row: %w", err)
		}
		if err := mutate(&c); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE campaigns
			 SET title = $2, description = $3, date = $4, time = $5, location = $6,
			     capacity = $7, booked_slots = $8, status = $9
			 WHERE id = $1`,
			id, c.Title, c.Description, c.Date, c.Time, c.Location, c.Capacity, c.BookedSlots, c.Status,
		)
		if err != nil {
			return fmt.Errorf("update campaign: %w", err)
		}
		c.ID = id
		updated = c
		return nil
	})
	if err != nil {
		return model.Campaign{}, err
	}
	return updated, nil
}

// DeleteCampaign removes the campaign and its bookings in one transaction.
func (s *PostgresStore) DeleteCampaign(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM bookings WHERE campaign_id = $1`, id); err != nil {
			return fmt.Errorf("delete campaign bookings: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete campaign: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *PostgresStore) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	b, err := scanPGBooking(s.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Booking{}, ErrNotFound
		}
		return model.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE ($1 = '' OR user_id = $1)
		   AND ($2 = '' OR campaign_id = $2)
		   AND ($3 = '' OR status = $3)
		 ORDER BY booking_date ASC, id ASC`,
		filter.UserID, filter.CampaignID, string(filter.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanPGBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (s *PostgresStore) InsertBooking(ctx context.Context, b model.Booking) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.UserID, b.CampaignID, b.BookingDate, b.Status, b.ConfirmationCode,
	)
	if err != nil {
		if mapped := pgUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateBooking(ctx context.Context, id string, mutate BookingMutation) (model.Booking, error) {
	var updated model.Booking
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		b, err := scanPGBooking(tx.QueryRow(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock booking row: %w", err)
		}
		if err := mutate(&b); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE bookings SET status = $2, confirmation_code = $3 WHERE id = $1`,
			id, b.Status, b.ConfirmationCode,
		)
		if err != nil {
			if mapped := pgUniqueViolation(err); mapped != nil {
				return mapped
			}
			return fmt.Errorf("update booking: %w", err)
		}
		b.ID = id
		updated = b
		return nil
	})
	if err != nil {
		return model.Booking{}, err
	}
	return updated, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)
