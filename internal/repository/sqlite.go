package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/uppalapadu/watersafe/internal/model"
)

// SQLiteStore persists records in SQLite through database/sql.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open SQLite handle. The schema must already be applied.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func scanSQLiteUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Village, &u.Phone)
	return u, err
}

func scanSQLiteCampaign(row rowScanner) (model.Campaign, error) {
	var (
		c    model.Campaign
		date int64
	)
	err := row.Scan(&c.ID, &c.Title, &c.Description, &date, &c.Time, &c.Location,
		&c.Capacity, &c.BookedSlots, &c.Status, &c.CreatedBy)
	c.Date = fromMillis(date)
	return c, err
}

func scanSQLiteBooking(row rowScanner) (model.Booking, error) {
	var (
		b      model.Booking
		booked int64
	)
	err := row.Scan(&b.ID, &b.UserID, &b.CampaignID, &booked, &b.Status, &b.ConfirmationCode)
	b.BookingDate = fromMillis(booked)
	return b, err
}

// sqliteUniqueViolation maps a unique-constraint failure to the matching store error.
func sqliteUniqueViolation(err error) error {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return nil
	}
	message := strings.ToLower(err.Error())
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
	default:
		if !strings.Contains(message, "unique constraint failed") {
			return nil
		}
	}
	switch {
	case strings.Contains(message, "email"):
		return ErrDuplicateEmail
	case strings.Contains(message, "bookings.user_id"), strings.Contains(message, "one_confirmed"):
		return ErrConfirmedBookingExists
	default:
		return ErrDuplicateID
	}
}

// inTx runs fn inside a transaction that is rolled back unless fn and the commit succeed.
func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (model.User, error) {
	u, err := scanSQLiteUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanSQLiteUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower(?)`, strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return nil, nil
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(filter.IDs)), ", ")
		query += ` WHERE id IN (` + placeholders + `)`
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) InsertUser(ctx context.Context, user model.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, string(user.Role), user.Village, user.Phone,
	)
	if err != nil {
		if mapped := sqliteUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCampaign(ctx context.Context, id string) (model.Campaign, error) {
	c, err := scanSQLiteCampaign(s.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Campaign{}, ErrNotFound
		}
		return model.Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) ListCampaigns(ctx context.Context, filter CampaignFilter) ([]model.Campaign, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+campaignColumns+`
		 FROM campaigns
		 WHERE (?1 = '' OR status <> ?1)
		 ORDER BY date DESC, id ASC`,
		string(filter.ExcludeStatus),
	)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		c, err := scanSQLiteCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (s *SQLiteStore) InsertCampaign(ctx context.Context, c model.Campaign) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO campaigns (`+campaignColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Description, toMillis(c.Date), c.Time, c.Location,
		c.Capacity, c.BookedSlots, string(c.Status), c.CreatedBy,
	)
	if err != nil {
		if mapped := sqliteUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateCampaign(ctx context.Context, id string, mutate CampaignMutation) (model.Campaign, error) {
	var updated model.Campaign
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		c, err := scanSQLiteCampaign(tx.QueryRowContext(ctx,
			`SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("read campaign: %w", err)
		}
		if err := mutate(&c); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE campaigns
			 SET title = ?, description = ?, date = ?, time = ?, location = ?,
			     capacity = ?, booked_slots = ?, status = ?
			 WHERE id = ?`,
			c.Title, c.Description, toMillis(c.Date), c.Time, c.Location,
			c.Capacity, c.BookedSlots, string(c.Status), id,
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

func (s *SQLiteStore) DeleteCampaign(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE campaign_id = ?`, id); err != nil {
			return fmt.Errorf("delete campaign bookings: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete campaign: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete campaign: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *SQLiteStore) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	b, err := scanSQLiteBooking(s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Booking{}, ErrNotFound
		}
		return model.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (s *SQLiteStore) ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE (?1 = '' OR user_id = ?1)
		   AND (?2 = '' OR campaign_id = ?2)
		   AND (?3 = '' OR status = ?3)
		 ORDER BY booking_date ASC, id ASC`,
		filter.UserID, filter.CampaignID, string(filter.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanSQLiteBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (s *SQLiteStore) InsertBooking(ctx context.Context, b model.Booking) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.CampaignID, toMillis(b.BookingDate), string(b.Status), b.ConfirmationCode,
	)
	if err != nil {
		if mapped := sqliteUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateBooking(ctx context.Context, id string, mutate BookingMutation) (model.Booking, error) {
	var updated model.Booking
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		b, err := scanSQLiteBooking(tx.QueryRowContext(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("read booking: %w", err)
		}
		if err := mutate(&b); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE bookings SET status = ?, confirmation_code = ? WHERE id = ?`,
			string(b.Status), b.ConfirmationCode, id,
		)
		if err != nil {
			if mapped := sqliteUniqueViolation(err); mapped != nil {
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

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
