package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/apperr"
	"github.com/arunpandian9159/Parking-ticket-system-sub001/internal/model"

	"github.com/google/uuid"
)

const ticketColumns = `id, license_plate, vehicle_type, spot, hours, price, entry_time, exit_time,
	fine_amount, status, pass_holder, customer_name, phone, shift_id`

func scanTicket(s scanner) (model.Ticket, error) {
	var (
		t       model.Ticket
		exit    sql.NullTime
		shiftID uuid.NullUUID
	)
	err := s.Scan(&t.ID, &t.Plate, &t.VehicleType, &t.Spot, &t.Hours, &t.Price, &t.EntryTime, &exit,
		&t.FineAmount, &t.Status, &t.PassHolder, &t.CustomerName, &t.Phone, &shiftID)
	if err != nil {
		return model.Ticket{}, err
	}
	if exit.Valid {
		e := exit.Time
		t.ExitTime = &e
	}
	if shiftID.Valid {
		id := shiftID.UUID
		t.ShiftID = &id
	}
	return t, nil
}

// CreateTicket claims the ticket's spot and inserts the ticket in one
// transaction. A spot held by another ticket is a validation error.
func (r *Repo) CreateTicket(ctx context.Context, t model.Ticket) error {
	return r.inTx(ctx, "create ticket", func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO parking_spots (spot, ticket_id)
			VALUES ($1, $2)
			ON CONFLICT (spot) DO UPDATE
			  SET ticket_id = EXCLUDED.ticket_id
			  WHERE parking_spots.ticket_id IS NULL
		`, t.Spot, t.ID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return apperr.Validation("spot %s is already occupied", t.Spot)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO tickets (`+ticketColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`, t.ID, t.Plate, t.VehicleType, t.Spot, t.Hours, t.Price, t.EntryTime, t.ExitTime,
			t.FineAmount, t.Status, t.PassHolder, t.CustomerName, t.Phone, t.ShiftID)
		return err
	})
}

func (r *Repo) GetTicket(ctx context.Context, id uuid.UUID) (model.Ticket, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	t, err := scanTicket(row)
	if err != nil {
		return model.Ticket{}, translate(fmt.Sprintf("ticket %s", id), err)
	}
	return t, nil
}

func (r *Repo) FindActiveTicketByPlate(ctx context.Context, plate string) (model.Ticket, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE license_plate = $1 AND status = $2
		ORDER BY entry_time DESC
		LIMIT 1
	`, plate, model.TicketActive)
	t, err := scanTicket(row)
	if err != nil {
		return model.Ticket{}, translate(fmt.Sprintf("active ticket for %s", plate), err)
	}
	return t, nil
}

func (r *Repo) ListTickets(ctx context.Context, f model.TicketFilter) ([]model.Ticket, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.PlatePrefix != "" {
		add("license_plate LIKE $%d", model.NormalizePlate(f.PlatePrefix)+"%")
	}
	if f.EnteredFrom != nil {
		add("entry_time >= $%d", *f.EnteredFrom)
	}
	if f.EnteredTo != nil {
		add("entry_time <= $%d", *f.EnteredTo)
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY entry_time DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("list tickets", err)
	}
	defer rows.Close()

	var res []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, translate("list tickets", err)
		}
		res = append(res, t)
	}
	return res, translate("list tickets", rows.Err())
}

// CloseTicket moves an active ticket to status, fixing its fine, exit time
// and collecting shift, and releases its spot. The update is conditional on
// the ticket still being active.
func (r *Repo) CloseTicket(ctx context.Context, id uuid.UUID, status model.TicketStatus, fine float64, exit time.Time, shiftID *uuid.UUID) (model.Ticket, error) {
	var closed model.Ticket
	err := r.inTx(ctx, fmt.Sprintf("close ticket %s", id), func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			UPDATE tickets
			SET status = $2, fine_amount = $3, exit_time = $4, shift_id = COALESCE($5, shift_id)
			WHERE id = $1 AND status = $6
			RETURNING `+ticketColumns,
			id, status, fine, exit, shiftID, model.TicketActive)
		t, err := scanTicket(row)
		if err == sql.ErrNoRows {
			return ticketStateError(ctx, tx, id)
		}
		if err != nil {
			return err
		}
		closed = t
		return releaseSpot(ctx, tx, t)
	})
	return closed, err
}

// DeleteTicket removes a ticket and frees its spot.
func (r *Repo) DeleteTicket(ctx context.Context, id uuid.UUID) (model.Ticket, error) {
	var deleted model.Ticket
	err := r.inTx(ctx, fmt.Sprintf("delete ticket %s", id), func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `DELETE FROM tickets WHERE id = $1 RETURNING `+ticketColumns, id)
		t, err := scanTicket(row)
		if err != nil {
			return err
		}
		deleted = t
		return releaseSpot(ctx, tx, t)
	})
	return deleted, err
}

func releaseSpot(ctx context.Context, tx *sql.Tx, t model.Ticket) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE parking_spots SET ticket_id = NULL
		WHERE spot = $1 AND ticket_id = $2
	`, t.Spot, t.ID)
	return err
}

func ticketStateError(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	var status model.TicketStatus
	err := tx.QueryRowContext(ctx, `SELECT status FROM tickets WHERE id = $1`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return apperr.NotFound("ticket %s", id)
	}
	if err != nil {
		return err
	}
	return apperr.InvalidState("ticket %s is %s", id, status)
}
