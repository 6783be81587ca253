package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"pms_sync/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// dateStr renders a scanned DATE back into the YYYY-MM-DD form the domain
// uses everywhere.
func dateStr(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.Format("2006-01-02")
	return &s
}

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) GetHotelByPMSID(ctx context.Context, pmsHotelID string) (domain.Hotel, error) {
	var h domain.Hotel
	var name sql.NullString
	err := r.db.QueryRowContext(ctx, getHotelByPMSIDSQL, pmsHotelID).
		Scan(&h.ID, &h.PMSHotelID, &name)
	if err == sql.ErrNoRows {
		return domain.Hotel{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Hotel{}, err
	}
	if name.Valid {
		n := name.String
		h.Name = &n
	}
	return h, nil
}

func (r *Repo) GetOrCreateGuest(ctx context.Context, phone string, name *string) (domain.Guest, bool, error) {
	g, err := r.getGuestByPhone(ctx, phone)
	if err == nil {
		return g, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Guest{}, false, err
	}

	res, err := r.db.ExecContext(ctx, insertGuestSQL, phone, valStr(name))
	if err != nil {
		if isDuplicateKey(err) {
			return domain.Guest{}, false, fmt.Errorf("create guest %s: %w", phone, domain.ErrConflict)
		}
		return domain.Guest{}, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Guest{}, false, err
	}
	return domain.Guest{ID: id, Phone: phone, Name: name}, true, nil
}

func (r *Repo) getGuestByPhone(ctx context.Context, phone string) (domain.Guest, error) {
	var g domain.Guest
	var name sql.NullString
	err := r.db.QueryRowContext(ctx, getGuestByPhoneSQL, phone).
		Scan(&g.ID, &g.Phone, &name)
	if err == sql.ErrNoRows {
		return domain.Guest{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Guest{}, err
	}
	if name.Valid {
		n := name.String
		g.Name = &n
	}
	return g, nil
}

func (r *Repo) GetStay(ctx context.Context, pmsReservationID string, hotelID int64) (domain.Stay, error) {
	var s domain.Stay
	var checkin, checkout sql.NullTime
	err := r.db.QueryRowContext(ctx, getStaySQL, pmsReservationID, hotelID).
		Scan(&s.ID, &s.PMSReservationID, &s.HotelID, &s.GuestID, &s.PMSGuestID,
			&s.Status, &checkin, &checkout)
	if err == sql.ErrNoRows {
		return domain.Stay{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Stay{}, err
	}
	s.Checkin = dateStr(checkin)
	s.Checkout = dateStr(checkout)
	return s, nil
}

func (r *Repo) CreateStay(ctx context.Context, s domain.Stay) (domain.Stay, error) {
	res, err := r.db.ExecContext(ctx, insertStaySQL,
		s.PMSReservationID,
		s.HotelID,
		s.GuestID,
		s.PMSGuestID,
		string(s.Status),
		valStr(s.Checkin),
		valStr(s.Checkout),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return domain.Stay{}, fmt.Errorf("create stay %s: %w", s.PMSReservationID, domain.ErrConflict)
		}
		return domain.Stay{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Stay{}, err
	}
	s.ID = id
	return s, nil
}

func (r *Repo) UpdateStay(ctx context.Context, stayID int64, ch domain.StayChanges) error {
	if ch.Empty() {
		return nil
	}
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if ch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*ch.Status))
	}
	if ch.SetCheckin {
		sets = append(sets, "checkin = ?")
		args = append(args, valStr(ch.Checkin))
	}
	if ch.SetCheckout {
		sets = append(sets, "checkout = ?")
		args = append(args, valStr(ch.Checkout))
	}
	args = append(args, stayID)

	_, err := r.db.ExecContext(ctx, updateStayPrefix+strings.Join(sets, ", ")+updateStaySuffix, args...)
	return err
}
