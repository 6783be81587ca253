package mysql

const getHotelByPMSIDSQL = `
SELECT id, pms_hotel_id, name
FROM hotels
WHERE pms_hotel_id = ?
`

const getGuestByPhoneSQL = `
SELECT id, phone, name
FROM guests
WHERE phone = ?
`

const insertGuestSQL = `
INSERT INTO guests (phone, name)
VALUES (?, ?)
`

const getStaySQL = `
SELECT id, pms_reservation_id, hotel_id, guest_id, pms_guest_id, status, checkin, checkout
FROM stays
WHERE pms_reservation_id = ? AND hotel_id = ?
`

const insertStaySQL = `
INSERT INTO stays
  (pms_reservation_id, hotel_id, guest_id, pms_guest_id, status, checkin, checkout)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
`

// Stay updates are assembled at runtime from StayChanges so that one
// reconciliation is exactly one write touching only the changed columns.
const updateStayPrefix = "UPDATE stays SET "
const updateStaySuffix = ", updated_at = CURRENT_TIMESTAMP WHERE id = ?"
