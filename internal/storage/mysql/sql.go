package mysql

// Shared column list so every venue read scans the same way.
const venueColumns = `id, name, category, district, address, lat, lon,
  price_min, price_max, hours, description, specialties, suitable_for,
  base_rating, review_count`

const selectVenueSQL = `SELECT ` + venueColumns + ` FROM venues`

// Keyed on (name, district). LAST_INSERT_ID(id) makes LastInsertId
// return the existing row's id on the update path, so seeding the same
// file twice yields the same ids. base_rating / review_count are never
// touched here: only the review write unit may change them.
const upsertVenueSQL = `
INSERT INTO venues
  (name, category, district, address, lat, lon, price_min, price_max,
   hours, description, specialties, suitable_for)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  id           = LAST_INSERT_ID(id),
  category     = VALUES(category),
  address      = VALUES(address),
  lat          = VALUES(lat),
  lon          = VALUES(lon),
  price_min    = VALUES(price_min),
  price_max    = VALUES(price_max),
  hours        = VALUES(hours),
  description  = VALUES(description),
  specialties  = VALUES(specialties),
  suitable_for = VALUES(suitable_for),
  updated_at   = CURRENT_TIMESTAMP
`

const updateAggregateSQL = `
UPDATE venues SET base_rating = ?, review_count = ? WHERE id = ?
`

const insertReviewSQL = `
INSERT INTO reviews
  (venue_id, session_id, rating, content, purpose,
   sentiment_score, sentiment_label, is_spam, is_verified)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateReviewSQL = `
UPDATE reviews SET
  rating          = ?,
  content         = ?,
  purpose         = ?,
  sentiment_score = ?,
  sentiment_label = ?,
  is_spam         = ?,
  is_verified     = ?
WHERE id = ?
`

const reviewColumns = `id, venue_id, session_id, rating, content, purpose,
  sentiment_score, sentiment_label, is_spam, is_verified, created_at`

const getReviewSQL = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`

const nonSpamRatingsSQL = `
SELECT rating FROM reviews WHERE venue_id = ? AND is_spam = 0
`

// Newest first; aligns with the index on (venue_id, created_at, id).
const listReviewsPrefix = `SELECT ` + reviewColumns + ` FROM reviews WHERE venue_id = ?`
const listReviewsSuffix = ` ORDER BY created_at DESC, id DESC LIMIT ?`

const insertRecordSQL = `
INSERT INTO recommendation_records (session_id, query, items)
VALUES (?, ?, ?)
`

const recordExistsSQL = `SELECT 1 FROM recommendation_records WHERE id = ?`

// Feedback is an overwrite, not an append: repeating the call with a
// new score replaces the old one.
const setFeedbackSQL = `
UPDATE recommendation_records SET feedback_score = ? WHERE id = ?
`

const getRecordSQL = `
SELECT id, session_id, query, items, feedback_score, created_at
FROM recommendation_records WHERE id = ?
`
