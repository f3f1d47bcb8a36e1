package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anggasct/urbanflow/pkg/simulation"
	"github.com/google/uuid"
)

// ErrNotFound is returned when an episode id is unknown
var ErrNotFound = errors.New("episode not found")

// EpisodeRecord is one stored episode
type EpisodeRecord struct {
	EpisodeID string
	SeriesID  string
	CreatedAt time.Time
	simulation.EpisodeSummary
}

// EpisodeStore reads and writes episode results
type EpisodeStore struct {
	db *DB
}

// NewEpisodeStore creates a store over a migrated database
func NewEpisodeStore(db *DB) *EpisodeStore {
	return &EpisodeStore{db: db}
}

// Insert stores a summary under a series and returns the new episode id
func (s *EpisodeStore) Insert(seriesID string, summary simulation.EpisodeSummary) (string, error) {
	waits, err := json.Marshal(summary.VehicleWaits)
	if err != nil {
		return "", fmt.Errorf("failed to encode vehicle waits: %w", err)
	}
	if summary.VehicleWaits == nil {
		waits = []byte("[]")
	}

	id := uuid.New().String()
	_, err = s.db.Exec(`
		INSERT INTO episodes (
			episode_id, series_id, run_id, episode, controller, seed, ticks,
			cars_passed, total_wait_ticks, cumulative_wait_ticks,
			average_wait_seconds, reward_sum, epsilon, vehicle_waits
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, seriesID, summary.RunID, summary.Episode, summary.Controller, int64(summary.Seed), summary.Ticks,
		summary.CarsPassed, summary.TotalWaitTicks, summary.CumulativeWaitTicks,
		summary.AverageWaitSeconds, summary.RewardSum, summary.Epsilon, string(waits),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert episode: %w", err)
	}
	return id, nil
}

const selectEpisode = `
	SELECT episode_id, series_id, run_id, episode, controller, seed, ticks,
		cars_passed, total_wait_ticks, cumulative_wait_ticks,
		average_wait_seconds, reward_sum, epsilon, vehicle_waits, created_at
	FROM episodes`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEpisode(row rowScanner) (EpisodeRecord, error) {
	var (
		rec   EpisodeRecord
		seed  int64
		waits string
	)
	err := row.Scan(
		&rec.EpisodeID, &rec.SeriesID, &rec.RunID, &rec.Episode, &rec.Controller, &seed, &rec.Ticks,
		&rec.CarsPassed, &rec.TotalWaitTicks, &rec.CumulativeWaitTicks,
		&rec.AverageWaitSeconds, &rec.RewardSum, &rec.Epsilon, &waits, &rec.CreatedAt,
	)
	if err != nil {
		return EpisodeRecord{}, err
	}
	rec.Seed = uint64(seed)
	if err := json.Unmarshal([]byte(waits), &rec.VehicleWaits); err != nil {
		return EpisodeRecord{}, fmt.Errorf("failed to decode vehicle waits: %w", err)
	}
	if len(rec.VehicleWaits) == 0 {
		rec.VehicleWaits = nil
	}
	return rec, nil
}

// Get returns one episode by id
func (s *EpisodeStore) Get(episodeID string) (EpisodeRecord, error) {
	rec, err := scanEpisode(s.db.QueryRow(selectEpisode+` WHERE episode_id = ?`, episodeID))
	if errors.Is(err, sql.ErrNoRows) {
		return EpisodeRecord{}, ErrNotFound
	}
	if err != nil {
		return EpisodeRecord{}, fmt.Errorf("failed to get episode: %w", err)
	}
	return rec, nil
}

// ListBySeries returns a series in episode order
func (s *EpisodeStore) ListBySeries(seriesID string) ([]EpisodeRecord, error) {
	rows, err := s.db.Query(selectEpisode+` WHERE series_id = ? ORDER BY episode ASC, created_at ASC`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var records []EpisodeRecord
	for rows.Next() {
		rec, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListSeries returns the known series ids, most recent first
func (s *EpisodeStore) ListSeries() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT series_id FROM episodes
		GROUP BY series_id
		ORDER BY MAX(created_at) DESC, series_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteSeries removes every episode of a series and returns how many
func (s *EpisodeStore) DeleteSeries(seriesID string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM episodes WHERE series_id = ?`, seriesID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete series: %w", err)
	}
	return res.RowsAffected()
}

// Summaries strips the storage fields from a list of records
func Summaries(records []EpisodeRecord) []simulation.EpisodeSummary {
	out := make([]simulation.EpisodeSummary, len(records))
	for i, rec := range records {
		out[i] = rec.EpisodeSummary
	}
	return out
}
