package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/metrics"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver
)

// Supported SQL drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const defaultPageSize = 1000

// SQLOption applies a configuration option to the SQLStore.
type SQLOption func(*SQLStore)

// WithPageSize sets how many rows each List page reads.
func WithPageSize(n int) SQLOption {
	return func(s *SQLStore) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithoutMigrations skips schema migrations on open, for read-only replicas.
func WithoutMigrations() SQLOption {
	return func(s *SQLStore) {
		s.migrate = false
	}
}

// SQLStore reads rows from player_percentiles, joined with player_links for
// external URLs.
type SQLStore struct {
	db       *sqlx.DB
	driver   string
	pageSize int
	migrate  bool
}

// OpenSQL connects to the database and applies migrations.
func OpenSQL(ctx context.Context, driver, dsn string, opts ...SQLOption) (*SQLStore, error) {
	var dialect string
	switch driver {
	case DriverPostgres:
		dialect = "postgres"
	case DriverSQLite:
		dialect = "sqlite3"
	default:
		return nil, errors.Wrapf(ErrInvalidSource, "unknown sql driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "connect %s", driver)
	}

	s := &SQLStore{db: db, driver: driver, pageSize: defaultPageSize, migrate: true}
	for _, opt := range opts {
		opt(s)
	}

	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "set sqlite pragmas")
		}
	}
	if s.migrate {
		if err := runMigrations(ctx, db.DB, dialect); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type playerRowModel struct {
	RowID           string          `db:"row_id"`
	PlayerID        string          `db:"player_id"`
	PlayerName      string          `db:"player_name"`
	Team            string          `db:"team"`
	Country         string          `db:"country"`
	Age             int             `db:"age"`
	TotalMinutes    int             `db:"total_minutes"`
	PositionMinutes int             `db:"position_minutes"`
	Competition     string          `db:"competition"`
	Season          string          `db:"season"`
	Position        string          `db:"position"`
	MetricsJSON     string          `db:"metrics_json"`
	Physical        sql.NullFloat64 `db:"physical"`
	Attack          sql.NullFloat64 `db:"attack"`
	Defense         sql.NullFloat64 `db:"defense"`
	Total           sql.NullFloat64 `db:"total"`
	European        bool            `db:"european"`
	ExternalURL     sql.NullString  `db:"external_url"`
}

const selectRows = `
SELECT p.row_id, p.player_id, p.player_name, p.team, p.country, p.age,
       p.total_minutes, p.position_minutes, p.competition, p.season, p.position,
       p.metrics_json, p.physical, p.attack, p.defense, p.total, p.european,
       l.url AS external_url
FROM player_percentiles p
LEFT JOIN (
    SELECT player_id, position, MIN(url) AS url
    FROM player_links
    GROUP BY player_id, position
) l ON l.player_id = p.player_id AND l.position = p.position`

// List implements Store. Rows are read page by page in row_id order.
func (s *SQLStore) List(ctx context.Context, f Filter) ([]model.PlayerMetricRow, error) {
	start := time.Now()
	where, args := filterClause(f)

	var out []model.PlayerMetricRow
	for offset := 0; ; offset += s.pageSize {
		query, qargs, err := sqlx.In(selectRows+where+" ORDER BY p.row_id LIMIT ? OFFSET ?",
			append(append([]any(nil), args...), s.pageSize, offset)...)
		if err != nil {
			return nil, errors.Wrap(err, "build list query")
		}

		var page []playerRowModel
		if err := s.db.SelectContext(ctx, &page, s.db.Rebind(query), qargs...); err != nil {
			metrics.RecordSourceError("sql")
			return nil, errors.Wrap(err, "select player rows")
		}
		for i := range page {
			row, err := page[i].toModel()
			if err != nil {
				return nil, err
			}
			if f.Match(&row) {
				out = append(out, row)
			}
		}
		if len(page) < s.pageSize {
			break
		}
	}

	metrics.RecordSourceLoad("sql", float64(time.Since(start).Milliseconds()))
	return out, nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, rowID string) (model.PlayerMetricRow, error) {
	var rm playerRowModel
	err := s.db.GetContext(ctx, &rm, s.db.Rebind(selectRows+" WHERE p.row_id = ?"), rowID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PlayerMetricRow{}, errors.Wrapf(ErrNotFound, "row %q", rowID)
	}
	if err != nil {
		metrics.RecordSourceError("sql")
		return model.PlayerMetricRow{}, errors.Wrapf(err, "get row %q", rowID)
	}
	return rm.toModel()
}

// Count implements Store. It returns 0 when the database is unreachable.
func (s *SQLStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM player_percentiles"); err != nil {
		metrics.RecordSourceError("sql")
		return 0
	}
	return n
}

const upsertRow = `
INSERT INTO player_percentiles (
    row_id, player_id, player_name, team, country, age, total_minutes, position_minutes,
    competition, season, position, metrics_json, physical, attack, defense, total, european
) VALUES (
    :row_id, :player_id, :player_name, :team, :country, :age, :total_minutes, :position_minutes,
    :competition, :season, :position, :metrics_json, :physical, :attack, :defense, :total, :european
)
ON CONFLICT (row_id) DO UPDATE SET
    player_id = excluded.player_id,
    player_name = excluded.player_name,
    team = excluded.team,
    country = excluded.country,
    age = excluded.age,
    total_minutes = excluded.total_minutes,
    position_minutes = excluded.position_minutes,
    competition = excluded.competition,
    season = excluded.season,
    position = excluded.position,
    metrics_json = excluded.metrics_json,
    physical = excluded.physical,
    attack = excluded.attack,
    defense = excluded.defense,
    total = excluded.total,
    european = excluded.european`

// Insert upserts rows in one transaction. Rows with an external URL also
// get a player_links entry unless one already exists.
func (s *SQLStore) Insert(ctx context.Context, rows []model.PlayerMetricRow) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin insert")
	}
	defer func() { _ = tx.Rollback() }()

	for i := range rows {
		rm, err := fromModel(&rows[i])
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, upsertRow, rm); err != nil {
			return errors.Wrapf(err, "upsert row %q", rows[i].RowID)
		}
		if rows[i].ExternalURL != "" {
			if err := insertLink(ctx, tx, rows[i].PlayerID, rows[i].ProfileKey, rows[i].ExternalURL); err != nil {
				return err
			}
		}
	}
	return errors.Wrap(tx.Commit(), "commit insert")
}

// Link is an external player page for a (player, position) pair.
type Link struct {
	PlayerID string `db:"player_id"`
	Position string `db:"position"`
	URL      string `db:"url"`
}

// InsertLinks adds links. The first link stored for a pair wins.
func (s *SQLStore) InsertLinks(ctx context.Context, links []Link) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin insert links")
	}
	defer func() { _ = tx.Rollback() }()
	for _, l := range links {
		if err := insertLink(ctx, tx, l.PlayerID, l.Position, l.URL); err != nil {
			return err
		}
	}
	return errors.Wrap(tx.Commit(), "commit insert links")
}

func insertLink(ctx context.Context, tx *sqlx.Tx, playerID, position, url string) error {
	_, err := tx.NamedExecContext(ctx,
		`INSERT INTO player_links (player_id, position, url) VALUES (:player_id, :position, :url)
		 ON CONFLICT (player_id, position) DO NOTHING`,
		Link{PlayerID: playerID, Position: position, URL: url})
	return errors.Wrapf(err, "insert link for %q", playerID)
}

func filterClause(f Filter) (string, []any) {
	var conds []string
	var args []any
	addIn := func(col string, vals []string) {
		if len(vals) == 0 {
			return
		}
		conds = append(conds, col+" IN (?)")
		args = append(args, vals)
	}
	addIn("p.competition", f.Competitions)
	addIn("p.season", f.Seasons)
	addIn("p.position", f.Profiles)
	addIn("p.team", f.Teams)
	addIn("p.player_name", f.Names)
	if f.AgeMin > 0 {
		conds = append(conds, "p.age >= ?")
		args = append(args, f.AgeMin)
	}
	if f.AgeMax > 0 {
		conds = append(conds, "p.age <= ?")
		args = append(args, f.AgeMax)
	}
	if f.EUOnly {
		conds = append(conds, "p.european = ?")
		args = append(args, true)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (rm *playerRowModel) toModel() (model.PlayerMetricRow, error) {
	var raw map[string]*float64
	if rm.MetricsJSON != "" {
		if err := sonic.UnmarshalString(rm.MetricsJSON, &raw); err != nil {
			return model.PlayerMetricRow{}, errors.Wrapf(errors.Mark(err, ErrMalformedRow), "row %q metrics", rm.RowID)
		}
	}
	values := make(map[string]model.Value, len(raw))
	for k, v := range raw {
		values[k] = model.FromPtr(v)
	}

	return model.PlayerMetricRow{
		RowID:           rm.RowID,
		PlayerID:        rm.PlayerID,
		PlayerName:      rm.PlayerName,
		Team:            rm.Team,
		Country:         rm.Country,
		Age:             rm.Age,
		TotalMinutes:    rm.TotalMinutes,
		PositionMinutes: rm.PositionMinutes,
		Competition:     rm.Competition,
		Season:          rm.Season,
		ProfileKey:      rm.Position,
		ExternalURL:     rm.ExternalURL.String,
		European:        rm.European,
		Metrics:         values,
		Stored: model.StoredAggregates{
			Physical: fromNull(rm.Physical),
			Attack:   fromNull(rm.Attack),
			Defense:  fromNull(rm.Defense),
			Total:    fromNull(rm.Total),
		},
	}, nil
}

func fromModel(row *model.PlayerMetricRow) (playerRowModel, error) {
	raw := make(map[string]*float64, len(row.Metrics))
	for k, v := range row.Metrics {
		if p := v.Ptr(); p != nil {
			raw[k] = p
		}
	}
	encoded, err := sonic.MarshalString(raw)
	if err != nil {
		return playerRowModel{}, errors.Wrapf(err, "encode row %q metrics", row.RowID)
	}
	return playerRowModel{
		RowID:           row.RowID,
		PlayerID:        row.PlayerID,
		PlayerName:      row.PlayerName,
		Team:            row.Team,
		Country:         row.Country,
		Age:             row.Age,
		TotalMinutes:    row.TotalMinutes,
		PositionMinutes: row.PositionMinutes,
		Competition:     row.Competition,
		Season:          row.Season,
		Position:        row.ProfileKey,
		MetricsJSON:     encoded,
		Physical:        toNull(row.Stored.Physical),
		Attack:          toNull(row.Stored.Attack),
		Defense:         toNull(row.Stored.Defense),
		Total:           toNull(row.Stored.Total),
		European:        row.European,
	}, nil
}

func fromNull(n sql.NullFloat64) model.Value {
	if !n.Valid {
		return model.Missing()
	}
	return model.Present(n.Float64)
}

func toNull(v model.Value) sql.NullFloat64 {
	f, ok := v.Get()
	return sql.NullFloat64{Float64: f, Valid: ok}
}
