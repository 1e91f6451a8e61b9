package repository

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

// CSV identity columns. Every other header names a metric key.
const (
	colRowID           = "row_id"
	colPlayerID        = "player_id"
	colPlayerName      = "player_name"
	colTeam            = "team"
	colCountry         = "country"
	colAge             = "age"
	colTotalMinutes    = "total_minutes"
	colPositionMinutes = "position_minutes"
	colCompetition     = "competition"
	colSeason          = "season"
	colPosition        = "position"
	colExternalURL     = "external_url"
	colPhysical        = "physical"
	colAttack          = "attack"
	colDefense         = "defense"
	colTotal           = "total"
	colEuropean        = "european"
)

// CSVHeader lists the identity columns in the order WriteCSV emits them.
var CSVHeader = []string{
	colRowID, colPlayerID, colPlayerName, colTeam, colCountry, colAge,
	colTotalMinutes, colPositionMinutes, colCompetition, colSeason, colPosition,
	colExternalURL, colPhysical, colAttack, colDefense, colTotal, colEuropean,
}

var identityColumns = func() map[string]struct{} {
	m := make(map[string]struct{}, len(CSVHeader))
	for _, c := range CSVHeader {
		m[c] = struct{}{}
	}
	return m
}()

// CSVOption applies a configuration option to the CSVStore.
type CSVOption func(*CSVStore)

// WithWatch reloads the file whenever it is written.
func WithWatch(enabled bool) CSVOption {
	return func(s *CSVStore) {
		s.watch = enabled
	}
}

// WithReloadDebounce sets how long to wait after a write before reloading.
func WithReloadDebounce(d time.Duration) CSVOption {
	return func(s *CSVStore) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// CSVStore serves rows from a CSV export held in memory.
type CSVStore struct {
	*MemoryStore

	path     string
	watch    bool
	debounce time.Duration

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	onChange []func()
}

// OpenCSV reads path and, if enabled, starts watching it.
func OpenCSV(ctx context.Context, path string, opts ...CSVOption) (*CSVStore, error) {
	s := &CSVStore{
		MemoryStore: NewMemoryStore(nil),
		path:        path,
		debounce:    200 * time.Millisecond,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	if s.watch {
		if err := s.startWatch(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Reload re-reads the file. On error the previous content is kept.
func (s *CSVStore) Reload(ctx context.Context) error {
	start := time.Now()
	f, err := os.Open(s.path)
	if err != nil {
		metrics.RecordSourceError("csv")
		return errors.Wrapf(err, "open %s", s.path)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		metrics.RecordSourceError("csv")
		return errors.Wrapf(err, "read %s", s.path)
	}
	s.Replace(rows)

	metrics.RecordSourceLoad("csv", float64(time.Since(start).Milliseconds()))
	metrics.UpdateSourceRows(len(rows))
	logger.Get().Debug(ctx, "csv source loaded", logger.String("path", s.path), logger.Int("rows", len(rows)))
	return nil
}

// OnChange implements Notifier.
func (s *CSVStore) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Close stops the watcher, if any.
func (s *CSVStore) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}

func (s *CSVStore) startWatch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create fsnotify watcher")
	}
	// Editors replace files on save, so watch the directory.
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return errors.Wrapf(err, "watch directory %s", dir)
	}
	s.watcher = w
	go s.watchLoop()
	return nil
}

func (s *CSVStore) watchLoop() {
	ctx := context.Background()
	log := logger.Get().Named("csv-watch")
	target := filepath.Clean(s.path)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-s.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := s.Reload(ctx); err != nil {
				log.Warn(ctx, "csv reload failed", logger.Error(err))
				continue
			}
			metrics.RecordSourceReload()
			s.notify()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Warn(ctx, "csv watcher error", logger.Error(err))
		}
	}
}

func (s *CSVStore) notify() {
	s.mu.Lock()
	fns := append([]func(){}, s.onChange...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// ReadCSV parses a CSV export. Empty and NaN cells are missing values.
func ReadCSV(r io.Reader) ([]model.PlayerMetricRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(errors.Mark(err, ErrMalformedRow), "read header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	if _, ok := cols[colRowID]; !ok {
		return nil, errors.Wrapf(ErrMalformedRow, "missing %q column", colRowID)
	}

	var rows []model.PlayerMetricRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(errors.Mark(err, ErrMalformedRow), "line %d", line)
		}
		row, err := parseRecord(header, cols, rec)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(header []string, cols map[string]int, rec []string) (model.PlayerMetricRow, error) {
	get := func(name string) string {
		if i, ok := cols[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	atoi := func(name string) (int, error) {
		v := get(name)
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			f, ferr := strconv.ParseFloat(v, 64)
			if ferr != nil {
				return 0, errors.Wrapf(errors.Mark(err, ErrMalformedRow), "column %q", name)
			}
			n = int(f)
		}
		return n, nil
	}
	value := func(name string) (model.Value, error) {
		v, err := model.ParseValue(get(name))
		if err != nil {
			return model.Missing(), errors.Wrapf(errors.Mark(err, ErrMalformedRow), "column %q", name)
		}
		return v, nil
	}

	row := model.PlayerMetricRow{
		RowID:       get(colRowID),
		PlayerID:    get(colPlayerID),
		PlayerName:  get(colPlayerName),
		Team:        get(colTeam),
		Country:     get(colCountry),
		Competition: get(colCompetition),
		Season:      get(colSeason),
		ProfileKey:  get(colPosition),
		ExternalURL: get(colExternalURL),
		Metrics:     make(map[string]model.Value),
	}
	if row.RowID == "" {
		return row, errors.Wrap(ErrMalformedRow, "empty row_id")
	}

	var err error
	if row.Age, err = atoi(colAge); err != nil {
		return row, err
	}
	if row.TotalMinutes, err = atoi(colTotalMinutes); err != nil {
		return row, err
	}
	if row.PositionMinutes, err = atoi(colPositionMinutes); err != nil {
		return row, err
	}
	if v := get(colEuropean); v != "" {
		if row.European, err = strconv.ParseBool(v); err != nil {
			return row, errors.Wrapf(errors.Mark(err, ErrMalformedRow), "column %q", colEuropean)
		}
	}
	for _, agg := range []struct {
		col string
		dst *model.Value
	}{
		{colPhysical, &row.Stored.Physical},
		{colAttack, &row.Stored.Attack},
		{colDefense, &row.Stored.Defense},
		{colTotal, &row.Stored.Total},
	} {
		if *agg.dst, err = value(agg.col); err != nil {
			return row, err
		}
	}

	for _, h := range header {
		h = strings.TrimSpace(h)
		if _, identity := identityColumns[h]; identity || h == "" {
			continue
		}
		v, err := value(h)
		if err != nil {
			return row, err
		}
		if !v.IsMissing() {
			row.Metrics[h] = v
		}
	}
	return row, nil
}

// WriteCSV writes rows with the identity columns followed by metricKeys.
func WriteCSV(w io.Writer, rows []model.PlayerMetricRow, metricKeys []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string(nil), CSVHeader...), metricKeys...)); err != nil {
		return errors.Wrap(err, "write header")
	}

	num := func(v model.Value) string {
		f, ok := v.Get()
		if !ok {
			return ""
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	for i := range rows {
		r := &rows[i]
		rec := []string{
			r.RowID, r.PlayerID, r.PlayerName, r.Team, r.Country, strconv.Itoa(r.Age),
			strconv.Itoa(r.TotalMinutes), strconv.Itoa(r.PositionMinutes), r.Competition, r.Season,
			r.ProfileKey, r.ExternalURL,
			num(r.Stored.Physical), num(r.Stored.Attack), num(r.Stored.Defense), num(r.Stored.Total),
			strconv.FormatBool(r.European),
		}
		for _, k := range metricKeys {
			rec = append(rec, num(r.Metric(k)))
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "write row %q", r.RowID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}
