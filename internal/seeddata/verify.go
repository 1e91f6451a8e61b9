package seeddata

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/okian/scout/pkg/logger"
)

// ErrInconsistentLeaderboard is returned when a served leaderboard breaks
// ordering or rank numbering.
var ErrInconsistentLeaderboard = errors.New("inconsistent leaderboard")

// leaderboardEntry is the subset of a served leaderboard row the check reads.
type leaderboardEntry struct {
	Rank       int      `json:"rank"`
	RowID      string   `json:"row_id"`
	PlayerName string   `json:"player_name"`
	Overall    *float64 `json:"overall"`
}

type leaderboardPayload struct {
	Universe int                `json:"universe"`
	Empty    bool               `json:"empty"`
	Rows     []leaderboardEntry `json:"rows"`
}

type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

func (c *httpClient) get(ctx context.Context, rawURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, errors.Wrap(err, "create request")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "GET %s", rawURL)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "read response body")
	}
	return resp.StatusCode, body, nil
}

// Verify checks that the server at cfg.VerifyURL is healthy and serves a
// leaderboard with ascending ranks and non-increasing overall scores,
// missing scores last.
func Verify(ctx context.Context, cfg *Config) error {
	client := newHTTPClient(cfg.Timeout)
	base := cfg.VerifyURL

	logger.Get().Info(ctx, "checking service health", logger.String("url", base))
	status, _, err := client.get(ctx, base+"/healthz")
	if err != nil {
		return errors.Wrap(err, "failed to connect to service")
	}
	if status != http.StatusOK {
		return errors.Newf("service health check failed with status: %d", status)
	}

	topN := cfg.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	q := url.Values{"top_n": {strconv.Itoa(topN)}}
	status, body, err := client.get(ctx, base+"/leaderboard?"+q.Encode())
	if err != nil {
		return errors.Wrap(err, "leaderboard retrieval failed")
	}
	if status != http.StatusOK {
		return errors.Newf("leaderboard request failed with status: %d", status)
	}
	var lb leaderboardPayload
	if err := sonic.Unmarshal(body, &lb); err != nil {
		return errors.Wrap(err, "decode leaderboard")
	}
	if err := checkLeaderboard(lb.Rows, topN); err != nil {
		return err
	}

	top := make([]string, 0, min(len(lb.Rows), 5))
	for _, e := range lb.Rows[:min(len(lb.Rows), 5)] {
		top = append(top, strconv.Itoa(e.Rank)+". "+e.PlayerName)
	}
	logger.Get().Info(ctx, "leaderboard verified",
		logger.Int("universe", lb.Universe),
		logger.Int("rows", len(lb.Rows)),
		logger.Strings("top", top))
	return nil
}

func checkLeaderboard(rows []leaderboardEntry, topN int) error {
	if len(rows) > topN {
		return errors.Wrapf(ErrInconsistentLeaderboard, "%d rows returned for top_n %d", len(rows), topN)
	}
	seenMissing := false
	for i, e := range rows {
		if i > 0 && e.Rank <= rows[i-1].Rank {
			return errors.Wrapf(ErrInconsistentLeaderboard, "rank %d follows rank %d", e.Rank, rows[i-1].Rank)
		}
		if e.Overall == nil {
			seenMissing = true
			continue
		}
		if seenMissing {
			return errors.Wrapf(ErrInconsistentLeaderboard, "row %s has a score after a missing one", e.RowID)
		}
		if i > 0 && rows[i-1].Overall != nil && *e.Overall > *rows[i-1].Overall {
			return errors.Wrapf(ErrInconsistentLeaderboard, "row %s outscores the row above it", e.RowID)
		}
	}
	return nil
}
