package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/okian/scout/internal/adapters/repository"
	service "github.com/okian/scout/internal/app"
	"github.com/okian/scout/internal/domain/catalog"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/scoring"
	"github.com/okian/scout/internal/domain/types"
	"github.com/okian/scout/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func testCatalog() *catalog.Profiles {
	m := catalog.NewMetrics()
	_ = m.Register("m1", catalog.Physical, "M1")
	_ = m.Register("m2", catalog.Physical, "M2")
	_ = m.Register("m3", catalog.Attack, "M3")
	_ = m.Register("m4", catalog.Defense, "M4")
	_ = m.Register("m5", catalog.Defense, "M5")
	p := catalog.NewProfiles(m)
	_ = p.RegisterProfile("X", []string{"m1", "m2", "m3", "m4", "m5"})
	_ = p.RegisterProfile("Y", []string{"m1", "m3", "m4"})
	p.Seal()
	return p
}

// player builds a profile X row whose metrics all equal v, except attack.
func player(id, name, comp string, age int, v, attack float64) model.PlayerMetricRow {
	return model.PlayerMetricRow{
		RowID:       id,
		PlayerID:    "p" + id,
		PlayerName:  name,
		Team:        "Team " + id,
		Age:         age,
		Competition: comp,
		Season:      "2024/2025",
		ProfileKey:  "X",
		Metrics: map[string]model.Value{
			"m1": model.Present(v),
			"m2": model.Present(v),
			"m3": model.Present(attack),
			"m4": model.Present(v),
			"m5": model.Present(v),
		},
	}
}

func testRows() []model.PlayerMetricRow {
	rows := []model.PlayerMetricRow{
		player("1", "Alpha", "Eredivisie", 20, 90, 90),
		player("2", "Bravo", "Eredivisie", 25, 80, 80),
		player("3", "Charlie", "Eerste Divisie", 30, 70, 70),
		player("4", "Delta", "Eredivisie", 22, 75, 10),
		player("5", "Echo", "Eerste Divisie", 18, 50, 50),
	}
	keeper := player("6", "Foxtrot", "Eredivisie", 33, 60, 60)
	keeper.ProfileKey = "GK"
	empty := model.PlayerMetricRow{RowID: "7", PlayerName: "Golf", ProfileKey: "X", Competition: "Eredivisie", Season: "2023/2024", Team: "Team 7", Age: 27}
	return append(rows, keeper, empty)
}

func newStarted(opts ...service.Option) *service.Service {
	svc := service.New(repository.NewMemoryStore(testRows()), testCatalog(), opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func rowIDs(rows []model.RankedPlayerRow) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.RowID
	}
	return ids
}

func ranks(rows []model.RankedPlayerRow) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.Rank
	}
	return out
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(repository.NewMemoryStore(testRows()), testCatalog(), service.WithWorkerCount(3))

		Convey("When it has not been started", func() {
			_, err := svc.Leaderboard(context.Background(), types.LeaderboardQuery{})

			Convey("Then leaderboards are refused", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When starting and stopping", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["workerCount"], ShouldEqual, 3)
			So(stats["totalRows"], ShouldEqual, 7)
			So(stats["profiles"], ShouldEqual, 2)

			svc.Stop()
			svc.Stop()
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})
}

func TestService_Leaderboard(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStarted(service.WithWorkerCount(2))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When ranking without limits", func() {
			lb, err := svc.Leaderboard(ctx, types.LeaderboardQuery{TopN: 10})
			So(err, ShouldBeNil)

			Convey("Then rows are ordered by overall with undefined last", func() {
				So(rowIDs(lb.Rows), ShouldResemble, []string{"1", "2", "3", "4", "5", "7"})
				So(ranks(lb.Rows), ShouldResemble, []int{1, 2, 3, 4, 5, 6})
				So(lb.Rows[5].Overall.IsMissing(), ShouldBeTrue)
				So(lb.Rows[5].Source, ShouldEqual, model.SourceNone)
			})

			Convey("Then the unknown profile row is reported as skipped", func() {
				So(len(lb.Skipped), ShouldEqual, 1)
				So(lb.Skipped[0].RowID, ShouldEqual, "6")
				So(lb.Skipped[0].ProfileKey, ShouldEqual, "GK")
				So(lb.Skipped[0].Reason, ShouldContainSubstring, "GK")
			})

			Convey("Then the snapshot is identified", func() {
				_, err := uuid.Parse(lb.SnapshotID)
				So(err, ShouldBeNil)
				So(lb.GeneratedAt.IsZero(), ShouldBeFalse)
				So(lb.Universe, ShouldEqual, 6)
				So(lb.Empty, ShouldBeFalse)
			})
		})

		Convey("When truncating before the attack threshold", func() {
			lb, err := svc.Leaderboard(ctx, types.LeaderboardQuery{TopN: 5, MinAttack: 20})
			So(err, ShouldBeNil)

			Convey("Then ranks keep their gaps", func() {
				So(rowIDs(lb.Rows), ShouldResemble, []string{"1", "2", "3", "5"})
				So(ranks(lb.Rows), ShouldResemble, []int{1, 2, 3, 5})
			})
		})

		Convey("When top_n is omitted", func() {
			lb, err := svc.Leaderboard(ctx, types.LeaderboardQuery{})
			So(err, ShouldBeNil)
			So(len(lb.Rows), ShouldEqual, 6)
		})

		Convey("When the default top_n is small", func() {
			small := newStarted(service.WithTopN(2, 10))
			defer small.Stop()
			lb, err := small.Leaderboard(ctx, types.LeaderboardQuery{})
			So(err, ShouldBeNil)
			So(rowIDs(lb.Rows), ShouldResemble, []string{"1", "2"})
		})

		Convey("When filtering upstream", func() {
			lb, err := svc.Leaderboard(ctx, types.LeaderboardQuery{Competitions: []string{"Eerste Divisie"}})
			So(err, ShouldBeNil)

			Convey("Then ranks are relative to the filtered universe", func() {
				So(rowIDs(lb.Rows), ShouldResemble, []string{"3", "5"})
				So(ranks(lb.Rows), ShouldResemble, []int{1, 2})
				So(lb.Universe, ShouldEqual, 2)
			})
		})

		Convey("When the age range excludes everyone", func() {
			lb, err := svc.Leaderboard(ctx, types.LeaderboardQuery{AgeMin: 40, AgeMax: 50})
			So(err, ShouldBeNil)
			So(lb.Empty, ShouldBeTrue)
			So(lb.Rows, ShouldBeEmpty)
		})

		Convey("When thresholds remove every row", func() {
			lb, err := svc.Leaderboard(ctx, types.LeaderboardQuery{MinPhysical: 99})
			So(err, ShouldBeNil)
			So(lb.Empty, ShouldBeTrue)
			So(lb.Universe, ShouldEqual, 6)
		})

		Convey("When the query is invalid", func() {
			bad := []types.LeaderboardQuery{
				{TopN: -1},
				{TopN: 501},
				{MinAttack: 101},
				{MinDefense: -1},
				{AgeMin: 30, AgeMax: 20},
				{Competitions: []string{""}},
			}
			for _, q := range bad {
				_, err := svc.Leaderboard(ctx, q)
				So(errors.Is(err, service.ErrInvalidQuery), ShouldBeTrue)
			}
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.Leaderboard(cctx, types.LeaderboardQuery{})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestService_LeaderboardStoredFallback(t *testing.T) {
	Convey("Given a row with only stored aggregates", t, func() {
		rows := []model.PlayerMetricRow{
			player("1", "Alpha", "Eredivisie", 20, 40, 40),
			{
				RowID: "2", PlayerName: "Bravo", ProfileKey: "X",
				Stored: model.StoredAggregates{Physical: model.Present(70), Total: model.Present(65)},
			},
		}
		svc := service.New(repository.NewMemoryStore(rows), testCatalog())
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		lb, err := svc.Leaderboard(context.Background(), types.LeaderboardQuery{})
		So(err, ShouldBeNil)

		Convey("Then the stored total ranks it", func() {
			So(rowIDs(lb.Rows), ShouldResemble, []string{"2", "1"})
			So(lb.Rows[0].Source, ShouldEqual, model.SourceStored)
			So(lb.Rows[0].Overall.Or(-1), ShouldEqual, 65)
		})

		Convey("Then disabling the fallback leaves it undefined", func() {
			strict := service.New(repository.NewMemoryStore(rows), testCatalog(),
				service.WithScorer(scoring.NewAggregator(testCatalog(), scoring.WithStoredFallback(false))))
			So(strict.Start(context.Background()), ShouldBeNil)
			defer strict.Stop()

			lb, err := strict.Leaderboard(context.Background(), types.LeaderboardQuery{})
			So(err, ShouldBeNil)
			So(rowIDs(lb.Rows), ShouldResemble, []string{"1", "2"})
			So(lb.Rows[1].Source, ShouldEqual, model.SourceNone)
		})
	})
}

// failingScorer fails rows listed in broken with err and delegates the rest.
type failingScorer struct {
	next   scoring.Scorer
	broken map[string]error
}

func (f failingScorer) Score(row model.PlayerMetricRow) (model.ScoredPlayerRow, error) {
	if err, ok := f.broken[row.RowID]; ok {
		return model.ScoredPlayerRow{}, err
	}
	return f.next.Score(row)
}

func TestService_LeaderboardScorerErrors(t *testing.T) {
	Convey("Given a scorer that fails some rows", t, func() {
		ctx := context.Background()
		newWith := func(broken map[string]error) *service.Service {
			return newStarted(service.WithScorer(failingScorer{
				next:   scoring.NewAggregator(testCatalog()),
				broken: broken,
			}))
		}

		Convey("When the failure is an unresolved profile", func() {
			svc := newWith(map[string]error{"2": errors.Wrap(scoring.ErrUnresolvedProfile, "row 2")})
			defer svc.Stop()
			lb, err := svc.Leaderboard(ctx, types.LeaderboardQuery{})

			Convey("Then the row is skipped and the pass succeeds", func() {
				So(err, ShouldBeNil)
				So(rowIDs(lb.Rows), ShouldNotContain, "2")
				var skipped []string
				for _, sk := range lb.Skipped {
					skipped = append(skipped, sk.RowID)
				}
				So(skipped, ShouldContain, "2")
			})
		})

		Convey("When the failure is anything else", func() {
			boom := errors.New("metric store corrupted")
			svc := newWith(map[string]error{"2": boom})
			defer svc.Stop()

			Convey("Then leaderboard and search fail with it", func() {
				_, err := svc.Leaderboard(ctx, types.LeaderboardQuery{})
				So(errors.Is(err, boom), ShouldBeTrue)

				_, err = svc.Search(ctx, []string{"Bravo"})
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})
	})
}

func TestService_LeaderboardEUOnly(t *testing.T) {
	Convey("Given rows where some players hold an EU passport", t, func() {
		rows := testRows()
		rows[1].European = true
		rows[3].European = true
		svc := service.New(repository.NewMemoryStore(rows), testCatalog())
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("When eu_only is set", func() {
			lb, err := svc.Leaderboard(context.Background(), types.LeaderboardQuery{EUOnly: true})
			So(err, ShouldBeNil)

			Convey("Then only those players are ranked", func() {
				So(rowIDs(lb.Rows), ShouldResemble, []string{"2", "4"})
				So(ranks(lb.Rows), ShouldResemble, []int{1, 2})
				So(lb.Universe, ShouldEqual, 2)
			})
		})

		Convey("When eu_only is not set", func() {
			lb, err := svc.Leaderboard(context.Background(), types.LeaderboardQuery{})
			So(err, ShouldBeNil)
			So(lb.Universe, ShouldEqual, 6)
		})
	})
}

func TestService_Search(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStarted()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When searching by names", func() {
			lb, err := svc.Search(ctx, []string{"Echo", "Bravo", "Foxtrot", "Nobody"})
			So(err, ShouldBeNil)

			Convey("Then matches are ranked among themselves", func() {
				So(rowIDs(lb.Rows), ShouldResemble, []string{"2", "5"})
				So(ranks(lb.Rows), ShouldResemble, []int{1, 2})
				So(len(lb.Skipped), ShouldEqual, 1)
			})
		})

		Convey("When no names are given", func() {
			lb, err := svc.Search(ctx, nil)
			So(err, ShouldBeNil)
			So(lb.Empty, ShouldBeTrue)
		})
	})
}

func TestService_Chart(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStarted()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When charting a row under its own profile", func() {
			p, err := svc.Chart(ctx, "4", "")
			So(err, ShouldBeNil)

			Convey("Then items follow category order and the summary is the row's scores", func() {
				So(p.ProfileKey, ShouldEqual, "X")
				So(len(p.Items), ShouldEqual, 5)
				So(p.Items[2].Key, ShouldEqual, "m3")
				So(p.Summary.Attack.Or(-1), ShouldEqual, 10)
				So(p.Caption, ShouldEqual, "Physical: 75.0 | Attack: 10.0 | Defense: 75.0")
			})
		})

		Convey("When charting under another profile", func() {
			p, err := svc.Chart(ctx, "4", "Y")
			So(err, ShouldBeNil)
			So(p.ProfileKey, ShouldEqual, "Y")
			So(len(p.Items), ShouldEqual, 3)
			So(p.Summary.Defense.Or(-1), ShouldEqual, 75)
		})

		Convey("When the row does not exist", func() {
			_, err := svc.Chart(ctx, "missing", "")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the profile is unknown", func() {
			_, err := svc.Chart(ctx, "1", "GK")
			So(errors.Is(err, catalog.ErrUnknownProfile), ShouldBeTrue)
		})
	})
}

func TestService_Compare(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStarted(service.WithMaxCompare(2))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When comparing two players", func() {
			payloads, err := svc.Compare(ctx, []string{"1", "2"}, "")
			So(err, ShouldBeNil)
			So(len(payloads), ShouldEqual, 2)
			So(payloads[0].PlayerName, ShouldEqual, "Alpha")
			So(payloads[1].ProfileKey, ShouldEqual, "X")
		})

		Convey("When comparing too many players", func() {
			_, err := svc.Compare(ctx, []string{"1", "2", "3"}, "")
			So(errors.Is(err, service.ErrTooManyPlayers), ShouldBeTrue)
		})

		Convey("When comparing nobody", func() {
			_, err := svc.Compare(ctx, nil, "")
			So(errors.Is(err, service.ErrInvalidQuery), ShouldBeTrue)
		})
	})
}

func TestService_FilterOptions(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStarted()
		defer svc.Stop()

		opts, err := svc.FilterOptions(context.Background())
		So(err, ShouldBeNil)

		Convey("Then the options reflect the data", func() {
			So(opts.Competitions, ShouldResemble, []string{"Eerste Divisie", "Eredivisie"})
			So(opts.Seasons, ShouldResemble, []string{"2023/2024", "2024/2025"})
			So(opts.Profiles, ShouldResemble, []string{"X", "GK"})
			So(opts.AgeMin, ShouldEqual, 18)
			So(opts.AgeMax, ShouldEqual, 33)
			So(len(opts.Teams), ShouldEqual, 7)
		})
	})
}
