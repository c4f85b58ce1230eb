package navigator

import (
	"context"
	"errors"
	"testing"

	"bulbfinder/harvester/internal/browser/browsertest"
	"bulbfinder/harvester/internal/catalog"
	"bulbfinder/harvester/internal/domain"
	"bulbfinder/harvester/internal/sink"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type recordingCheckpointer struct {
	snaps []domain.Snapshot
	err   error
}

func (r *recordingCheckpointer) Save(_ context.Context, snap domain.Snapshot) error {
	r.snaps = append(r.snaps, snap)
	return r.err
}

func (r *recordingCheckpointer) last() domain.Snapshot {
	return r.snaps[len(r.snaps)-1]
}

type harness struct {
	session     *browsertest.Session
	sink        *sink.Sink
	checkpoints *recordingCheckpointer
	navigator   *Navigator
}

func newHarness(years ...browsertest.Node) *harness {
	h := &harness{
		session:     browsertest.New(years...),
		sink:        sink.New(),
		checkpoints: &recordingCheckpointer{},
	}
	h.navigator = New(
		h.session,
		catalog.New(browsertest.Placeholder, 2018, 2025),
		h.sink,
		h.checkpoints,
		NewRandomPacer(0, 0),
		Options{
			BaseURL:        "https://bulbfinder.test/",
			MinOptions:     2,
			SelectAttempts: 3,
		},
	)
	return h
}

func rec(year, vehicleMake, model, position string) domain.FitmentRecord {
	return domain.FitmentRecord{
		Year:         year,
		Make:         vehicleMake,
		Model:        model,
		Position:     position,
		YearCode:     browsertest.N(year).Code,
		MakeCode:     browsertest.N(vehicleMake).Code,
		ModelCode:    browsertest.N(model).Code,
		PositionCode: browsertest.N(position).Code,
	}
}

var N = browsertest.N

func TestRunSingleBranch(t *testing.T) {
	h := newHarness(
		N("2019", N("Ford", N("F-150", N("Headlight Low Beam"), N("Headlight High Beam")))),
	)

	report, err := h.navigator.Run(context.Background(), domain.Cursor{})
	require.NoError(t, err)

	want := []domain.FitmentRecord{
		rec("2019", "Ford", "F-150", "Headlight Low Beam"),
		rec("2019", "Ford", "F-150", "Headlight High Beam"),
	}
	if diff := cmp.Diff(want, h.sink.Flush()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, 1, report.Models)
	require.Equal(t, 2, report.Records)
	require.Equal(t, domain.Cursor{Year: "2019", Make: "Ford", Model: "F-150"}, report.Cursor)
	require.True(t, report.Complete())
	require.Zero(t, h.session.Reloads, "no reload after the only make")

	require.Len(t, h.checkpoints.snaps, 1)
	require.Equal(t, report.Cursor, h.checkpoints.last().Cursor)
	require.Equal(t, want, h.checkpoints.last().Records)
}

func TestRunWalksTreeDepthFirst(t *testing.T) {
	h := newHarness(
		N("2017", N("Ford", N("Model T", N("Lamp")))),
		N("2019",
			N("Ford",
				N("F-150", N("Fog Light")),
				N("Focus", N("Tail Light"), N("Fog Light")),
			),
			N("Honda", N("Civic", N("Headlight"))),
		),
		N("2020", N("Kia", N("Soul", N("Headlight")))),
	)

	report, err := h.navigator.Run(context.Background(), domain.Cursor{})
	require.NoError(t, err)

	require.Equal(t, []string{
		"2019",
		"2019/Ford",
		"2019/Ford/F-150",
		"2019/Ford/Focus",
		"2019",
		"2019/Honda",
		"2019/Honda/Civic",
		"2020",
		"2020/Kia",
		"2020/Kia/Soul",
	}, h.session.Selections)

	want := []domain.FitmentRecord{
		rec("2019", "Ford", "F-150", "Fog Light"),
		rec("2019", "Ford", "Focus", "Tail Light"),
		rec("2019", "Ford", "Focus", "Fog Light"),
		rec("2019", "Honda", "Civic", "Headlight"),
		rec("2020", "Kia", "Soul", "Headlight"),
	}
	if diff := cmp.Diff(want, h.sink.Flush()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, 1, h.session.Reloads)
	require.Equal(t, 1, h.session.Navigations)
	require.Equal(t, 4, report.Models)
	require.Len(t, h.checkpoints.snaps, 4)
	require.Equal(t, domain.Cursor{Year: "2020", Make: "Kia", Model: "Soul"}, report.Cursor)
}

func TestRunResumesAtCursor(t *testing.T) {
	h := newHarness(
		N("2019", N("Ford", N("F-150", N("Fog Light")))),
		N("2020",
			N("Honda", N("Civic", N("Headlight"))),
			N("Toyota", N("Camry", N("Headlight")), N("Corolla", N("Tail Light"))),
			N("Ford", N("Focus", N("Fog Light"))),
		),
	)

	_, err := h.navigator.Run(context.Background(), domain.Cursor{Year: "2020", Make: "Toyota", Model: "Camry"})
	require.NoError(t, err)

	require.Equal(t, []string{
		"2020",
		"2020/Toyota",
		"2020/Toyota/Camry",
		"2020/Toyota/Corolla",
		"2020",
		"2020/Ford",
		"2020/Ford/Focus",
	}, h.session.Selections)

	want := []domain.FitmentRecord{
		rec("2020", "Toyota", "Camry", "Headlight"),
		rec("2020", "Toyota", "Corolla", "Tail Light"),
		rec("2020", "Ford", "Focus", "Fog Light"),
	}
	if diff := cmp.Diff(want, h.sink.Flush()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestRunResumeWithSeededSinkKeepsRecordsUnique(t *testing.T) {
	h := newHarness(
		N("2019", N("Ford", N("F-150", N("Fog Light")), N("Focus", N("Tail Light")))),
	)
	h.sink.Seed([]domain.FitmentRecord{rec("2019", "Ford", "F-150", "Fog Light")})

	_, err := h.navigator.Run(context.Background(), domain.Cursor{Year: "2019", Make: "Ford", Model: "F-150"})
	require.NoError(t, err)

	require.Equal(t, []domain.FitmentRecord{
		rec("2019", "Ford", "F-150", "Fog Light"),
		rec("2019", "Ford", "Focus", "Tail Light"),
	}, h.sink.Flush())
	require.Equal(t, 3, h.sink.Len())
}

func TestRunSkipsBranchWhenOptionsNeverLoad(t *testing.T) {
	h := newHarness(
		N("2019",
			N("Ford", N("F-150", N("Fog Light")), N("Focus", N("Tail Light"))),
			N("Honda", N("Civic", N("Headlight"))),
		),
	)
	h.session.WaitTimeouts["2019/Ford/F-150"] = true
	h.session.WaitTimeouts["2019/Honda"] = true

	report, err := h.navigator.Run(context.Background(), domain.Cursor{})
	require.NoError(t, err)

	require.Equal(t, []domain.FitmentRecord{
		rec("2019", "Ford", "Focus", "Tail Light"),
	}, h.sink.Flush())
	require.Equal(t, 2, report.SkippedBranches)
	require.Equal(t, 1, report.Models)
	require.True(t, report.Complete())
}

func TestRunSkipsBranchWhenControlMissing(t *testing.T) {
	h := newHarness(
		N("2019", N("Ford", N("F-150", N("Fog Light")))),
		N("2020", N("Kia", N("Soul", N("Headlight")))),
	)
	h.session.MissingControls["2019/Ford"] = true

	report, err := h.navigator.Run(context.Background(), domain.Cursor{})
	require.NoError(t, err)
	require.Equal(t, 1, report.SkippedBranches)
	require.Equal(t, []domain.FitmentRecord{rec("2020", "Kia", "Soul", "Headlight")}, h.sink.Flush())
}

func TestRunRetriesFailedSelect(t *testing.T) {
	h := newHarness(
		N("2019", N("Ford", N("F-150", N("Fog Light")))),
	)
	h.session.SelectFailures["2019/Ford"] = 2

	report, err := h.navigator.Run(context.Background(), domain.Cursor{})
	require.NoError(t, err)
	require.Zero(t, report.SkippedBranches)
	require.Equal(t, []domain.FitmentRecord{rec("2019", "Ford", "F-150", "Fog Light")}, h.sink.Flush())
}

func TestRunSkipsAfterExhaustingSelectAttempts(t *testing.T) {
	h := newHarness(
		N("2019",
			N("Ford", N("F-150", N("Fog Light")), N("Focus", N("Tail Light"))),
		),
	)
	h.session.SelectFailures["2019/Ford/F-150"] = 3

	report, err := h.navigator.Run(context.Background(), domain.Cursor{})
	require.NoError(t, err)
	require.Equal(t, 1, report.SkippedBranches)
	require.Equal(t, []domain.FitmentRecord{rec("2019", "Ford", "Focus", "Tail Light")}, h.sink.Flush())
}

func TestRunAbandonsYearWhenReloadFails(t *testing.T) {
	h := newHarness(
		N("2019",
			N("Ford", N("F-150", N("Fog Light"))),
			N("Honda", N("Civic", N("Headlight"))),
		),
		N("2020", N("Kia", N("Soul", N("Headlight")))),
	)
	h.session.ReloadErrs = []error{errors.New("net::ERR_CONNECTION_RESET")}

	report, err := h.navigator.Run(context.Background(), domain.Cursor{})
	require.NoError(t, err)

	require.Equal(t, []string{"2019"}, report.AbortedYears)
	require.False(t, report.Complete())
	require.Equal(t, []domain.FitmentRecord{
		rec("2019", "Ford", "F-150", "Fog Light"),
		rec("2020", "Kia", "Soul", "Headlight"),
	}, h.sink.Flush())

	require.Equal(t, domain.Cursor{Year: "2020", Make: "Kia", Model: "Soul"}, report.Cursor)
	require.Equal(t, domain.Cursor{Year: "2019", Make: "Ford", Model: "F-150"}, report.Resume)
	require.Equal(t, report.Resume, h.checkpoints.last().Cursor, "later models must not move the checkpoint past the abandoned year")
}

func TestRunAbandonedYearWithoutModelsResumesAtYear(t *testing.T) {
	h := newHarness(
		N("2018", N("Audi", N("A4", N("Headlight")))),
		N("2019",
			N("Ford", N("F-150", N("Fog Light"))),
			N("Honda", N("Civic", N("Headlight"))),
		),
		N("2020", N("Kia", N("Soul", N("Headlight")))),
	)
	h.session.WaitTimeouts["2019/Ford/F-150"] = true
	h.session.ReloadErrs = []error{errors.New("target closed")}

	report, err := h.navigator.Run(context.Background(), domain.Cursor{})
	require.NoError(t, err)

	require.Equal(t, []string{"2019"}, report.AbortedYears)
	require.Equal(t, domain.Cursor{Year: "2019"}, report.Resume)
	require.Equal(t, domain.Cursor{Year: "2019"}, h.checkpoints.last().Cursor)
}

func TestRunResumeFollowsCursorWithoutAborts(t *testing.T) {
	h := newHarness(
		N("2019", N("Ford", N("F-150", N("Fog Light")), N("Focus", N("Tail Light")))),
	)

	report, err := h.navigator.Run(context.Background(), domain.Cursor{})
	require.NoError(t, err)
	require.Equal(t, report.Cursor, report.Resume)
}

func TestRunPageLoadFailure(t *testing.T) {
	h := newHarness(N("2019", N("Ford", N("F-150", N("Fog Light")))))
	h.session.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

	_, err := h.navigator.Run(context.Background(), domain.Cursor{})
	require.ErrorIs(t, err, ErrPageLoad)
	require.Equal(t, StateAborted, h.navigator.state.state)
	require.Empty(t, h.checkpoints.snaps)
}

func TestRunPageWithoutYearControl(t *testing.T) {
	h := newHarness(N("2019", N("Ford", N("F-150", N("Fog Light")))))
	h.session.Controls = domain.ControlNames{domain.LevelYear: "somethingElse"}

	_, err := h.navigator.Run(context.Background(), domain.Cursor{})
	require.ErrorIs(t, err, ErrPageLoad)
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(
		N("2019",
			N("Ford", N("F-150", N("Fog Light")), N("Focus", N("Tail Light")), N("Ranger", N("Headlight"))),
		),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.session.OnSelect = func(path string) {
		if path == "2019/Ford/Focus" {
			cancel()
		}
	}

	report, err := h.navigator.Run(ctx, domain.Cursor{})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StateAborted, h.navigator.state.state)

	require.Equal(t, domain.Cursor{Year: "2019", Make: "Ford", Model: "F-150"}, report.Cursor)
	require.Zero(t, report.SkippedBranches)
	require.NotContains(t, h.session.Selections, "2019/Ford/Ranger")
	require.Len(t, h.checkpoints.snaps, 1)
}

func TestRunCheckpointFailureIsNotFatal(t *testing.T) {
	h := newHarness(
		N("2019", N("Ford", N("F-150", N("Fog Light")), N("Focus", N("Tail Light")))),
	)
	h.checkpoints.err = errors.New("disk full")

	report, err := h.navigator.Run(context.Background(), domain.Cursor{})
	require.NoError(t, err)
	require.Equal(t, 2, report.Models)
	require.Len(t, h.checkpoints.snaps, 2)
}

func TestOptionsFromConfigOverridesControls(t *testing.T) {
	opts := OptionsFromConfig(scraperConfig())
	require.Equal(t, "yearSelect", opts.Controls.For(domain.LevelYear))
	require.Equal(t, "bulbFinderMake", opts.Controls.For(domain.LevelMake))
	require.Equal(t, 3, opts.SelectAttempts)
	require.Equal(t, "15s", opts.OptionTimeout.String())
	require.Equal(t, "1s", opts.ModelExtraDelay.String())
}
