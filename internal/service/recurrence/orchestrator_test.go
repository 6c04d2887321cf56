package recurrence

import (
	"context"
	"errors"
	"testing"
	"time"

	"focusflow/internal/calendar"
	"focusflow/internal/checkstate"
	"focusflow/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	store    *memStore
	checks   *checkstate.MemoryStore
	notifier *recordingNotifier
	clock    *calendar.FakeClock
	orch     *Orchestrator
}

func newHarness(window time.Duration, entities ...model.RecurringEntity) *harness {
	h := &harness{
		store:    newMemStore(entities...),
		checks:   checkstate.NewMemoryStore(),
		notifier: &recordingNotifier{},
		clock:    calendar.NewFakeClock(monday.Time),
	}
	logger := zap.NewNop()
	gate := NewGate(h.store, h.store, UnscheduledAllow, logger)
	mat := NewMaterializer(h.store, h.store, DefaultMaterializerConfig(), logger)
	h.orch = NewOrchestrator(h.store, h.store, h.store, gate, mat, h.checks, h.notifier, h.clock,
		OrchestratorConfig{Location: time.UTC, RateLimitWindow: window}, logger)
	return h
}

func resultFor(t *testing.T, report *SweepReport, id uuid.UUID) EntityResult {
	t.Helper()
	for _, r := range report.Results {
		if r.EntityID == id {
			return r
		}
	}
	t.Fatalf("no result for %s", id)
	return EntityResult{}
}

func TestRunSweep_NotScheduledCreatesNothing(t *testing.T) {
	disabled := model.RecurringEntity{ID: uuid.New(), Name: "Disabled", DailyTaskCount: 2}
	otherDay := model.RecurringEntity{ID: uuid.New(), Name: "Tuesdays", DailyTaskCount: 2}
	h := newHarness(0, disabled, otherDay)
	h.store.schedules[disabled.ID] = &model.RecurrenceSchedule{EntityID: disabled.ID, Enabled: false, DaysOfWeek: []calendar.DayName{calendar.Monday}}
	h.store.schedules[otherDay.ID] = &model.RecurrenceSchedule{EntityID: otherDay.ID, Enabled: true, DaysOfWeek: []calendar.DayName{calendar.Tuesday}}

	report, err := h.orch.RunSweep(context.Background(), SweepRequest{})
	require.NoError(t, err)

	for _, id := range []uuid.UUID{disabled.ID, otherDay.ID} {
		assert.Equal(t, StatusSkippedNotScheduled, resultFor(t, report, id).Status)
		assert.Empty(t, h.store.taskNames(id))
		assert.Empty(t, h.store.logsFor(id))
	}
}

func TestRunSweep_IsIdempotentWithinADay(t *testing.T) {
	a := model.RecurringEntity{ID: uuid.New(), Kind: model.EntityKindProject, Name: "A", DailyTaskCount: 2}
	b := model.RecurringEntity{ID: uuid.New(), Kind: model.EntityKindTaskList, Name: "B", DailyTaskCount: 1}
	h := newHarness(0, a, b)
	h.store.schedules[a.ID] = &model.RecurrenceSchedule{EntityID: a.ID, Enabled: true, DaysOfWeek: []calendar.DayName{calendar.Monday}, DailyTaskCount: 2}

	first, err := h.orch.RunSweep(context.Background(), SweepRequest{})
	require.NoError(t, err)
	assert.Equal(t, StatusGenerated, resultFor(t, first, a.ID).Status)
	assert.Equal(t, 2, resultFor(t, first, a.ID).TasksCreated)
	assert.Equal(t, StatusGenerated, resultFor(t, first, b.ID).Status)

	h.clock.Advance(time.Second)
	second, err := h.orch.RunSweep(context.Background(), SweepRequest{})
	require.NoError(t, err)
	for _, r := range second.Results {
		assert.Equal(t, StatusSkippedAlreadyGenerated, r.Status)
	}

	assert.Equal(t, []string{"A - Task 1", "A - Task 2"}, h.store.taskNames(a.ID))
	assert.Len(t, h.store.taskNames(b.ID), 1)
}

func TestRunSweep_CreatesOnlyMissingTasks(t *testing.T) {
	e := model.RecurringEntity{ID: uuid.New(), Kind: model.EntityKindProject, Name: "Proj", DailyTaskCount: 3}
	h := newHarness(0, e)
	h.store.tasks[e.ID] = []model.Task{{TaskName: "Proj - Task 1", StartTime: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}}

	report, err := h.orch.RunSweep(context.Background(), SweepRequest{})
	require.NoError(t, err)

	res := resultFor(t, report, e.ID)
	assert.Equal(t, StatusGenerated, res.Status)
	assert.Equal(t, 2, res.TasksCreated)

	logs := h.store.logsFor(e.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, 2, logs[0].TasksGenerated)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), logs[0].GenerationDate)
	assert.ElementsMatch(t, []string{"Proj - Task 1", "Proj - Task 1 (1)", "Proj - Task 2"}, h.store.taskNames(e.ID))
}

func TestRunSweep_ExistingTasksAreLogged(t *testing.T) {
	e := model.RecurringEntity{ID: uuid.New(), Name: "Seeded", DailyTaskCount: 1}
	h := newHarness(0, e)
	h.store.tasks[e.ID] = []model.Task{
		{TaskName: "manual 1", StartTime: time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)},
		{TaskName: "manual 2", StartTime: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)},
		// 前一天的任务不计入
		{TaskName: "yesterday", StartTime: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)},
	}

	report, err := h.orch.RunSweep(context.Background(), SweepRequest{})
	require.NoError(t, err)
	assert.Equal(t, StatusExistingTasksLogged, resultFor(t, report, e.ID).Status)

	logs := h.store.logsFor(e.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, 2, logs[0].TasksGenerated)

	forced, err := h.orch.RunSweep(context.Background(), SweepRequest{ForceCheck: true})
	require.NoError(t, err)
	assert.Equal(t, StatusSkippedNoTasksNeeded, resultFor(t, forced, e.ID).Status)
	assert.Len(t, h.store.logsFor(e.ID), 1)
}

func TestRunSweep_OutOfRangeRenamesOnce(t *testing.T) {
	e := model.RecurringEntity{ID: uuid.New(), Name: "Expired", DailyTaskCount: 1, DueDate: ptr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))}
	h := newHarness(0, e)

	for i := 0; i < 2; i++ {
		report, err := h.orch.RunSweep(context.Background(), SweepRequest{ForceCheck: true})
		require.NoError(t, err)
		assert.Equal(t, StatusSkippedOutOfRange, resultFor(t, report, e.ID).Status)
	}

	assert.Equal(t, 1, h.store.renames)
	assert.Equal(t, "Expired (overdue)", h.store.entities[0].Name)
	assert.Empty(t, h.store.taskNames(e.ID))
}

func TestRunSweep_RateLimit(t *testing.T) {
	e := model.RecurringEntity{ID: uuid.New(), Name: "P", DailyTaskCount: 1}
	h := newHarness(15*time.Minute, e)
	require.NoError(t, h.checks.Save(context.Background(), map[uuid.UUID]time.Time{e.ID: monday.Time.Add(-5 * time.Minute)}))

	report, err := h.orch.RunSweep(context.Background(), SweepRequest{})
	require.NoError(t, err)
	res := resultFor(t, report, e.ID)
	assert.Equal(t, StatusSkippedRateLimited, res.Status)
	assert.Equal(t, "checked 5m0s ago", res.Reason)
	assert.Empty(t, h.store.taskNames(e.ID))

	forced, err := h.orch.RunSweep(context.Background(), SweepRequest{ForceCheck: true})
	require.NoError(t, err)
	assert.Equal(t, StatusGenerated, resultFor(t, forced, e.ID).Status)

	// 强制检查会刷新 last check
	state, err := h.checks.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, monday.Time, state[e.ID])

	h.clock.Advance(20 * time.Minute)
	later, err := h.orch.RunSweep(context.Background(), SweepRequest{})
	require.NoError(t, err)
	assert.Equal(t, StatusSkippedAlreadyGenerated, resultFor(t, later, e.ID).Status)
}

func TestRunSweep_ForceBypassesScheduleAndLog(t *testing.T) {
	e := model.RecurringEntity{ID: uuid.New(), Name: "P", DailyTaskCount: 2}
	h := newHarness(0, e)
	h.store.schedules[e.ID] = &model.RecurrenceSchedule{EntityID: e.ID, Enabled: false}
	h.store.logs = append(h.store.logs, model.GenerationLogEntry{EntityID: e.ID, GenerationDate: calendar.StartOfDay(monday.Time)})

	report, err := h.orch.RunSweep(context.Background(), SweepRequest{ForceCheck: true})
	require.NoError(t, err)
	res := resultFor(t, report, e.ID)
	assert.Equal(t, StatusGenerated, res.Status)
	assert.Equal(t, 2, res.TasksCreated)
}

func TestRunSweep_DayOverride(t *testing.T) {
	e := model.RecurringEntity{ID: uuid.New(), Name: "P", DailyTaskCount: 1}
	h := newHarness(0, e)
	h.store.schedules[e.ID] = &model.RecurrenceSchedule{EntityID: e.ID, Enabled: true, DaysOfWeek: []calendar.DayName{calendar.Friday}}

	report, err := h.orch.RunSweep(context.Background(), SweepRequest{DayOverride: " friday "})
	require.NoError(t, err)
	assert.Equal(t, calendar.Friday, report.Day)
	assert.Equal(t, StatusGenerated, resultFor(t, report, e.ID).Status)

	_, err = h.orch.RunSweep(context.Background(), SweepRequest{DayOverride: "someday"})
	require.ErrorIs(t, err, ErrInvalidDayOverride)
}

func TestRunSweep_EmbeddedEntitiesAndSchedules(t *testing.T) {
	stored := model.RecurringEntity{ID: uuid.New(), Name: "Stored", DailyTaskCount: 1}
	h := newHarness(0, stored)

	inline := model.RecurringEntity{
		ID:             uuid.New(),
		Name:           "Inline",
		DailyTaskCount: 1,
		Schedule:       &model.RecurrenceSchedule{Enabled: true, DaysOfWeek: []calendar.DayName{calendar.Monday}, DailyTaskCount: 3},
	}
	report, err := h.orch.RunSweep(context.Background(), SweepRequest{Entities: []model.RecurringEntity{inline}})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, 3, report.Results[0].TasksCreated)

	byID, err := h.orch.RunSweep(context.Background(), SweepRequest{EntityIDs: []uuid.UUID{stored.ID}})
	require.NoError(t, err)
	require.Len(t, byID.Results, 1)
	assert.Equal(t, stored.ID, byID.Results[0].EntityID)
}

func TestRunSweep_PerEntityErrorsDoNotAbort(t *testing.T) {
	a := model.RecurringEntity{ID: uuid.New(), Name: "A", DailyTaskCount: 1}
	b := model.RecurringEntity{ID: uuid.New(), Name: "B", DailyTaskCount: 1}
	h := newHarness(0, a, b)
	h.store.createErr = errors.New("disk full")

	report, err := h.orch.RunSweep(context.Background(), SweepRequest{})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	for _, r := range report.Results {
		assert.Equal(t, StatusError, r.Status)
		assert.Contains(t, r.Reason, "disk full")
	}
	assert.Empty(t, h.store.logs)

	// 没写日志，修复后下一次 sweep 可以重新生成
	h.store.createErr = nil
	retry, err := h.orch.RunSweep(context.Background(), SweepRequest{})
	require.NoError(t, err)
	for _, r := range retry.Results {
		assert.Equal(t, StatusGenerated, r.Status)
	}
}

func TestRunSweep_LogFailureReportsCreatedTasks(t *testing.T) {
	e := model.RecurringEntity{ID: uuid.New(), Name: "P", DailyTaskCount: 2}
	h := newHarness(0, e)
	h.store.logErr = errors.New("log table locked")

	report, err := h.orch.RunSweep(context.Background(), SweepRequest{})
	require.NoError(t, err)
	res := resultFor(t, report, e.ID)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, 2, res.TasksCreated)
}

func TestRunSweep_TopLevelErrorsAbort(t *testing.T) {
	h := newHarness(0, model.RecurringEntity{ID: uuid.New(), Name: "P", DailyTaskCount: 1})
	h.store.listErr = errors.New("connection refused")

	report, err := h.orch.RunSweep(context.Background(), SweepRequest{})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Empty(t, h.notifier.payloads)
}

func TestRunSweep_PublishesCompletion(t *testing.T) {
	e := model.RecurringEntity{ID: uuid.New(), Name: "P", DailyTaskCount: 1}
	h := newHarness(0, e)

	_, err := h.orch.RunSweep(context.Background(), SweepRequest{})
	require.NoError(t, err)

	require.Len(t, h.notifier.payloads, 1)
	p := h.notifier.payloads[0]
	assert.Equal(t, "Monday", p.Day)
	assert.Equal(t, map[string]int{"generated": 1}, p.StatusCount)
	require.Len(t, p.Results, 1)
	assert.Equal(t, e.ID.String(), p.Results[0].EntityID)
}

func TestRunSweep_CancelledContextStillFinishesEntities(t *testing.T) {
	e := model.RecurringEntity{ID: uuid.New(), Name: "P", DailyTaskCount: 1}
	h := newHarness(0, e)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := h.orch.RunSweep(ctx, SweepRequest{Entities: []model.RecurringEntity{e}})
	require.NoError(t, err)
	assert.Equal(t, StatusGenerated, resultFor(t, report, e.ID).Status)
}
