package recurrence

import (
	"context"
	"strings"
	"sync"
	"time"

	contractmq "focusflow/contracts/mq"
	"focusflow/internal/model"

	"github.com/google/uuid"
)

// memStore 同时实现实体、计划、生成日志和任务存储
type memStore struct {
	mu sync.Mutex

	entities  []model.RecurringEntity
	schedules map[uuid.UUID]*model.RecurrenceSchedule
	logs      []model.GenerationLogEntry
	tasks     map[uuid.UUID][]model.Task

	renameCalls int
	renames     int

	listErr   error
	createErr error
	logErr    error
	existsErr error
}

func newMemStore(entities ...model.RecurringEntity) *memStore {
	return &memStore{
		entities:  entities,
		schedules: make(map[uuid.UUID]*model.RecurrenceSchedule),
		tasks:     make(map[uuid.UUID][]model.Task),
	}
}

func (s *memStore) ListRecurring(context.Context) ([]model.RecurringEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]model.RecurringEntity, len(s.entities))
	copy(out, s.entities)
	return out, nil
}

func (s *memStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.RecurringEntity, error) {
	all, err := s.ListRecurring(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.RecurringEntity
	for _, e := range all {
		for _, id := range ids {
			if e.ID == id {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (s *memStore) RenameOverdue(_ context.Context, entity *model.RecurringEntity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renameCalls++
	for i := range s.entities {
		if s.entities[i].ID == entity.ID && !strings.Contains(s.entities[i].Name, model.OverdueMarker) {
			s.entities[i].Name = s.entities[i].OverdueName()
			s.renames++
		}
	}
	return nil
}

func (s *memStore) GetSchedule(_ context.Context, entityID uuid.UUID) (*model.RecurrenceSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedules[entityID], nil
}

func (s *memStore) ExistsForDay(_ context.Context, entityID uuid.UUID, dayStart, dayEnd time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	for _, l := range s.logs {
		if l.EntityID == entityID && !l.GenerationDate.Before(dayStart) && !l.GenerationDate.After(dayEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) Insert(_ context.Context, entry *model.GenerationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logErr != nil {
		return s.logErr
	}
	entry.ID = int64(len(s.logs) + 1)
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *memStore) TodayTaskNames(_ context.Context, entity *model.RecurringEntity, dayStart, dayEnd time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, t := range s.tasks[entity.ID] {
		if !t.StartTime.Before(dayStart) && !t.StartTime.After(dayEnd) {
			names = append(names, t.TaskName)
		}
	}
	return names, nil
}

func (s *memStore) CreateGenerated(_ context.Context, entity *model.RecurringEntity, _ time.Time, tasks []model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.tasks[entity.ID] = append(s.tasks[entity.ID], tasks...)
	return nil
}

func (s *memStore) logsFor(id uuid.UUID) []model.GenerationLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.GenerationLogEntry
	for _, l := range s.logs {
		if l.EntityID == id {
			out = append(out, l)
		}
	}
	return out
}

func (s *memStore) taskNames(id uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, t := range s.tasks[id] {
		out = append(out, t.TaskName)
	}
	return out
}

type recordingNotifier struct {
	payloads []contractmq.SweepCompletedPayload
}

func (n *recordingNotifier) SweepCompleted(_ context.Context, p contractmq.SweepCompletedPayload) {
	n.payloads = append(n.payloads, p)
}
