// Package memory provides in-process implementations of the repository
// interfaces. They back the "memory" database driver and the service tests.
package memory

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/repository"
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanRepository implements repository.PlanRepository in memory.
type PlanRepository struct {
	mu    sync.RWMutex
	plans map[primitive.ObjectID]domain.WorkoutPlan
}

// NewPlanRepository creates an empty plan store.
func NewPlanRepository() *PlanRepository {
	return &PlanRepository{plans: make(map[primitive.ObjectID]domain.WorkoutPlan)}
}

var _ repository.PlanRepository = (*PlanRepository)(nil)

func clonePlan(p domain.WorkoutPlan) domain.WorkoutPlan {
	for i := range p.Template {
		if p.Template[i].Exercises != nil {
			exercises := make([]domain.ExerciseTemplate, len(p.Template[i].Exercises))
			copy(exercises, p.Template[i].Exercises)
			p.Template[i].Exercises = exercises
		}
	}
	if p.StartDate != nil {
		d := *p.StartDate
		p.StartDate = &d
	}
	if p.EndDate != nil {
		d := *p.EndDate
		p.EndDate = &d
	}
	return p
}

func (r *PlanRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	if plan.OwnerID == primitive.NilObjectID || plan.Name == "" {
		return primitive.NilObjectID, errors.New("plan requires ownerId and name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	r.plans[plan.ID] = clonePlan(*plan)
	return plan.ID, nil
}

func (r *PlanRepository) GetByID(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[id]
	if !ok || p.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	p = clonePlan(p)
	return &p, nil
}

func (r *PlanRepository) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	plans := r.filter(func(p domain.WorkoutPlan) bool { return p.OwnerID == ownerID })
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].CreatedAt.After(plans[j].CreatedAt) })
	return plans, nil
}

func (r *PlanRepository) GetActive(ctx context.Context, ownerID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plans := r.filter(func(p domain.WorkoutPlan) bool { return p.OwnerID == ownerID && p.IsActive })
	if len(plans) == 0 {
		return nil, repository.ErrNotFound
	}
	return &plans[0], nil
}

func (r *PlanRepository) ListActive(ctx context.Context) ([]domain.WorkoutPlan, error) {
	plans := r.filter(func(p domain.WorkoutPlan) bool { return p.IsActive })
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].OwnerID.Hex() < plans[j].OwnerID.Hex() })
	return plans, nil
}

func (r *PlanRepository) FindDatedOverlapping(ctx context.Context, ownerID primitive.ObjectID, start, end time.Time, excludeID *primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	start, end = domain.DateOf(start), domain.DateOf(end)
	plans := r.filter(func(p domain.WorkoutPlan) bool {
		if p.OwnerID != ownerID || p.Mode != domain.ModeDated || p.StartDate == nil || p.EndDate == nil {
			return false
		}
		if excludeID != nil && p.ID == *excludeID {
			return false
		}
		return !domain.DateOf(*p.StartDate).After(end) && !start.After(domain.DateOf(*p.EndDate))
	})
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].StartDate.Before(*plans[j].StartDate) })
	return plans, nil
}

func (r *PlanRepository) Update(ctx context.Context, plan *domain.WorkoutPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.plans[plan.ID]
	if !ok || existing.OwnerID != plan.OwnerID {
		return repository.ErrNotFound
	}
	updated := clonePlan(*plan)
	updated.IsActive = existing.IsActive
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	plan.UpdatedAt = updated.UpdatedAt
	r.plans[plan.ID] = updated
	return nil
}

func (r *PlanRepository) SetActive(ctx context.Context, ownerID, id primitive.ObjectID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok || p.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	if active {
		// Mirrors the unique partial index on (ownerId, isActive=true).
		for otherID, other := range r.plans {
			if otherID != id && other.OwnerID == ownerID && other.IsActive {
				return repository.ErrDuplicate
			}
		}
	}
	p.IsActive = active
	p.UpdatedAt = time.Now().UTC()
	r.plans[id] = p
	return nil
}

func (r *PlanRepository) Delete(ctx context.Context, ownerID, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok || p.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *PlanRepository) filter(keep func(domain.WorkoutPlan) bool) []domain.WorkoutPlan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.WorkoutPlan{}
	for _, p := range r.plans {
		if keep(p) {
			out = append(out, clonePlan(p))
		}
	}
	return out
}

// InstanceRepository implements repository.InstanceRepository in memory.
type InstanceRepository struct {
	mu        sync.RWMutex
	instances map[primitive.ObjectID]domain.ScheduledExerciseInstance
}

// NewInstanceRepository creates an empty instance store.
func NewInstanceRepository() *InstanceRepository {
	return &InstanceRepository{instances: make(map[primitive.ObjectID]domain.ScheduledExerciseInstance)}
}

var _ repository.InstanceRepository = (*InstanceRepository)(nil)

func cloneInstance(i domain.ScheduledExerciseInstance) domain.ScheduledExerciseInstance {
	if i.Plates != nil {
		plates := make([]domain.PlateLoad, len(i.Plates))
		copy(plates, i.Plates)
		i.Plates = plates
	}
	if i.SourcePlanID != nil {
		id := *i.SourcePlanID
		i.SourcePlanID = &id
	}
	if i.CompletedAt != nil {
		t := *i.CompletedAt
		i.CompletedAt = &t
	}
	if i.GeneratedAt != nil {
		t := *i.GeneratedAt
		i.GeneratedAt = &t
	}
	return i
}

// dayOrderLess sorts by order index, then insertion (createdAt, id).
func dayOrderLess(a, b domain.ScheduledExerciseInstance) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

func (r *InstanceRepository) insertLocked(inst *domain.ScheduledExerciseInstance) {
	inst.ID = primitive.NewObjectID()
	inst.Date = domain.DateOf(inst.Date)
	now := time.Now().UTC()
	inst.CreatedAt = now
	inst.UpdatedAt = now
	r.instances[inst.ID] = cloneInstance(*inst)
}

func (r *InstanceRepository) Create(ctx context.Context, inst *domain.ScheduledExerciseInstance) (primitive.ObjectID, error) {
	if inst.OwnerID == primitive.NilObjectID || inst.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("instance requires ownerId and exerciseId")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if inst.SourcePlanID != nil && r.existsLocked(inst) {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	r.insertLocked(inst)
	return inst.ID, nil
}

func (r *InstanceRepository) CreateIfAbsent(ctx context.Context, inst *domain.ScheduledExerciseInstance) (bool, error) {
	if inst.SourcePlanID == nil {
		return false, errors.New("CreateIfAbsent requires sourcePlanId")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsLocked(inst) {
		return false, nil
	}
	r.insertLocked(inst)
	return true, nil
}

func (r *InstanceRepository) existsLocked(inst *domain.ScheduledExerciseInstance) bool {
	date := domain.DateOf(inst.Date)
	for _, existing := range r.instances {
		if existing.OwnerID == inst.OwnerID &&
			existing.FromPlan(*inst.SourcePlanID) &&
			existing.ExerciseID == inst.ExerciseID &&
			existing.Date.Equal(date) {
			return true
		}
	}
	return false
}

func (r *InstanceRepository) GetByID(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.ScheduledExerciseInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	if !ok || inst.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	inst = cloneInstance(inst)
	return &inst, nil
}

func (r *InstanceRepository) ListByDate(ctx context.Context, ownerID primitive.ObjectID, date time.Time) ([]domain.ScheduledExerciseInstance, error) {
	return r.ListByRange(ctx, ownerID, date, date)
}

func (r *InstanceRepository) ListByRange(ctx context.Context, ownerID primitive.ObjectID, from, to time.Time) ([]domain.ScheduledExerciseInstance, error) {
	from, to = domain.DateOf(from), domain.DateOf(to)
	r.mu.RLock()
	out := []domain.ScheduledExerciseInstance{}
	for _, inst := range r.instances {
		if inst.OwnerID == ownerID && !inst.Date.Before(from) && !inst.Date.After(to) {
			out = append(out, cloneInstance(inst))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return dayOrderLess(out[i], out[j])
	})
	return out, nil
}

func (r *InstanceRepository) LatestDateForPlan(ctx context.Context, ownerID, planID primitive.ObjectID) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *time.Time
	for _, inst := range r.instances {
		if inst.OwnerID != ownerID || !inst.FromPlan(planID) {
			continue
		}
		if latest == nil || inst.Date.After(*latest) {
			d := inst.Date
			latest = &d
		}
	}
	return latest, nil
}

func (r *InstanceRepository) Update(ctx context.Context, inst *domain.ScheduledExerciseInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.instances[inst.ID]
	if !ok || existing.OwnerID != inst.OwnerID {
		return repository.ErrNotFound
	}
	existing.Sets = inst.Sets
	existing.Reps = inst.Reps
	existing.Weight = inst.Weight
	existing.Plates = inst.Plates
	existing.Notes = inst.Notes
	existing.Completed = inst.Completed
	existing.CompletedAt = inst.CompletedAt
	existing.IsHidden = inst.IsHidden
	existing.ModifiedByUser = inst.ModifiedByUser
	existing.UpdatedAt = time.Now().UTC()
	inst.UpdatedAt = existing.UpdatedAt
	r.instances[inst.ID] = cloneInstance(existing)
	return nil
}

func (r *InstanceRepository) UpdateOrders(ctx context.Context, ownerID primitive.ObjectID, orders map[primitive.ObjectID]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range orders {
		if existing, ok := r.instances[id]; !ok || existing.OwnerID != ownerID {
			return repository.ErrNotFound
		}
	}
	now := time.Now().UTC()
	for id, order := range orders {
		existing := r.instances[id]
		existing.Order = order
		existing.UpdatedAt = now
		r.instances[id] = existing
	}
	return nil
}

func (r *InstanceRepository) Delete(ctx context.Context, ownerID, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.instances[id]
	if !ok || existing.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.instances, id)
	return nil
}

func (r *InstanceRepository) DeleteByDate(ctx context.Context, ownerID primitive.ObjectID, date time.Time) (int64, error) {
	date = domain.DateOf(date)
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, inst := range r.instances {
		if inst.OwnerID == ownerID && inst.Date.Equal(date) {
			delete(r.instances, id)
			deleted++
		}
	}
	return deleted, nil
}

// OverrideRepository implements repository.OverrideRepository in memory.
type OverrideRepository struct {
	mu        sync.RWMutex
	overrides map[overrideKey]domain.HiddenOccurrence
}

type overrideKey struct {
	owner, plan, exercise primitive.ObjectID
	date                  time.Time
}

// NewOverrideRepository creates an empty override ledger.
func NewOverrideRepository() *OverrideRepository {
	return &OverrideRepository{overrides: make(map[overrideKey]domain.HiddenOccurrence)}
}

var _ repository.OverrideRepository = (*OverrideRepository)(nil)

func (r *OverrideRepository) Hide(ctx context.Context, o *domain.HiddenOccurrence) error {
	o.Date = domain.DateOf(o.Date)
	key := overrideKey{o.OwnerID, o.PlanID, o.ExerciseID, o.Date}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.overrides[key]; ok {
		o.ID = existing.ID
		return nil
	}
	o.ID = primitive.NewObjectID()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	r.overrides[key] = *o
	return nil
}

func (r *OverrideRepository) Unhide(ctx context.Context, ownerID, planID, exerciseID primitive.ObjectID, date time.Time) error {
	key := overrideKey{ownerID, planID, exerciseID, domain.DateOf(date)}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.overrides[key]; !ok {
		return repository.ErrNotFound
	}
	delete(r.overrides, key)
	return nil
}

func (r *OverrideRepository) ListForPlanOnDate(ctx context.Context, ownerID, planID primitive.ObjectID, date time.Time) ([]domain.HiddenOccurrence, error) {
	date = domain.DateOf(date)
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.HiddenOccurrence{}
	for key, o := range r.overrides {
		if key.owner == ownerID && key.plan == planID && key.date.Equal(date) {
			out = append(out, o)
		}
	}
	return out, nil
}

// CatalogRepository implements repository.CatalogRepository over fixed maps.
type CatalogRepository struct {
	mu         sync.RWMutex
	exercises  map[primitive.ObjectID]domain.Exercise
	categories map[primitive.ObjectID]domain.Category
}

// NewCatalogRepository creates an empty catalog.
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		exercises:  make(map[primitive.ObjectID]domain.Exercise),
		categories: make(map[primitive.ObjectID]domain.Category),
	}
}

var _ repository.CatalogRepository = (*CatalogRepository)(nil)

// PutExercise adds or replaces a catalog exercise.
func (r *CatalogRepository) PutExercise(ex domain.Exercise) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exercises[ex.ID] = ex
}

// PutCategory adds or replaces a catalog category.
func (r *CatalogRepository) PutCategory(c domain.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[c.ID] = c
}

func (r *CatalogRepository) ExercisesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[primitive.ObjectID]domain.Exercise, len(ids))
	for _, id := range ids {
		if ex, ok := r.exercises[id]; ok {
			out[id] = ex
		}
	}
	return out, nil
}

func (r *CatalogRepository) CategoriesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[primitive.ObjectID]domain.Category, len(ids))
	for _, id := range ids {
		if c, ok := r.categories[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}
