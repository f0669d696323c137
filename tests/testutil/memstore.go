package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	promotionapp "github.com/hrcore/promotion/internal/application/promotion"
	"github.com/hrcore/promotion/internal/domain/appointment"
	"github.com/hrcore/promotion/internal/domain/organization"
	"github.com/hrcore/promotion/internal/domain/promotion"
	"github.com/hrcore/promotion/internal/domain/shared"
)

// MemoryStore is an in-memory implementation of every promotion repository.
// Its transaction scope runs one function at a time and restores the previous
// state when the function fails, which mirrors a serializable database.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	plans        map[uuid.UUID]promotion.Plan
	details      map[uuid.UUID]promotion.Detail
	candidates   map[uuid.UUID]promotion.Candidate
	grades       []organization.Grade
	departments  map[uuid.UUID]organization.Department
	employees    map[uuid.UUID]organization.Employee
	history      []organization.GradeHistory
	appointments map[uuid.UUID]appointment.Appointment

	// UpdateGradeErr, when set, is returned by EmployeeWriter.UpdateGrade
	UpdateGradeErr error
	// UpdateAppointmentErr, when set, is returned by AppointmentRepository.Update
	UpdateAppointmentErr error
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans:        make(map[uuid.UUID]promotion.Plan),
		details:      make(map[uuid.UUID]promotion.Detail),
		candidates:   make(map[uuid.UUID]promotion.Candidate),
		departments:  make(map[uuid.UUID]organization.Department),
		employees:    make(map[uuid.UUID]organization.Employee),
		appointments: make(map[uuid.UUID]appointment.Appointment),
	}
}

// Seeding helpers

// AddGrade adds a grade to the ladder
func (s *MemoryStore) AddGrade(name string, rank, minPoint int) organization.Grade {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := organization.Grade{ID: NewTestUUID("grade:" + name), Name: name, Rank: rank, MinEvaluationPoint: minPoint}
	s.grades = append(s.grades, g)
	return g
}

// AddDepartment adds a department below parent (nil for a root)
func (s *MemoryStore) AddDepartment(name string, parent *uuid.UUID) organization.Department {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := organization.Department{ID: NewTestUUID("department:" + name), Name: name, ParentID: parent}
	s.departments[d.ID] = d
	return d
}

// AddEmployee adds an employee
func (s *MemoryStore) AddEmployee(number string, departmentID, gradeID uuid.UUID, point int) organization.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := organization.Employee{
		ID:              NewTestUUID("employee:" + number),
		EmployeeNumber:  number,
		Name:            "Employee " + number,
		DepartmentID:    departmentID,
		GradeID:         gradeID,
		EvaluationPoint: point,
	}
	s.employees[e.ID] = e
	return e
}

// Employee returns the current state of an employee
func (s *MemoryStore) Employee(id uuid.UUID) organization.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.employees[id]
}

// History returns the grade history rows of an employee
func (s *MemoryStore) History(employeeID uuid.UUID) []organization.GradeHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []organization.GradeHistory
	for _, h := range s.history {
		if h.EmployeeID == employeeID {
			out = append(out, h)
		}
	}
	return out
}

// Candidate returns the stored state of a candidate
func (s *MemoryStore) Candidate(id uuid.UUID) promotion.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidates[id]
}

// CandidatesOf returns the stored candidates of a detail
func (s *MemoryStore) CandidatesOf(detailID uuid.UUID) []promotion.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []promotion.Candidate
	for _, c := range s.candidates {
		if c.DetailID == detailID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EvaluationPointSnapshot > out[j].EvaluationPointSnapshot
	})
	return out
}

// Appointment returns the stored state of an appointment
func (s *MemoryStore) Appointment(id uuid.UUID) appointment.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appointments[id]
}

// Scope and repository accessors

// Execute implements promotionapp.TransactionScope
func (s *MemoryStore) Execute(_ context.Context, fn func(repos promotionapp.TransactionalRepositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// PlanRepo returns the plan repository
func (s *MemoryStore) PlanRepo() promotion.PlanRepository { return memPlans{s} }

// CandidateRepo returns the candidate repository
func (s *MemoryStore) CandidateRepo() promotion.CandidateRepository { return memCandidates{s} }

// Directory returns the employee directory
func (s *MemoryStore) Directory() organization.Directory { return memDirectory{s} }

// EmployeeWriter returns the employee writer
func (s *MemoryStore) EmployeeWriter() organization.EmployeeWriter { return memDirectory{s} }

// AppointmentRepo returns the appointment repository
func (s *MemoryStore) AppointmentRepo() appointment.AppointmentRepository {
	return memAppointments{s}
}

var _ promotionapp.TransactionScope = (*MemoryStore)(nil)
var _ promotionapp.TransactionalRepositories = (*MemoryStore)(nil)

type memSnapshot struct {
	plans        map[uuid.UUID]promotion.Plan
	details      map[uuid.UUID]promotion.Detail
	candidates   map[uuid.UUID]promotion.Candidate
	employees    map[uuid.UUID]organization.Employee
	history      []organization.GradeHistory
	appointments map[uuid.UUID]appointment.Appointment
}

func (s *MemoryStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		plans:        copyMap(s.plans),
		details:      copyMap(s.details),
		candidates:   copyMap(s.candidates),
		employees:    copyMap(s.employees),
		history:      append([]organization.GradeHistory(nil), s.history...),
		appointments: copyMap(s.appointments),
	}
}

func (s *MemoryStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = snap.plans
	s.details = snap.details
	s.candidates = snap.candidates
	s.employees = snap.employees
	s.history = snap.history
	s.appointments = snap.appointments
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// memPlans implements promotion.PlanRepository
type memPlans struct{ s *MemoryStore }

func (r memPlans) Create(_ context.Context, plan *promotion.Plan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *plan
	stored.ClearDomainEvents()
	stored.Details = append([]promotion.Detail(nil), plan.Details...)
	r.s.plans[plan.ID] = stored
	for _, d := range plan.Details {
		r.s.details[d.ID] = d
	}
	return nil
}

func (r memPlans) FindByID(_ context.Context, id uuid.UUID) (*promotion.Plan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.plans[id]
	if !ok {
		return nil, promotion.ErrPlanNotFound
	}
	p.Details = append([]promotion.Detail(nil), p.Details...)
	return &p, nil
}

func (r memPlans) FindDetail(_ context.Context, id uuid.UUID) (*promotion.Detail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.details[id]
	if !ok {
		return nil, promotion.ErrDetailNotFound
	}
	return &d, nil
}

// LockDetail relies on the scope running one transaction at a time
func (r memPlans) LockDetail(ctx context.Context, id uuid.UUID) (*promotion.Detail, error) {
	return r.FindDetail(ctx, id)
}

// memCandidates implements promotion.CandidateRepository
type memCandidates struct{ s *MemoryStore }

func (r memCandidates) CreateBatch(_ context.Context, candidates []*promotion.Candidate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range candidates {
		stored := *c
		stored.ClearDomainEvents()
		r.s.candidates[c.ID] = stored
	}
	return nil
}

func (r memCandidates) FindByID(_ context.Context, id uuid.UUID) (*promotion.Candidate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.candidates[id]
	if !ok {
		return nil, promotion.ErrCandidateNotFound
	}
	return &c, nil
}

func (r memCandidates) FindByDetail(_ context.Context, detailID uuid.UUID, page, pageSize int) ([]*promotion.Candidate, int64, error) {
	all := r.s.CandidatesOf(detailID)
	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	out := make([]*promotion.Candidate, 0, end-start)
	for i := start; i < end; i++ {
		c := all[i]
		out = append(out, &c)
	}
	return out, int64(len(all)), nil
}

func (r memCandidates) FindEmployeeIDsByDetail(_ context.Context, detailID uuid.UUID) (map[uuid.UUID]bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]bool)
	for _, c := range r.s.candidates {
		if c.DetailID == detailID {
			out[c.EmployeeID] = true
		}
	}
	return out, nil
}

func (r memCandidates) CountByDetailAndStatus(_ context.Context, detailID uuid.UUID, statuses ...promotion.CandidateStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, c := range r.s.candidates {
		if c.DetailID != detailID {
			continue
		}
		for _, st := range statuses {
			if c.Status == st {
				n++
				break
			}
		}
	}
	return n, nil
}

func (r memCandidates) Update(_ context.Context, candidate *promotion.Candidate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.candidates[candidate.ID]
	if !ok {
		return promotion.ErrCandidateNotFound
	}
	if current.Version != candidate.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	stored := *candidate
	stored.ClearDomainEvents()
	r.s.candidates[candidate.ID] = stored
	return nil
}

// memDirectory implements organization.Directory and organization.EmployeeWriter
type memDirectory struct{ s *MemoryStore }

func (r memDirectory) ChildDepartmentIDs(_ context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []uuid.UUID
	for _, d := range r.s.departments {
		if d.ParentID != nil && *d.ParentID == parentID {
			out = append(out, d.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.departments[out[i]].Name < r.s.departments[out[j]].Name
	})
	return out, nil
}

func (r memDirectory) GradeLadder(_ context.Context) (*organization.GradeLadder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return organization.NewGradeLadder(r.s.grades)
}

func (r memDirectory) DepartmentExists(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.departments[id]
	return ok, nil
}

func (r memDirectory) FindEmployee(_ context.Context, id uuid.UUID) (*organization.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.employees[id]
	if !ok {
		return nil, organization.ErrEmployeeNotFound
	}
	return &e, nil
}

func (r memDirectory) FindEmployeeByNumber(_ context.Context, number string) (*organization.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.employees {
		if e.EmployeeNumber == number {
			return &e, nil
		}
	}
	return nil, organization.ErrEmployeeNotFound
}

func (r memDirectory) FindEligibleEmployees(_ context.Context, criteria organization.EligibilityCriteria) ([]organization.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inScope := make(map[uuid.UUID]bool, len(criteria.DepartmentIDs))
	for _, id := range criteria.DepartmentIDs {
		inScope[id] = true
	}
	var out []organization.Employee
	for _, e := range r.s.employees {
		if e.GradeID == criteria.GradeID && inScope[e.DepartmentID] && e.EvaluationPoint >= criteria.MinEvaluationPoint {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EvaluationPoint != out[j].EvaluationPoint {
			return out[i].EvaluationPoint > out[j].EvaluationPoint
		}
		return out[i].EmployeeNumber < out[j].EmployeeNumber
	})
	return out, nil
}

func (r memDirectory) UpdateGrade(_ context.Context, employeeID, gradeID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.UpdateGradeErr != nil {
		return r.s.UpdateGradeErr
	}
	e, ok := r.s.employees[employeeID]
	if !ok {
		return organization.ErrEmployeeNotFound
	}
	e.GradeID = gradeID
	r.s.employees[employeeID] = e
	return nil
}

func (r memDirectory) UpdateAssignment(_ context.Context, employeeID uuid.UUID, a organization.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.employees[employeeID]
	if !ok {
		return organization.ErrEmployeeNotFound
	}
	if a.DepartmentID != nil {
		if _, ok := r.s.departments[*a.DepartmentID]; !ok {
			return organization.ErrDepartmentNotFound
		}
		e.DepartmentID = *a.DepartmentID
	}
	if a.JobTitle != nil {
		e.JobTitle = *a.JobTitle
	}
	r.s.employees[employeeID] = e
	return nil
}

func (r memDirectory) AppendGradeHistory(_ context.Context, h *organization.GradeHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.history = append(r.s.history, *h)
	return nil
}

func (r memDirectory) CountGradeHistory(_ context.Context, employeeID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, h := range r.s.history {
		if h.EmployeeID == employeeID {
			n++
		}
	}
	return n, nil
}

// memAppointments implements appointment.AppointmentRepository
type memAppointments struct{ s *MemoryStore }

func (r memAppointments) Create(_ context.Context, a *appointment.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.SourceDocID != "" {
		for _, existing := range r.s.appointments {
			if existing.SourceDocID == a.SourceDocID {
				return shared.NewDomainError(shared.ErrAlreadyExists.Code, "Appointment for document already exists")
			}
		}
	}
	stored := *a
	stored.ClearDomainEvents()
	r.s.appointments[a.ID] = stored
	return nil
}

func (r memAppointments) FindByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (r memAppointments) FindBySourceDocID(_ context.Context, docID string) (*appointment.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.appointments {
		if a.SourceDocID == docID {
			return &a, nil
		}
	}
	return nil, appointment.ErrAppointmentNotFound
}

func (r memAppointments) FindDue(_ context.Context, today time.Time, limit int) ([]*appointment.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range r.s.appointments {
		if a.IsDue(today) {
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveDate.Equal(out[j].EffectiveDate) {
			return out[i].EffectiveDate.Before(out[j].EffectiveDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memAppointments) Update(_ context.Context, a *appointment.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.UpdateAppointmentErr != nil {
		return r.s.UpdateAppointmentErr
	}
	current, ok := r.s.appointments[a.ID]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	if current.Status != appointment.StatusPending {
		return shared.ErrConcurrencyConflict
	}
	r.s.appointments[a.ID] = *a
	return nil
}
