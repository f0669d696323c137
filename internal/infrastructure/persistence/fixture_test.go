package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/organization"
	"github.com/hrcore/promotion/internal/infrastructure/persistence/models"
	"github.com/hrcore/promotion/tests/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// directoryFixture is a small organization:
//
//	HQ
//	├── Dev
//	│   └── Backend
//	└── Sales
type directoryFixture struct {
	db     *gorm.DB
	grades map[string]organization.Grade
	depts  map[string]organization.Department
}

func newDirectoryFixture(t *testing.T) *directoryFixture {
	t.Helper()
	f := &directoryFixture{
		db:     testutil.NewSQLiteDB(t, models.All()...),
		grades: make(map[string]organization.Grade),
		depts:  make(map[string]organization.Department),
	}

	for i, name := range []string{"관리자", "사원", "주임", "대리", "과장"} {
		g := organization.Grade{ID: testutil.NewTestUUID("grade:" + name), Name: name, Rank: i, MinEvaluationPoint: 60 + 5*i}
		require.NoError(t, f.db.Create(models.GradeModelFromDomain(g)).Error)
		f.grades[name] = g
	}

	f.addDepartment(t, "HQ", "")
	f.addDepartment(t, "Sales", "HQ")
	f.addDepartment(t, "Dev", "HQ")
	f.addDepartment(t, "Backend", "Dev")
	return f
}

func (f *directoryFixture) addDepartment(t *testing.T, name, parent string) {
	t.Helper()
	d := organization.Department{ID: testutil.NewTestUUID("department:" + name), Name: name}
	if parent != "" {
		parentID := f.depts[parent].ID
		d.ParentID = &parentID
	}
	require.NoError(t, f.db.Create(models.DepartmentModelFromDomain(d)).Error)
	f.depts[name] = d
}

func (f *directoryFixture) addEmployee(t *testing.T, number, dept, grade string, point int) organization.Employee {
	t.Helper()
	e := organization.Employee{
		ID:              testutil.NewTestUUID("employee:" + number),
		EmployeeNumber:  number,
		Name:            "Employee " + number,
		DepartmentID:    f.depts[dept].ID,
		GradeID:         f.grades[grade].ID,
		EvaluationPoint: point,
	}
	require.NoError(t, f.db.Create(models.EmployeeModelFromDomain(e)).Error)
	return e
}

func (f *directoryFixture) employee(t *testing.T, id uuid.UUID) *organization.Employee {
	t.Helper()
	e, err := NewGormDirectoryRepository(f.db).FindEmployee(t.Context(), id)
	require.NoError(t, err)
	return e
}
