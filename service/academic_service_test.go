// service/academic_service_test.go
package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/campusmesh/campus/api/errors"
	"github.com/campusmesh/campus/api/model"
	"github.com/campusmesh/campus/api/service"
	"github.com/campusmesh/campus/api/util"
)

type fakeInstitutionRepo struct {
	institutions map[string]*model.Institution
	nameTaken    bool
	setActive    []bool
	softDeleted  []string
}

func newFakeInstitutionRepo(institutions ...model.Institution) *fakeInstitutionRepo {
	f := &fakeInstitutionRepo{institutions: make(map[string]*model.Institution)}
	for i := range institutions {
		f.institutions[institutions[i].ID] = &institutions[i]
	}
	return f
}

func (f *fakeInstitutionRepo) CreateInstitution(ctx context.Context, institution model.Institution) (string, error) {
	institution.ID = "inst::created"
	f.institutions[institution.ID] = &institution
	return institution.ID, nil
}

func (f *fakeInstitutionRepo) UpdateInstitution(ctx context.Context, institution model.Institution) (*model.Institution, error) {
	f.institutions[institution.ID] = &institution
	return &institution, nil
}

func (f *fakeInstitutionRepo) SetActive(ctx context.Context, institutionID string, active bool) error {
	f.setActive = append(f.setActive, active)
	return nil
}

func (f *fakeInstitutionRepo) SoftDeleteInstitution(ctx context.Context, institutionID string) error {
	f.softDeleted = append(f.softDeleted, institutionID)
	return nil
}

func (f *fakeInstitutionRepo) GetInstitution(ctx context.Context, institutionID string) (*model.Institution, error) {
	institution, ok := f.institutions[institutionID]
	if !ok {
		return nil, apperrors.ErrInstitutionNotFound
	}
	copied := *institution
	return &copied, nil
}

func (f *fakeInstitutionRepo) ListInstitutions(ctx context.Context, limit, offset int) ([]*model.Institution, error) {
	var institutions []*model.Institution
	for _, institution := range f.institutions {
		institutions = append(institutions, institution)
	}
	return institutions, nil
}

func (f *fakeInstitutionRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	return f.nameTaken, nil
}

type fakeProgramRepo struct {
	programs  map[string]*model.AcademicProgram
	nameTaken bool
	created   []model.AcademicProgram
	setActive []bool
}

func newFakeProgramRepo() *fakeProgramRepo {
	return &fakeProgramRepo{programs: make(map[string]*model.AcademicProgram)}
}

func (f *fakeProgramRepo) CreateProgram(ctx context.Context, program model.AcademicProgram) (string, error) {
	program.ID = "prog::created"
	f.created = append(f.created, program)
	f.programs[program.ID] = &program
	return program.ID, nil
}

func (f *fakeProgramRepo) UpdateProgram(ctx context.Context, program model.AcademicProgram) (*model.AcademicProgram, error) {
	f.programs[program.ID] = &program
	return &program, nil
}

func (f *fakeProgramRepo) SetActive(ctx context.Context, institutionID, programID string, active bool) error {
	f.setActive = append(f.setActive, active)
	return nil
}

func (f *fakeProgramRepo) SoftDeleteProgram(ctx context.Context, institutionID, programID string) error {
	return nil
}

func (f *fakeProgramRepo) GetProgram(ctx context.Context, institutionID, programID string) (*model.AcademicProgram, error) {
	program, ok := f.programs[programID]
	if !ok || program.InstitutionID != institutionID {
		return nil, apperrors.ErrProgramNotFound
	}
	copied := *program
	return &copied, nil
}

func (f *fakeProgramRepo) ListProgramsByInstitution(ctx context.Context, institutionID string, limit, offset int) ([]*model.AcademicProgram, error) {
	return nil, nil
}

func (f *fakeProgramRepo) ExistsByName(ctx context.Context, institutionID, name string) (bool, error) {
	return f.nameTaken, nil
}

type fakeClassRepo struct {
	classes       map[string]*model.AcademicClass
	nameYearTaken bool
	created       []model.AcademicClass
}

func newFakeClassRepo() *fakeClassRepo {
	return &fakeClassRepo{classes: make(map[string]*model.AcademicClass)}
}

func (f *fakeClassRepo) CreateClass(ctx context.Context, class model.AcademicClass) (string, error) {
	class.ID = "class::created"
	f.created = append(f.created, class)
	f.classes[class.ID] = &class
	return class.ID, nil
}

func (f *fakeClassRepo) UpdateClass(ctx context.Context, class model.AcademicClass) (*model.AcademicClass, error) {
	f.classes[class.ID] = &class
	return &class, nil
}

func (f *fakeClassRepo) SetActive(ctx context.Context, institutionID, classID string, active bool) error {
	return nil
}

func (f *fakeClassRepo) SoftDeleteClass(ctx context.Context, institutionID, classID string) error {
	return nil
}

func (f *fakeClassRepo) GetClass(ctx context.Context, institutionID, classID string) (*model.AcademicClass, error) {
	class, ok := f.classes[classID]
	if !ok || class.InstitutionID != institutionID {
		return nil, apperrors.ErrClassNotFound
	}
	copied := *class
	return &copied, nil
}

func (f *fakeClassRepo) ListClassesByInstitution(ctx context.Context, institutionID string, limit, offset int) ([]*model.AcademicClass, error) {
	return nil, nil
}

func (f *fakeClassRepo) ExistsByNameAndYear(ctx context.Context, institutionID, name, academicYear string) (bool, error) {
	return f.nameYearTaken, nil
}

type fakeSectionRepo struct {
	sections  map[string]*model.Section
	nameTaken bool
	created   []model.Section
}

func newFakeSectionRepo() *fakeSectionRepo {
	return &fakeSectionRepo{sections: make(map[string]*model.Section)}
}

func (f *fakeSectionRepo) CreateSection(ctx context.Context, section model.Section) (string, error) {
	section.ID = "sect::created"
	f.created = append(f.created, section)
	f.sections[section.ID] = &section
	return section.ID, nil
}

func (f *fakeSectionRepo) UpdateSection(ctx context.Context, section model.Section) (*model.Section, error) {
	f.sections[section.ID] = &section
	return &section, nil
}

func (f *fakeSectionRepo) SetActive(ctx context.Context, institutionID, sectionID string, active bool) error {
	return nil
}

func (f *fakeSectionRepo) SoftDeleteSection(ctx context.Context, institutionID, sectionID string) error {
	return nil
}

func (f *fakeSectionRepo) GetSection(ctx context.Context, institutionID, sectionID string) (*model.Section, error) {
	section, ok := f.sections[sectionID]
	if !ok || section.InstitutionID != institutionID {
		return nil, apperrors.ErrSectionNotFound
	}
	copied := *section
	return &copied, nil
}

func (f *fakeSectionRepo) ListSectionsByClass(ctx context.Context, institutionID, classID string, limit, offset int) ([]*model.Section, error) {
	return nil, nil
}

func (f *fakeSectionRepo) ExistsByName(ctx context.Context, institutionID, classID, name string) (bool, error) {
	return f.nameTaken, nil
}

type fakeEnrollmentRepo struct {
	enrollments map[string]*model.StudentEnrollment
	yearTaken   bool
	created     []model.StudentEnrollment
	updated     []model.StudentEnrollment
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{enrollments: make(map[string]*model.StudentEnrollment)}
}

func (f *fakeEnrollmentRepo) CreateEnrollment(ctx context.Context, enrollment model.StudentEnrollment) (string, error) {
	enrollment.ID = "enrl::created"
	f.created = append(f.created, enrollment)
	f.enrollments[enrollment.ID] = &enrollment
	return enrollment.ID, nil
}

func (f *fakeEnrollmentRepo) UpdateEnrollment(ctx context.Context, enrollment model.StudentEnrollment) (*model.StudentEnrollment, error) {
	f.updated = append(f.updated, enrollment)
	f.enrollments[enrollment.ID] = &enrollment
	return &enrollment, nil
}

func (f *fakeEnrollmentRepo) SetActive(ctx context.Context, institutionID, enrollmentID string, active bool) error {
	return nil
}

func (f *fakeEnrollmentRepo) SoftDeleteEnrollment(ctx context.Context, institutionID, enrollmentID string) error {
	return nil
}

func (f *fakeEnrollmentRepo) GetEnrollment(ctx context.Context, institutionID, enrollmentID string) (*model.StudentEnrollment, error) {
	enrollment, ok := f.enrollments[enrollmentID]
	if !ok || enrollment.InstitutionID != institutionID {
		return nil, apperrors.ErrEnrollmentNotFound
	}
	copied := *enrollment
	return &copied, nil
}

func (f *fakeEnrollmentRepo) ListEnrollmentsByInstitution(ctx context.Context, institutionID string, limit, offset int) ([]*model.StudentEnrollment, error) {
	return nil, nil
}

func (f *fakeEnrollmentRepo) ExistsForStudentYear(ctx context.Context, institutionID, studentID, academicYear string) (bool, error) {
	return f.yearTaken, nil
}

type academicFixture struct {
	institutionRepo *fakeInstitutionRepo
	programRepo     *fakeProgramRepo
	classRepo       *fakeClassRepo
	sectionRepo     *fakeSectionRepo
	enrollmentRepo  *fakeEnrollmentRepo
	svc             *service.AcademicService
}

func newAcademicFixture(institutionActive bool) *academicFixture {
	f := &academicFixture{
		institutionRepo: newFakeInstitutionRepo(model.Institution{
			ID:        "inst::1",
			Name:      "Crestwood College",
			Type:      model.InstitutionTypeCollege,
			Auditable: model.Auditable{IsActive: institutionActive},
		}),
		programRepo:    newFakeProgramRepo(),
		classRepo:      newFakeClassRepo(),
		sectionRepo:    newFakeSectionRepo(),
		enrollmentRepo: newFakeEnrollmentRepo(),
	}
	f.svc = service.NewAcademicService(
		f.programRepo,
		f.classRepo,
		f.sectionRepo,
		f.enrollmentRepo,
		f.institutionRepo,
		util.NewValidationUtil(),
		util.NewNotificationService(),
		util.NewEventBus(),
	)
	return f
}

func TestAcademicService_Programs(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateProgram_Success", func(t *testing.T) {
		f := newAcademicFixture(true)

		created, err := f.svc.CreateProgram(ctx, model.AcademicProgram{
			InstitutionID:   "inst::1",
			Name:            "Computer Science",
			DurationInYears: 4,
		}, "user::admin")

		assert.NoError(t, err)
		assert.Equal(t, "prog::created", created.ID)
		assert.True(t, created.IsActive)
	})

	t.Run("CreateProgram_Failure_InactiveInstitution", func(t *testing.T) {
		f := newAcademicFixture(false)

		_, err := f.svc.CreateProgram(ctx, model.AcademicProgram{
			InstitutionID:   "inst::1",
			Name:            "Computer Science",
			DurationInYears: 4,
		}, "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrInstitutionInactive)
		assert.Empty(t, f.programRepo.created)
	})

	t.Run("CreateProgram_Failure_NameConflict", func(t *testing.T) {
		f := newAcademicFixture(true)
		f.programRepo.nameTaken = true

		_, err := f.svc.CreateProgram(ctx, model.AcademicProgram{
			InstitutionID:   "inst::1",
			Name:            "Computer Science",
			DurationInYears: 4,
		}, "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrProgramConflict)
	})

	t.Run("SetProgramActive_Failure_AlreadyActive", func(t *testing.T) {
		f := newAcademicFixture(true)
		f.programRepo.programs["prog::1"] = &model.AcademicProgram{
			ID:            "prog::1",
			InstitutionID: "inst::1",
			Name:          "Computer Science",
			Auditable:     model.Auditable{IsActive: true},
		}

		err := f.svc.SetProgramActive(ctx, "inst::1", "prog::1", true, "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrProgramAlreadyActive)
		assert.Empty(t, f.programRepo.setActive)
	})

	t.Run("SetProgramActive_Failure_AlreadyInactive", func(t *testing.T) {
		f := newAcademicFixture(true)
		f.programRepo.programs["prog::1"] = &model.AcademicProgram{
			ID:            "prog::1",
			InstitutionID: "inst::1",
			Name:          "Computer Science",
		}

		err := f.svc.SetProgramActive(ctx, "inst::1", "prog::1", false, "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrProgramAlreadyInactive)
	})
}

func TestAcademicService_Classes(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateClass_Success", func(t *testing.T) {
		f := newAcademicFixture(true)

		created, err := f.svc.CreateClass(ctx, model.AcademicClass{
			InstitutionID: "inst::1",
			Name:          "Grade 10",
			AcademicYear:  "2026-27",
		}, "user::admin")

		assert.NoError(t, err)
		assert.Equal(t, "class::created", created.ID)
		assert.True(t, created.IsActive)
	})

	t.Run("CreateClass_Failure_NameYearConflict", func(t *testing.T) {
		f := newAcademicFixture(true)
		f.classRepo.nameYearTaken = true

		_, err := f.svc.CreateClass(ctx, model.AcademicClass{
			InstitutionID: "inst::1",
			Name:          "Grade 10",
			AcademicYear:  "2026-27",
		}, "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrClassConflict)
	})

	t.Run("CreateClass_Failure_UnknownProgram", func(t *testing.T) {
		f := newAcademicFixture(true)

		_, err := f.svc.CreateClass(ctx, model.AcademicClass{
			InstitutionID: "inst::1",
			Name:          "Grade 10",
			AcademicYear:  "2026-27",
			ProgramID:     "prog::missing",
		}, "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrProgramNotFound)
		assert.Empty(t, f.classRepo.created)
	})
}

func TestAcademicService_Sections(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateSection_Success", func(t *testing.T) {
		f := newAcademicFixture(true)
		f.classRepo.classes["class::1"] = &model.AcademicClass{
			ID:            "class::1",
			InstitutionID: "inst::1",
			Name:          "Grade 10",
			AcademicYear:  "2026-27",
			Auditable:     model.Auditable{IsActive: true},
		}

		created, err := f.svc.CreateSection(ctx, model.Section{
			InstitutionID: "inst::1",
			ClassID:       "class::1",
			Name:          "A",
		}, "user::admin")

		assert.NoError(t, err)
		assert.Equal(t, "sect::created", created.ID)
	})

	t.Run("CreateSection_Failure_UnknownClass", func(t *testing.T) {
		f := newAcademicFixture(true)

		_, err := f.svc.CreateSection(ctx, model.Section{
			InstitutionID: "inst::1",
			ClassID:       "class::missing",
			Name:          "A",
		}, "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrClassNotFound)
		assert.Empty(t, f.sectionRepo.created)
	})

	t.Run("CreateSection_Failure_NameConflict", func(t *testing.T) {
		f := newAcademicFixture(true)
		f.classRepo.classes["class::1"] = &model.AcademicClass{
			ID:            "class::1",
			InstitutionID: "inst::1",
			Name:          "Grade 10",
			AcademicYear:  "2026-27",
			Auditable:     model.Auditable{IsActive: true},
		}
		f.sectionRepo.nameTaken = true

		_, err := f.svc.CreateSection(ctx, model.Section{
			InstitutionID: "inst::1",
			ClassID:       "class::1",
			Name:          "A",
		}, "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrSectionConflict)
	})
}

func TestAcademicService_Enrollments(t *testing.T) {
	ctx := context.Background()

	seedClassAndSection := func(f *academicFixture) {
		f.classRepo.classes["class::1"] = &model.AcademicClass{
			ID:            "class::1",
			InstitutionID: "inst::1",
			Name:          "Grade 10",
			AcademicYear:  "2026-27",
			Auditable:     model.Auditable{IsActive: true},
		}
		f.sectionRepo.sections["sect::1"] = &model.Section{
			ID:            "sect::1",
			InstitutionID: "inst::1",
			ClassID:       "class::1",
			Name:          "A",
			Auditable:     model.Auditable{IsActive: true},
		}
	}

	t.Run("CreateEnrollment_Success", func(t *testing.T) {
		f := newAcademicFixture(true)
		seedClassAndSection(f)

		created, err := f.svc.CreateEnrollment(ctx, model.StudentEnrollment{
			InstitutionID: "inst::1",
			StudentID:     "inst-user::student",
			ClassID:       "class::1",
			SectionID:     "sect::1",
			AcademicYear:  "2026-27",
		}, "user::admin")

		assert.NoError(t, err)
		assert.Equal(t, "enrl::created", created.ID)
		assert.True(t, created.IsActive)
	})

	t.Run("CreateEnrollment_Failure_SectionOutsideClass", func(t *testing.T) {
		f := newAcademicFixture(true)
		seedClassAndSection(f)
		f.classRepo.classes["class::2"] = &model.AcademicClass{
			ID:            "class::2",
			InstitutionID: "inst::1",
			Name:          "Grade 11",
			AcademicYear:  "2026-27",
			Auditable:     model.Auditable{IsActive: true},
		}

		_, err := f.svc.CreateEnrollment(ctx, model.StudentEnrollment{
			InstitutionID: "inst::1",
			StudentID:     "inst-user::student",
			ClassID:       "class::2",
			SectionID:     "sect::1",
			AcademicYear:  "2026-27",
		}, "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrSectionNotFound)
		assert.Empty(t, f.enrollmentRepo.created)
	})

	t.Run("CreateEnrollment_Failure_DuplicateYear", func(t *testing.T) {
		f := newAcademicFixture(true)
		seedClassAndSection(f)
		f.enrollmentRepo.yearTaken = true

		_, err := f.svc.CreateEnrollment(ctx, model.StudentEnrollment{
			InstitutionID: "inst::1",
			StudentID:     "inst-user::student",
			ClassID:       "class::1",
			AcademicYear:  "2026-27",
		}, "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrEnrollmentConflict)
	})

	t.Run("UpdateEnrollment_PinsStudentAndYear", func(t *testing.T) {
		f := newAcademicFixture(true)
		seedClassAndSection(f)
		f.enrollmentRepo.enrollments["enrl::1"] = &model.StudentEnrollment{
			ID:            "enrl::1",
			InstitutionID: "inst::1",
			StudentID:     "inst-user::student",
			ClassID:       "class::1",
			AcademicYear:  "2026-27",
			Auditable:     model.Auditable{IsActive: true},
		}

		updated, err := f.svc.UpdateEnrollment(ctx, model.StudentEnrollment{
			ID:            "enrl::1",
			InstitutionID: "inst::1",
			StudentID:     "inst-user::someone-else",
			ClassID:       "class::1",
			SectionID:     "sect::1",
			AcademicYear:  "2099-00",
		}, "user::admin")

		assert.NoError(t, err)
		assert.Equal(t, "inst-user::student", updated.StudentID)
		assert.Equal(t, "2026-27", updated.AcademicYear)
	})
}
