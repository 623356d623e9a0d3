// service/academic_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusmesh/campus/api/dao"
	apperrors "github.com/campusmesh/campus/api/errors"
	logger "github.com/campusmesh/campus/api/logging"
	"github.com/campusmesh/campus/api/model"
	"github.com/campusmesh/campus/api/util"
)

// Persistence surfaces for the academic structure.
type AcademicProgramRepository interface {
	CreateProgram(ctx context.Context, program model.AcademicProgram) (string, error)
	UpdateProgram(ctx context.Context, program model.AcademicProgram) (*model.AcademicProgram, error)
	SetActive(ctx context.Context, institutionID, programID string, active bool) error
	SoftDeleteProgram(ctx context.Context, institutionID, programID string) error
	GetProgram(ctx context.Context, institutionID, programID string) (*model.AcademicProgram, error)
	ListProgramsByInstitution(ctx context.Context, institutionID string, limit, offset int) ([]*model.AcademicProgram, error)
	ExistsByName(ctx context.Context, institutionID, name string) (bool, error)
}

type AcademicClassRepository interface {
	CreateClass(ctx context.Context, class model.AcademicClass) (string, error)
	UpdateClass(ctx context.Context, class model.AcademicClass) (*model.AcademicClass, error)
	SetActive(ctx context.Context, institutionID, classID string, active bool) error
	SoftDeleteClass(ctx context.Context, institutionID, classID string) error
	GetClass(ctx context.Context, institutionID, classID string) (*model.AcademicClass, error)
	ListClassesByInstitution(ctx context.Context, institutionID string, limit, offset int) ([]*model.AcademicClass, error)
	ExistsByNameAndYear(ctx context.Context, institutionID, name, academicYear string) (bool, error)
}

type SectionRepository interface {
	CreateSection(ctx context.Context, section model.Section) (string, error)
	UpdateSection(ctx context.Context, section model.Section) (*model.Section, error)
	SetActive(ctx context.Context, institutionID, sectionID string, active bool) error
	SoftDeleteSection(ctx context.Context, institutionID, sectionID string) error
	GetSection(ctx context.Context, institutionID, sectionID string) (*model.Section, error)
	ListSectionsByClass(ctx context.Context, institutionID, classID string, limit, offset int) ([]*model.Section, error)
	ExistsByName(ctx context.Context, institutionID, classID, name string) (bool, error)
}

type EnrollmentRepository interface {
	CreateEnrollment(ctx context.Context, enrollment model.StudentEnrollment) (string, error)
	UpdateEnrollment(ctx context.Context, enrollment model.StudentEnrollment) (*model.StudentEnrollment, error)
	SetActive(ctx context.Context, institutionID, enrollmentID string, active bool) error
	SoftDeleteEnrollment(ctx context.Context, institutionID, enrollmentID string) error
	GetEnrollment(ctx context.Context, institutionID, enrollmentID string) (*model.StudentEnrollment, error)
	ListEnrollmentsByInstitution(ctx context.Context, institutionID string, limit, offset int) ([]*model.StudentEnrollment, error)
	ExistsForStudentYear(ctx context.Context, institutionID, studentID, academicYear string) (bool, error)
}

var (
	_ AcademicProgramRepository = (*dao.AcademicProgramDAO)(nil)
	_ AcademicClassRepository   = (*dao.AcademicClassDAO)(nil)
	_ SectionRepository         = (*dao.SectionDAO)(nil)
	_ EnrollmentRepository      = (*dao.EnrollmentDAO)(nil)
)

// IAcademicService defines the interface for an institution's academic
// structure: programs, classes, sections and student enrollments.
type IAcademicService interface {
	CreateProgram(ctx context.Context, program model.AcademicProgram, creatorID string) (*model.AcademicProgram, error)
	UpdateProgram(ctx context.Context, program model.AcademicProgram, updaterID string) (*model.AcademicProgram, error)
	SetProgramActive(ctx context.Context, institutionID, programID string, active bool, updaterID string) error
	DeleteProgram(ctx context.Context, institutionID, programID string, deleterID string) error
	GetProgram(ctx context.Context, institutionID, programID string) (*model.AcademicProgram, error)
	ListPrograms(ctx context.Context, institutionID string, limit, offset int) ([]*model.AcademicProgram, error)

	CreateClass(ctx context.Context, class model.AcademicClass, creatorID string) (*model.AcademicClass, error)
	UpdateClass(ctx context.Context, class model.AcademicClass, updaterID string) (*model.AcademicClass, error)
	SetClassActive(ctx context.Context, institutionID, classID string, active bool, updaterID string) error
	DeleteClass(ctx context.Context, institutionID, classID string, deleterID string) error
	GetClass(ctx context.Context, institutionID, classID string) (*model.AcademicClass, error)
	ListClasses(ctx context.Context, institutionID string, limit, offset int) ([]*model.AcademicClass, error)

	CreateSection(ctx context.Context, section model.Section, creatorID string) (*model.Section, error)
	UpdateSection(ctx context.Context, section model.Section, updaterID string) (*model.Section, error)
	SetSectionActive(ctx context.Context, institutionID, sectionID string, active bool, updaterID string) error
	DeleteSection(ctx context.Context, institutionID, sectionID string, deleterID string) error
	GetSection(ctx context.Context, institutionID, sectionID string) (*model.Section, error)
	ListSections(ctx context.Context, institutionID, classID string, limit, offset int) ([]*model.Section, error)

	CreateEnrollment(ctx context.Context, enrollment model.StudentEnrollment, creatorID string) (*model.StudentEnrollment, error)
	UpdateEnrollment(ctx context.Context, enrollment model.StudentEnrollment, updaterID string) (*model.StudentEnrollment, error)
	SetEnrollmentActive(ctx context.Context, institutionID, enrollmentID string, active bool, updaterID string) error
	DeleteEnrollment(ctx context.Context, institutionID, enrollmentID string, deleterID string) error
	GetEnrollment(ctx context.Context, institutionID, enrollmentID string) (*model.StudentEnrollment, error)
	ListEnrollments(ctx context.Context, institutionID string, limit, offset int) ([]*model.StudentEnrollment, error)
}

// AcademicService handles business logic for the academic structure
type AcademicService struct {
	programRepo     AcademicProgramRepository
	classRepo       AcademicClassRepository
	sectionRepo     SectionRepository
	enrollmentRepo  EnrollmentRepository
	institutionRepo InstitutionRepository
	validationUtil  *util.ValidationUtil
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IAcademicService = &AcademicService{}

// NewAcademicService creates a new instance of AcademicService
func NewAcademicService(programRepo AcademicProgramRepository, classRepo AcademicClassRepository, sectionRepo SectionRepository, enrollmentRepo EnrollmentRepository, institutionRepo InstitutionRepository, validationUtil *util.ValidationUtil, notificationSvc *util.NotificationService, eventBus *util.EventBus) *AcademicService {
	service := &AcademicService{
		programRepo:     programRepo,
		classRepo:       classRepo,
		sectionRepo:     sectionRepo,
		enrollmentRepo:  enrollmentRepo,
		institutionRepo: institutionRepo,
		validationUtil:  validationUtil,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("enrollment.created", service.handleEnrollmentChanged("created"))
	eventBus.Subscribe("enrollment.updated", service.handleEnrollmentChanged("updated"))
	eventBus.Subscribe("enrollment.deleted", service.handleEnrollmentChanged("deleted"))

	return service
}

func (s *AcademicService) handleEnrollmentChanged(changeType string) util.EventHandler {
	return func(ctx context.Context, event util.Event) error {
		enrollment, ok := event.Payload.(model.StudentEnrollment)
		if !ok {
			return nil
		}
		if err := s.notificationSvc.NotifyEnrollmentChange(ctx, changeType, enrollment); err != nil {
			logger.Warn("Failed to send enrollment change notification",
				zap.Error(err),
				zap.String("enrollmentID", enrollment.ID))
		}
		return nil
	}
}

func (s *AcademicService) requireActiveInstitution(ctx context.Context, institutionID string) error {
	institution, err := s.institutionRepo.GetInstitution(ctx, institutionID)
	if err != nil {
		return err
	}
	if !institution.IsActive {
		return apperrors.ErrInstitutionInactive
	}
	return nil
}

// ---- Programs ----

// CreateProgram adds a program. The name must be unused within the
// institution.
func (s *AcademicService) CreateProgram(ctx context.Context, program model.AcademicProgram, creatorID string) (*model.AcademicProgram, error) {
	if err := s.validationUtil.ValidateAcademicProgram(program); err != nil {
		return nil, err
	}
	if err := s.requireActiveInstitution(ctx, program.InstitutionID); err != nil {
		return nil, err
	}

	exists, err := s.programRepo.ExistsByName(ctx, program.InstitutionID, program.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrProgramConflict
	}

	program.CreatedAt = time.Now()
	program.UpdatedAt = time.Now()
	program.IsActive = true
	program.CreatedBy = creatorID

	programID, err := s.programRepo.CreateProgram(ctx, program)
	if err != nil {
		logger.Error("Error creating academic program",
			zap.Error(err),
			zap.String("institutionID", program.InstitutionID),
			zap.String("creatorID", creatorID))
		return nil, err
	}
	program.ID = programID

	logger.Info("Academic program created successfully",
		zap.String("programID", programID),
		zap.String("institutionID", program.InstitutionID),
		zap.String("creatorID", creatorID))
	return &program, nil
}

// UpdateProgram rewrites a program's name and duration.
func (s *AcademicService) UpdateProgram(ctx context.Context, program model.AcademicProgram, updaterID string) (*model.AcademicProgram, error) {
	if err := s.validationUtil.ValidateAcademicProgram(program); err != nil {
		return nil, err
	}

	existing, err := s.programRepo.GetProgram(ctx, program.InstitutionID, program.ID)
	if err != nil {
		return nil, err
	}
	if existing.Name != program.Name {
		taken, err := s.programRepo.ExistsByName(ctx, program.InstitutionID, program.Name)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.ErrProgramConflict
		}
	}

	updated, err := s.programRepo.UpdateProgram(ctx, program)
	if err != nil {
		logger.Error("Error updating academic program", zap.Error(err), zap.String("programID", program.ID), zap.String("updaterID", updaterID))
		return nil, err
	}

	logger.Info("Academic program updated successfully", zap.String("programID", program.ID), zap.String("updaterID", updaterID))
	return updated, nil
}

// SetProgramActive toggles a program. Repeating the current state is
// rejected.
func (s *AcademicService) SetProgramActive(ctx context.Context, institutionID, programID string, active bool, updaterID string) error {
	program, err := s.programRepo.GetProgram(ctx, institutionID, programID)
	if err != nil {
		return err
	}
	if program.IsActive == active {
		if active {
			return apperrors.ErrProgramAlreadyActive
		}
		return apperrors.ErrProgramAlreadyInactive
	}
	if err := s.programRepo.SetActive(ctx, institutionID, programID, active); err != nil {
		logger.Error("Error toggling academic program", zap.Error(err), zap.String("programID", programID), zap.String("updaterID", updaterID))
		return err
	}
	logger.Info("Academic program activation changed", zap.String("programID", programID), zap.Bool("active", active), zap.String("updaterID", updaterID))
	return nil
}

// DeleteProgram soft-deletes a program.
func (s *AcademicService) DeleteProgram(ctx context.Context, institutionID, programID string, deleterID string) error {
	if _, err := s.programRepo.GetProgram(ctx, institutionID, programID); err != nil {
		return err
	}
	if err := s.programRepo.SoftDeleteProgram(ctx, institutionID, programID); err != nil {
		logger.Error("Error deleting academic program", zap.Error(err), zap.String("programID", programID), zap.String("deleterID", deleterID))
		return err
	}
	logger.Info("Academic program deleted successfully", zap.String("programID", programID), zap.String("deleterID", deleterID))
	return nil
}

// GetProgram retrieves a program within its institution
func (s *AcademicService) GetProgram(ctx context.Context, institutionID, programID string) (*model.AcademicProgram, error) {
	return s.programRepo.GetProgram(ctx, institutionID, programID)
}

// ListPrograms retrieves an institution's programs with pagination
func (s *AcademicService) ListPrograms(ctx context.Context, institutionID string, limit, offset int) ([]*model.AcademicProgram, error) {
	programs, err := s.programRepo.ListProgramsByInstitution(ctx, institutionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	return programs, nil
}

// ---- Classes ----

// CreateClass adds a class. The name must be unused for the academic year
// within the institution; a referenced program must exist.
func (s *AcademicService) CreateClass(ctx context.Context, class model.AcademicClass, creatorID string) (*model.AcademicClass, error) {
	if err := s.validationUtil.ValidateAcademicClass(class); err != nil {
		return nil, err
	}
	if err := s.requireActiveInstitution(ctx, class.InstitutionID); err != nil {
		return nil, err
	}

	exists, err := s.classRepo.ExistsByNameAndYear(ctx, class.InstitutionID, class.Name, class.AcademicYear)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrClassConflict
	}

	if class.ProgramID != "" {
		if _, err := s.programRepo.GetProgram(ctx, class.InstitutionID, class.ProgramID); err != nil {
			return nil, err
		}
	}

	class.CreatedAt = time.Now()
	class.UpdatedAt = time.Now()
	class.IsActive = true
	class.CreatedBy = creatorID

	classID, err := s.classRepo.CreateClass(ctx, class)
	if err != nil {
		logger.Error("Error creating academic class",
			zap.Error(err),
			zap.String("institutionID", class.InstitutionID),
			zap.String("creatorID", creatorID))
		return nil, err
	}
	class.ID = classID

	logger.Info("Academic class created successfully",
		zap.String("classID", classID),
		zap.String("institutionID", class.InstitutionID),
		zap.String("creatorID", creatorID))
	return &class, nil
}

// UpdateClass rewrites a class's mutable fields.
func (s *AcademicService) UpdateClass(ctx context.Context, class model.AcademicClass, updaterID string) (*model.AcademicClass, error) {
	if err := s.validationUtil.ValidateAcademicClass(class); err != nil {
		return nil, err
	}

	existing, err := s.classRepo.GetClass(ctx, class.InstitutionID, class.ID)
	if err != nil {
		return nil, err
	}
	if existing.Name != class.Name || existing.AcademicYear != class.AcademicYear {
		taken, err := s.classRepo.ExistsByNameAndYear(ctx, class.InstitutionID, class.Name, class.AcademicYear)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.ErrClassConflict
		}
	}

	updated, err := s.classRepo.UpdateClass(ctx, class)
	if err != nil {
		logger.Error("Error updating academic class", zap.Error(err), zap.String("classID", class.ID), zap.String("updaterID", updaterID))
		return nil, err
	}

	logger.Info("Academic class updated successfully", zap.String("classID", class.ID), zap.String("updaterID", updaterID))
	return updated, nil
}

// SetClassActive toggles a class. Repeating the current state is rejected.
func (s *AcademicService) SetClassActive(ctx context.Context, institutionID, classID string, active bool, updaterID string) error {
	class, err := s.classRepo.GetClass(ctx, institutionID, classID)
	if err != nil {
		return err
	}
	if class.IsActive == active {
		if active {
			return apperrors.ErrClassAlreadyActive
		}
		return apperrors.ErrClassAlreadyInactive
	}
	if err := s.classRepo.SetActive(ctx, institutionID, classID, active); err != nil {
		logger.Error("Error toggling academic class", zap.Error(err), zap.String("classID", classID), zap.String("updaterID", updaterID))
		return err
	}
	logger.Info("Academic class activation changed", zap.String("classID", classID), zap.Bool("active", active), zap.String("updaterID", updaterID))
	return nil
}

// DeleteClass soft-deletes a class.
func (s *AcademicService) DeleteClass(ctx context.Context, institutionID, classID string, deleterID string) error {
	if _, err := s.classRepo.GetClass(ctx, institutionID, classID); err != nil {
		return err
	}
	if err := s.classRepo.SoftDeleteClass(ctx, institutionID, classID); err != nil {
		logger.Error("Error deleting academic class", zap.Error(err), zap.String("classID", classID), zap.String("deleterID", deleterID))
		return err
	}
	logger.Info("Academic class deleted successfully", zap.String("classID", classID), zap.String("deleterID", deleterID))
	return nil
}

// GetClass retrieves a class within its institution
func (s *AcademicService) GetClass(ctx context.Context, institutionID, classID string) (*model.AcademicClass, error) {
	return s.classRepo.GetClass(ctx, institutionID, classID)
}

// ListClasses retrieves an institution's classes with pagination
func (s *AcademicService) ListClasses(ctx context.Context, institutionID string, limit, offset int) ([]*model.AcademicClass, error) {
	classes, err := s.classRepo.ListClassesByInstitution(ctx, institutionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	return classes, nil
}

// ---- Sections ----

// CreateSection adds a section. The parent class must exist in the same
// institution; the name must be unused within the class.
func (s *AcademicService) CreateSection(ctx context.Context, section model.Section, creatorID string) (*model.Section, error) {
	if err := s.validationUtil.ValidateSection(section); err != nil {
		return nil, err
	}
	if err := s.requireActiveInstitution(ctx, section.InstitutionID); err != nil {
		return nil, err
	}

	if _, err := s.classRepo.GetClass(ctx, section.InstitutionID, section.ClassID); err != nil {
		return nil, err
	}

	exists, err := s.sectionRepo.ExistsByName(ctx, section.InstitutionID, section.ClassID, section.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrSectionConflict
	}

	section.CreatedAt = time.Now()
	section.UpdatedAt = time.Now()
	section.IsActive = true
	section.CreatedBy = creatorID

	sectionID, err := s.sectionRepo.CreateSection(ctx, section)
	if err != nil {
		logger.Error("Error creating section",
			zap.Error(err),
			zap.String("classID", section.ClassID),
			zap.String("creatorID", creatorID))
		return nil, err
	}
	section.ID = sectionID

	logger.Info("Section created successfully",
		zap.String("sectionID", sectionID),
		zap.String("classID", section.ClassID),
		zap.String("creatorID", creatorID))
	return &section, nil
}

// UpdateSection rewrites a section's name and class teacher.
func (s *AcademicService) UpdateSection(ctx context.Context, section model.Section, updaterID string) (*model.Section, error) {
	if err := s.validationUtil.ValidateSection(section); err != nil {
		return nil, err
	}

	existing, err := s.sectionRepo.GetSection(ctx, section.InstitutionID, section.ID)
	if err != nil {
		return nil, err
	}
	if existing.Name != section.Name {
		taken, err := s.sectionRepo.ExistsByName(ctx, section.InstitutionID, existing.ClassID, section.Name)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.ErrSectionConflict
		}
	}

	updated, err := s.sectionRepo.UpdateSection(ctx, section)
	if err != nil {
		logger.Error("Error updating section", zap.Error(err), zap.String("sectionID", section.ID), zap.String("updaterID", updaterID))
		return nil, err
	}

	logger.Info("Section updated successfully", zap.String("sectionID", section.ID), zap.String("updaterID", updaterID))
	return updated, nil
}

// SetSectionActive toggles a section. Repeating the current state is
// rejected.
func (s *AcademicService) SetSectionActive(ctx context.Context, institutionID, sectionID string, active bool, updaterID string) error {
	section, err := s.sectionRepo.GetSection(ctx, institutionID, sectionID)
	if err != nil {
		return err
	}
	if section.IsActive == active {
		if active {
			return apperrors.ErrSectionAlreadyActive
		}
		return apperrors.ErrSectionAlreadyInactive
	}
	if err := s.sectionRepo.SetActive(ctx, institutionID, sectionID, active); err != nil {
		logger.Error("Error toggling section", zap.Error(err), zap.String("sectionID", sectionID), zap.String("updaterID", updaterID))
		return err
	}
	logger.Info("Section activation changed", zap.String("sectionID", sectionID), zap.Bool("active", active), zap.String("updaterID", updaterID))
	return nil
}

// DeleteSection soft-deletes a section.
func (s *AcademicService) DeleteSection(ctx context.Context, institutionID, sectionID string, deleterID string) error {
	if _, err := s.sectionRepo.GetSection(ctx, institutionID, sectionID); err != nil {
		return err
	}
	if err := s.sectionRepo.SoftDeleteSection(ctx, institutionID, sectionID); err != nil {
		logger.Error("Error deleting section", zap.Error(err), zap.String("sectionID", sectionID), zap.String("deleterID", deleterID))
		return err
	}
	logger.Info("Section deleted successfully", zap.String("sectionID", sectionID), zap.String("deleterID", deleterID))
	return nil
}

// GetSection retrieves a section within its institution
func (s *AcademicService) GetSection(ctx context.Context, institutionID, sectionID string) (*model.Section, error) {
	return s.sectionRepo.GetSection(ctx, institutionID, sectionID)
}

// ListSections retrieves a class's sections with pagination
func (s *AcademicService) ListSections(ctx context.Context, institutionID, classID string, limit, offset int) ([]*model.Section, error) {
	sections, err := s.sectionRepo.ListSectionsByClass(ctx, institutionID, classID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	return sections, nil
}

// ---- Enrollments ----

// CreateEnrollment enrolls a student for an academic year. The class (and
// section, when given) must exist in the same institution; a student has at
// most one enrollment per institution per academic year.
func (s *AcademicService) CreateEnrollment(ctx context.Context, enrollment model.StudentEnrollment, creatorID string) (*model.StudentEnrollment, error) {
	if err := s.validationUtil.ValidateEnrollment(enrollment); err != nil {
		return nil, err
	}
	if err := s.requireActiveInstitution(ctx, enrollment.InstitutionID); err != nil {
		return nil, err
	}

	if _, err := s.classRepo.GetClass(ctx, enrollment.InstitutionID, enrollment.ClassID); err != nil {
		return nil, err
	}
	if enrollment.SectionID != "" {
		section, err := s.sectionRepo.GetSection(ctx, enrollment.InstitutionID, enrollment.SectionID)
		if err != nil {
			return nil, err
		}
		if section.ClassID != enrollment.ClassID {
			return nil, apperrors.ErrSectionNotFound
		}
	}

	exists, err := s.enrollmentRepo.ExistsForStudentYear(ctx, enrollment.InstitutionID, enrollment.StudentID, enrollment.AcademicYear)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrEnrollmentConflict
	}

	enrollment.CreatedAt = time.Now()
	enrollment.UpdatedAt = time.Now()
	enrollment.IsActive = true
	enrollment.CreatedBy = creatorID

	enrollmentID, err := s.enrollmentRepo.CreateEnrollment(ctx, enrollment)
	if err != nil {
		logger.Error("Error creating enrollment",
			zap.Error(err),
			zap.String("studentID", enrollment.StudentID),
			zap.String("creatorID", creatorID))
		return nil, err
	}
	enrollment.ID = enrollmentID

	s.eventBus.Publish(ctx, "enrollment.created", enrollment)

	logger.Info("Enrollment created successfully",
		zap.String("enrollmentID", enrollmentID),
		zap.String("studentID", enrollment.StudentID),
		zap.String("creatorID", creatorID))
	return &enrollment, nil
}

// UpdateEnrollment moves an enrollment between classes and sections. The
// student, institution and academic year are fixed.
func (s *AcademicService) UpdateEnrollment(ctx context.Context, enrollment model.StudentEnrollment, updaterID string) (*model.StudentEnrollment, error) {
	existing, err := s.enrollmentRepo.GetEnrollment(ctx, enrollment.InstitutionID, enrollment.ID)
	if err != nil {
		return nil, err
	}
	enrollment.StudentID = existing.StudentID
	enrollment.AcademicYear = existing.AcademicYear

	if _, err := s.classRepo.GetClass(ctx, enrollment.InstitutionID, enrollment.ClassID); err != nil {
		return nil, err
	}
	if enrollment.SectionID != "" {
		section, err := s.sectionRepo.GetSection(ctx, enrollment.InstitutionID, enrollment.SectionID)
		if err != nil {
			return nil, err
		}
		if section.ClassID != enrollment.ClassID {
			return nil, apperrors.ErrSectionNotFound
		}
	}

	updated, err := s.enrollmentRepo.UpdateEnrollment(ctx, enrollment)
	if err != nil {
		logger.Error("Error updating enrollment", zap.Error(err), zap.String("enrollmentID", enrollment.ID), zap.String("updaterID", updaterID))
		return nil, err
	}

	s.eventBus.Publish(ctx, "enrollment.updated", *updated)

	logger.Info("Enrollment updated successfully", zap.String("enrollmentID", enrollment.ID), zap.String("updaterID", updaterID))
	return updated, nil
}

// SetEnrollmentActive toggles an enrollment. Repeating the current state is
// rejected.
func (s *AcademicService) SetEnrollmentActive(ctx context.Context, institutionID, enrollmentID string, active bool, updaterID string) error {
	enrollment, err := s.enrollmentRepo.GetEnrollment(ctx, institutionID, enrollmentID)
	if err != nil {
		return err
	}
	if enrollment.IsActive == active {
		if active {
			return apperrors.ErrEnrollmentAlreadyActive
		}
		return apperrors.ErrEnrollmentAlreadyInactive
	}
	if err := s.enrollmentRepo.SetActive(ctx, institutionID, enrollmentID, active); err != nil {
		logger.Error("Error toggling enrollment", zap.Error(err), zap.String("enrollmentID", enrollmentID), zap.String("updaterID", updaterID))
		return err
	}
	logger.Info("Enrollment activation changed", zap.String("enrollmentID", enrollmentID), zap.Bool("active", active), zap.String("updaterID", updaterID))
	return nil
}

// DeleteEnrollment soft-deletes an enrollment.
func (s *AcademicService) DeleteEnrollment(ctx context.Context, institutionID, enrollmentID string, deleterID string) error {
	enrollment, err := s.enrollmentRepo.GetEnrollment(ctx, institutionID, enrollmentID)
	if err != nil {
		return err
	}
	if err := s.enrollmentRepo.SoftDeleteEnrollment(ctx, institutionID, enrollmentID); err != nil {
		logger.Error("Error deleting enrollment", zap.Error(err), zap.String("enrollmentID", enrollmentID), zap.String("deleterID", deleterID))
		return err
	}

	s.eventBus.Publish(ctx, "enrollment.deleted", *enrollment)

	logger.Info("Enrollment deleted successfully", zap.String("enrollmentID", enrollmentID), zap.String("deleterID", deleterID))
	return nil
}

// GetEnrollment retrieves an enrollment within its institution
func (s *AcademicService) GetEnrollment(ctx context.Context, institutionID, enrollmentID string) (*model.StudentEnrollment, error) {
	return s.enrollmentRepo.GetEnrollment(ctx, institutionID, enrollmentID)
}

// ListEnrollments retrieves an institution's enrollments with pagination
func (s *AcademicService) ListEnrollments(ctx context.Context, institutionID string, limit, offset int) ([]*model.StudentEnrollment, error) {
	enrollments, err := s.enrollmentRepo.ListEnrollmentsByInstitution(ctx, institutionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}
