// controller/academic_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusmesh/campus/api/authz"
	apperrors "github.com/campusmesh/campus/api/errors"
	"github.com/campusmesh/campus/api/model"
	"github.com/campusmesh/campus/api/resource"
	"github.com/campusmesh/campus/api/service"
	"github.com/campusmesh/campus/api/util"
	helper_util "github.com/campusmesh/campus/api/util/helper"
)

type AcademicController struct {
	academicService service.IAcademicService
}

func NewAcademicController(academicService service.IAcademicService) *AcademicController {
	return &AcademicController{
		academicService: academicService,
	}
}

// RegisterRoutes registers the academic structure routes: programs, classes,
// sections and student enrollments, all scoped to one institution.
func (ac *AcademicController) RegisterRoutes(r *authz.Router) {
	academic := r.Group("/institutions/:institutionId/academic")

	write := authz.Policy{Action: model.ActionWrite, Resource: resource.Academic}
	read := authz.Policy{Action: model.ActionRead, Resource: resource.Academic}
	update := authz.Policy{Action: model.ActionUpdate, Resource: resource.Academic}
	del := authz.Policy{Action: model.ActionDelete, Resource: resource.Academic}

	programs := academic.Group("/programs")
	programs.POST("", ac.CreateProgram, write)
	programs.PUT("/:programId", ac.UpdateProgram, update)
	programs.DELETE("/:programId", ac.DeleteProgram, del)
	programs.GET("/:programId", ac.GetProgram, read)
	programs.GET("", ac.ListPrograms, read)
	programs.PUT("/:programId/activate", ac.ActivateProgram, update)
	programs.PUT("/:programId/deactivate", ac.DeactivateProgram, update)

	classes := academic.Group("/classes")
	classes.POST("", ac.CreateClass, write)
	classes.PUT("/:classId", ac.UpdateClass, update)
	classes.DELETE("/:classId", ac.DeleteClass, del)
	classes.GET("/:classId", ac.GetClass, read)
	classes.GET("", ac.ListClasses, read)
	classes.PUT("/:classId/activate", ac.ActivateClass, update)
	classes.PUT("/:classId/deactivate", ac.DeactivateClass, update)
	classes.GET("/:classId/sections", ac.ListSections, read)

	sections := academic.Group("/sections")
	sections.POST("", ac.CreateSection, write)
	sections.PUT("/:sectionId", ac.UpdateSection, update)
	sections.DELETE("/:sectionId", ac.DeleteSection, del)
	sections.GET("/:sectionId", ac.GetSection, read)
	sections.PUT("/:sectionId/activate", ac.ActivateSection, update)
	sections.PUT("/:sectionId/deactivate", ac.DeactivateSection, update)

	enrollments := academic.Group("/enrollments")
	enrollments.POST("", ac.CreateEnrollment, write)
	enrollments.PUT("/:enrollmentId", ac.UpdateEnrollment, update)
	enrollments.DELETE("/:enrollmentId", ac.DeleteEnrollment, del)
	enrollments.GET("/:enrollmentId", ac.GetEnrollment, read)
	enrollments.GET("", ac.ListEnrollments, read)
	enrollments.PUT("/:enrollmentId/activate", ac.ActivateEnrollment, update)
	enrollments.PUT("/:enrollmentId/deactivate", ac.DeactivateEnrollment, update)
}

// ---- Programs ----

// CreateProgram endpoint
func (ac *AcademicController) CreateProgram(c *gin.Context) {
	var program model.AcademicProgram
	if err := c.ShouldBindJSON(&program); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid program data", err)
		return
	}
	program.InstitutionID = c.Param("institutionId")
	creatorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	created, err := ac.academicService.CreateProgram(c, program, creatorID)
	if err != nil {
		ac.respondAcademicError(c, err, "Failed to create program")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateProgram endpoint
func (ac *AcademicController) UpdateProgram(c *gin.Context) {
	var program model.AcademicProgram
	if err := c.ShouldBindJSON(&program); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid program data", err)
		return
	}
	program.ID = c.Param("programId")
	program.InstitutionID = c.Param("institutionId")
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	updated, err := ac.academicService.UpdateProgram(c, program, updaterID)
	if err != nil {
		ac.respondAcademicError(c, err, "Failed to update program")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteProgram endpoint
func (ac *AcademicController) DeleteProgram(c *gin.Context) {
	deleterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := ac.academicService.DeleteProgram(c, c.Param("institutionId"), c.Param("programId"), deleterID); err != nil {
		ac.respondAcademicError(c, err, "Failed to delete program")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetProgram endpoint
func (ac *AcademicController) GetProgram(c *gin.Context) {
	program, err := ac.academicService.GetProgram(c, c.Param("institutionId"), c.Param("programId"))
	if err != nil {
		ac.respondAcademicError(c, err, "Failed to retrieve program")
		return
	}

	c.JSON(http.StatusOK, program)
}

// ListPrograms endpoint
func (ac *AcademicController) ListPrograms(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	programs, err := ac.academicService.ListPrograms(c, c.Param("institutionId"), limit, offset)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list programs", err)
		return
	}

	c.JSON(http.StatusOK, programs)
}

// ActivateProgram endpoint
func (ac *AcademicController) ActivateProgram(c *gin.Context) {
	ac.toggleProgram(c, true)
}

// DeactivateProgram endpoint
func (ac *AcademicController) DeactivateProgram(c *gin.Context) {
	ac.toggleProgram(c, false)
}

func (ac *AcademicController) toggleProgram(c *gin.Context, active bool) {
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := ac.academicService.SetProgramActive(c, c.Param("institutionId"), c.Param("programId"), active, updaterID); err != nil {
		ac.respondAcademicError(c, err, "Failed to update program")
		return
	}

	c.Status(http.StatusNoContent)
}

// ---- Classes ----

// CreateClass endpoint
func (ac *AcademicController) CreateClass(c *gin.Context) {
	var class model.AcademicClass
	if err := c.ShouldBindJSON(&class); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid class data", err)
		return
	}
	class.InstitutionID = c.Param("institutionId")
	creatorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	created, err := ac.academicService.CreateClass(c, class, creatorID)
	if err != nil {
		ac.respondAcademicError(c, err, "Failed to create class")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateClass endpoint
func (ac *AcademicController) UpdateClass(c *gin.Context) {
	var class model.AcademicClass
	if err := c.ShouldBindJSON(&class); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid class data", err)
		return
	}
	class.ID = c.Param("classId")
	class.InstitutionID = c.Param("institutionId")
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	updated, err := ac.academicService.UpdateClass(c, class, updaterID)
	if err != nil {
		ac.respondAcademicError(c, err, "Failed to update class")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteClass endpoint
func (ac *AcademicController) DeleteClass(c *gin.Context) {
	deleterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := ac.academicService.DeleteClass(c, c.Param("institutionId"), c.Param("classId"), deleterID); err != nil {
		ac.respondAcademicError(c, err, "Failed to delete class")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetClass endpoint
func (ac *AcademicController) GetClass(c *gin.Context) {
	class, err := ac.academicService.GetClass(c, c.Param("institutionId"), c.Param("classId"))
	if err != nil {
		ac.respondAcademicError(c, err, "Failed to retrieve class")
		return
	}

	c.JSON(http.StatusOK, class)
}

// ListClasses endpoint
func (ac *AcademicController) ListClasses(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	classes, err := ac.academicService.ListClasses(c, c.Param("institutionId"), limit, offset)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list classes", err)
		return
	}

	c.JSON(http.StatusOK, classes)
}

// ActivateClass endpoint
func (ac *AcademicController) ActivateClass(c *gin.Context) {
	ac.toggleClass(c, true)
}

// DeactivateClass endpoint
func (ac *AcademicController) DeactivateClass(c *gin.Context) {
	ac.toggleClass(c, false)
}

func (ac *AcademicController) toggleClass(c *gin.Context, active bool) {
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := ac.academicService.SetClassActive(c, c.Param("institutionId"), c.Param("classId"), active, updaterID); err != nil {
		ac.respondAcademicError(c, err, "Failed to update class")
		return
	}

	c.Status(http.StatusNoContent)
}

// ---- Sections ----

// CreateSection endpoint
func (ac *AcademicController) CreateSection(c *gin.Context) {
	var section model.Section
	if err := c.ShouldBindJSON(&section); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid section data", err)
		return
	}
	section.InstitutionID = c.Param("institutionId")
	creatorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	created, err := ac.academicService.CreateSection(c, section, creatorID)
	if err != nil {
		ac.respondAcademicError(c, err, "Failed to create section")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateSection endpoint
func (ac *AcademicController) UpdateSection(c *gin.Context) {
	var section model.Section
	if err := c.ShouldBindJSON(&section); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid section data", err)
		return
	}
	section.ID = c.Param("sectionId")
	section.InstitutionID = c.Param("institutionId")
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	updated, err := ac.academicService.UpdateSection(c, section, updaterID)
	if err != nil {
		ac.respondAcademicError(c, err, "Failed to update section")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteSection endpoint
func (ac *AcademicController) DeleteSection(c *gin.Context) {
	deleterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := ac.academicService.DeleteSection(c, c.Param("institutionId"), c.Param("sectionId"), deleterID); err != nil {
		ac.respondAcademicError(c, err, "Failed to delete section")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSection endpoint
func (ac *AcademicController) GetSection(c *gin.Context) {
	section, err := ac.academicService.GetSection(c, c.Param("institutionId"), c.Param("sectionId"))
	if err != nil {
		ac.respondAcademicError(c, err, "Failed to retrieve section")
		return
	}

	c.JSON(http.StatusOK, section)
}

// ListSections lists a class's sections.
func (ac *AcademicController) ListSections(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	sections, err := ac.academicService.ListSections(c, c.Param("institutionId"), c.Param("classId"), limit, offset)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list sections", err)
		return
	}

	c.JSON(http.StatusOK, sections)
}

// ActivateSection endpoint
func (ac *AcademicController) ActivateSection(c *gin.Context) {
	ac.toggleSection(c, true)
}

// DeactivateSection endpoint
func (ac *AcademicController) DeactivateSection(c *gin.Context) {
	ac.toggleSection(c, false)
}

func (ac *AcademicController) toggleSection(c *gin.Context, active bool) {
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := ac.academicService.SetSectionActive(c, c.Param("institutionId"), c.Param("sectionId"), active, updaterID); err != nil {
		ac.respondAcademicError(c, err, "Failed to update section")
		return
	}

	c.Status(http.StatusNoContent)
}

// ---- Enrollments ----

// CreateEnrollment endpoint
func (ac *AcademicController) CreateEnrollment(c *gin.Context) {
	var enrollment model.StudentEnrollment
	if err := c.ShouldBindJSON(&enrollment); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid enrollment data", err)
		return
	}
	enrollment.InstitutionID = c.Param("institutionId")
	creatorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	created, err := ac.academicService.CreateEnrollment(c, enrollment, creatorID)
	if err != nil {
		ac.respondAcademicError(c, err, "Failed to create enrollment")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateEnrollment endpoint
func (ac *AcademicController) UpdateEnrollment(c *gin.Context) {
	var enrollment model.StudentEnrollment
	if err := c.ShouldBindJSON(&enrollment); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid enrollment data", err)
		return
	}
	enrollment.ID = c.Param("enrollmentId")
	enrollment.InstitutionID = c.Param("institutionId")
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	updated, err := ac.academicService.UpdateEnrollment(c, enrollment, updaterID)
	if err != nil {
		ac.respondAcademicError(c, err, "Failed to update enrollment")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteEnrollment endpoint
func (ac *AcademicController) DeleteEnrollment(c *gin.Context) {
	deleterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := ac.academicService.DeleteEnrollment(c, c.Param("institutionId"), c.Param("enrollmentId"), deleterID); err != nil {
		ac.respondAcademicError(c, err, "Failed to delete enrollment")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetEnrollment endpoint
func (ac *AcademicController) GetEnrollment(c *gin.Context) {
	enrollment, err := ac.academicService.GetEnrollment(c, c.Param("institutionId"), c.Param("enrollmentId"))
	if err != nil {
		ac.respondAcademicError(c, err, "Failed to retrieve enrollment")
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// ListEnrollments endpoint
func (ac *AcademicController) ListEnrollments(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	enrollments, err := ac.academicService.ListEnrollments(c, c.Param("institutionId"), limit, offset)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list enrollments", err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// ActivateEnrollment endpoint
func (ac *AcademicController) ActivateEnrollment(c *gin.Context) {
	ac.toggleEnrollment(c, true)
}

// DeactivateEnrollment endpoint
func (ac *AcademicController) DeactivateEnrollment(c *gin.Context) {
	ac.toggleEnrollment(c, false)
}

func (ac *AcademicController) toggleEnrollment(c *gin.Context, active bool) {
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := ac.academicService.SetEnrollmentActive(c, c.Param("institutionId"), c.Param("enrollmentId"), active, updaterID); err != nil {
		ac.respondAcademicError(c, err, "Failed to update enrollment")
		return
	}

	c.Status(http.StatusNoContent)
}

func (ac *AcademicController) respondAcademicError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrInstitutionNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Institution not found", err)
	case errors.Is(err, apperrors.ErrProgramNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Academic program not found", err)
	case errors.Is(err, apperrors.ErrClassNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Academic class not found", err)
	case errors.Is(err, apperrors.ErrSectionNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Section not found", err)
	case errors.Is(err, apperrors.ErrEnrollmentNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Enrollment not found", err)
	case errors.Is(err, apperrors.ErrProgramConflict),
		errors.Is(err, apperrors.ErrClassConflict),
		errors.Is(err, apperrors.ErrSectionConflict),
		errors.Is(err, apperrors.ErrEnrollmentConflict):
		util.RespondWithError(c, http.StatusConflict, err.Error(), err)
	case errors.Is(err, apperrors.ErrInstitutionInactive):
		util.RespondWithError(c, http.StatusBadRequest, "Institution is not active", err)
	case errors.Is(err, apperrors.ErrProgramAlreadyActive),
		errors.Is(err, apperrors.ErrProgramAlreadyInactive),
		errors.Is(err, apperrors.ErrClassAlreadyActive),
		errors.Is(err, apperrors.ErrClassAlreadyInactive),
		errors.Is(err, apperrors.ErrSectionAlreadyActive),
		errors.Is(err, apperrors.ErrSectionAlreadyInactive),
		errors.Is(err, apperrors.ErrEnrollmentAlreadyActive),
		errors.Is(err, apperrors.ErrEnrollmentAlreadyInactive):
		util.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
	default:
		util.RespondWithError(c, http.StatusInternalServerError, fallback, err)
	}
}
