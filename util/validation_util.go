// util/validation_util.go

package util

import (
	"fmt"
	"strings"

	"github.com/campusmesh/campus/api/model"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

func (v *ValidationUtil) ValidatePermission(permission model.Permission) error {
	if strings.TrimSpace(permission.Resource) == "" {
		return fmt.Errorf("permission resource cannot be empty")
	}
	if _, ok := model.ParseAction(string(permission.Action)); !ok {
		return fmt.Errorf("permission action must be one of READ, WRITE, UPDATE, DELETE")
	}
	return nil
}

func (v *ValidationUtil) ValidateRole(role model.Role) error {
	if strings.TrimSpace(role.Name) == "" {
		return fmt.Errorf("role name cannot be empty")
	}
	return nil
}

func (v *ValidationUtil) ValidateInstitutionRole(role model.InstitutionRole) error {
	if strings.TrimSpace(role.Name) == "" {
		return fmt.Errorf("role name cannot be empty")
	}
	if role.InstitutionID == "" {
		return fmt.Errorf("role institution ID cannot be empty")
	}
	return nil
}

func (v *ValidationUtil) ValidateInstitution(institution model.Institution) error {
	if strings.TrimSpace(institution.Name) == "" {
		return fmt.Errorf("institution name cannot be empty")
	}
	switch institution.Type {
	case model.InstitutionTypeSchool, model.InstitutionTypeCollege, model.InstitutionTypeUniversity:
	default:
		return fmt.Errorf("institution type must be one of SCHOOL, COLLEGE, UNIVERSITY")
	}
	return nil
}

func (v *ValidationUtil) ValidateUser(user model.User) error {
	if strings.TrimSpace(user.FirstName) == "" {
		return fmt.Errorf("user first name cannot be empty")
	}
	if user.Email == "" {
		return fmt.Errorf("user email cannot be empty")
	}
	return nil
}

func (v *ValidationUtil) ValidateInstitutionUser(user model.InstitutionUser) error {
	if strings.TrimSpace(user.FirstName) == "" {
		return fmt.Errorf("user first name cannot be empty")
	}
	if user.Email == "" {
		return fmt.Errorf("user email cannot be empty")
	}
	if user.InstitutionID == "" {
		return fmt.Errorf("user institution ID cannot be empty")
	}
	return nil
}

func (v *ValidationUtil) ValidateAcademicProgram(program model.AcademicProgram) error {
	if strings.TrimSpace(program.Name) == "" {
		return fmt.Errorf("program name cannot be empty")
	}
	if program.InstitutionID == "" {
		return fmt.Errorf("program institution ID cannot be empty")
	}
	if program.DurationInYears <= 0 {
		return fmt.Errorf("program duration must be positive")
	}
	return nil
}

func (v *ValidationUtil) ValidateAcademicClass(class model.AcademicClass) error {
	if strings.TrimSpace(class.Name) == "" {
		return fmt.Errorf("class name cannot be empty")
	}
	if class.InstitutionID == "" {
		return fmt.Errorf("class institution ID cannot be empty")
	}
	if class.AcademicYear == "" {
		return fmt.Errorf("class academic year cannot be empty")
	}
	return nil
}

func (v *ValidationUtil) ValidateSection(section model.Section) error {
	if strings.TrimSpace(section.Name) == "" {
		return fmt.Errorf("section name cannot be empty")
	}
	if section.InstitutionID == "" {
		return fmt.Errorf("section institution ID cannot be empty")
	}
	if section.ClassID == "" {
		return fmt.Errorf("section class ID cannot be empty")
	}
	return nil
}

func (v *ValidationUtil) ValidateEnrollment(enrollment model.StudentEnrollment) error {
	if enrollment.StudentID == "" {
		return fmt.Errorf("enrollment student ID cannot be empty")
	}
	if enrollment.InstitutionID == "" {
		return fmt.Errorf("enrollment institution ID cannot be empty")
	}
	if enrollment.AcademicYear == "" {
		return fmt.Errorf("enrollment academic year cannot be empty")
	}
	return nil
}
