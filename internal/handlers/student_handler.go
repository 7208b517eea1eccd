package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kku-mis/course-registration/internal/dto"
	"github.com/kku-mis/course-registration/internal/services"
)

type StudentHandler struct {
	students *services.StudentService
}

func NewStudentHandler(students *services.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

func (h *StudentHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if _, err := selfOrStaff(c, id); err != nil {
		return writeError(c, err)
	}

	student, err := h.students.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(student)
}

func (h *StudentHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if _, err := selfOrStaff(c, id); err != nil {
		return writeError(c, err)
	}

	var req dto.UpdateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	student, err := h.students.UpdateProfile(c.UserContext(), id, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(student)
}

func (h *StudentHandler) Dashboard(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if _, err := selfOrStaff(c, id); err != nil {
		return writeError(c, err)
	}

	dash, err := h.students.Dashboard(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dash)
}
