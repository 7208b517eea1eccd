package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/kku-mis/course-registration/internal/services"
)

type CourseHandler struct {
	courses *services.CourseService
}

func NewCourseHandler(courses *services.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

func (h *CourseHandler) List(c *fiber.Ctx) error {
	var level *int
	if raw := c.Query("level"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return badRequest(c, "level must be a positive integer")
		}
		level = &n
	}

	courses, err := h.courses.List(c.UserContext(), level)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"courses": courses})
}

func (h *CourseHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	course, err := h.courses.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(course)
}
