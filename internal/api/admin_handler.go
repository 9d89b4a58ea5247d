package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/preschool-cms-api/internal/models"
	"github.com/preschool-cms-api/internal/service"
	"github.com/rs/zerolog"
)

// AdminHandler handles the CMS endpoints behind RequireAdmin
type AdminHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

// Dashboard handles GET /admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	session := sessionFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"data": h.services.Dashboard(c.Request.Context(), session.Email),
	})
}

// Blog posts

// ListBlogPosts handles GET /admin/blog-posts
func (h *AdminHandler) ListBlogPosts(c *gin.Context) {
	posts, loading := h.services.Blog.List(c.Request.Context())
	respondList(c, posts, loading)
}

// CreateBlogPost handles POST /admin/blog-posts
func (h *AdminHandler) CreateBlogPost(c *gin.Context) {
	var form models.BlogPostCreate
	if err := c.ShouldBindJSON(&form); err != nil {
		badBody(c)
		return
	}
	respond(c, h.log, h.services.Blog.Create(c.Request.Context(), form), http.StatusCreated)
}

// UpdateBlogPost handles PATCH /admin/blog-posts/:id
func (h *AdminHandler) UpdateBlogPost(c *gin.Context) {
	var in models.BlogPostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c)
		return
	}
	respond(c, h.log, h.services.Blog.Update(c.Request.Context(), c.Param("id"), in), http.StatusOK)
}

// ToggleBlogPost handles POST /admin/blog-posts/:id/toggle-published
func (h *AdminHandler) ToggleBlogPost(c *gin.Context) {
	respond(c, h.log, h.services.Blog.TogglePublished(c.Request.Context(), c.Param("id")), http.StatusOK)
}

// DeleteBlogPost handles DELETE /admin/blog-posts/:id
func (h *AdminHandler) DeleteBlogPost(c *gin.Context) {
	respond(c, h.log, h.services.Blog.Delete(c.Request.Context(), c.Param("id"), confirmed(c)), http.StatusOK)
}

// Contact messages

// ListContactMessages handles GET /admin/contact-messages
func (h *AdminHandler) ListContactMessages(c *gin.Context) {
	msgs, loading := h.services.Contact.List(c.Request.Context())
	respondList(c, msgs, loading)
}

// DeleteContactMessage handles DELETE /admin/contact-messages/:id
func (h *AdminHandler) DeleteContactMessage(c *gin.Context) {
	respond(c, h.log, h.services.Contact.Delete(c.Request.Context(), c.Param("id"), confirmed(c)), http.StatusOK)
}

// Enrollments

// ListEnrollments handles GET /admin/enrollments
func (h *AdminHandler) ListEnrollments(c *gin.Context) {
	views, loading := h.services.Enrollment.List(c.Request.Context())
	respondList(c, views, loading)
}

// GetEnrollment handles GET /admin/enrollments/:id
func (h *AdminHandler) GetEnrollment(c *gin.Context) {
	respond(c, h.log, h.services.Enrollment.Get(c.Request.Context(), c.Param("id")), http.StatusOK)
}

// ApproveEnrollment handles POST /admin/enrollments/:id/approve
func (h *AdminHandler) ApproveEnrollment(c *gin.Context) {
	respond(c, h.log, h.services.Enrollment.Approve(c.Request.Context(), c.Param("id")), http.StatusOK)
}

// RejectEnrollment handles POST /admin/enrollments/:id/reject
func (h *AdminHandler) RejectEnrollment(c *gin.Context) {
	respond(c, h.log, h.services.Enrollment.Reject(c.Request.Context(), c.Param("id")), http.StatusOK)
}

// DeleteEnrollment handles DELETE /admin/enrollments/:id
func (h *AdminHandler) DeleteEnrollment(c *gin.Context) {
	respond(c, h.log, h.services.Enrollment.Delete(c.Request.Context(), c.Param("id"), confirmed(c)), http.StatusOK)
}

// Gallery

// ListGalleryItems handles GET /admin/gallery-items
func (h *AdminHandler) ListGalleryItems(c *gin.Context) {
	items, loading := h.services.Gallery.List(c.Request.Context())
	respondList(c, items, loading)
}

// CreateGalleryItem handles POST /admin/gallery-items
func (h *AdminHandler) CreateGalleryItem(c *gin.Context) {
	var form models.GalleryItemCreate
	if err := c.ShouldBindJSON(&form); err != nil {
		badBody(c)
		return
	}
	respond(c, h.log, h.services.Gallery.Create(c.Request.Context(), form), http.StatusCreated)
}

// UpdateGalleryItem handles PATCH /admin/gallery-items/:id
func (h *AdminHandler) UpdateGalleryItem(c *gin.Context) {
	var in models.GalleryItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c)
		return
	}
	respond(c, h.log, h.services.Gallery.Update(c.Request.Context(), c.Param("id"), in), http.StatusOK)
}

// DeleteGalleryItem handles DELETE /admin/gallery-items/:id
func (h *AdminHandler) DeleteGalleryItem(c *gin.Context) {
	respond(c, h.log, h.services.Gallery.Delete(c.Request.Context(), c.Param("id"), confirmed(c)), http.StatusOK)
}

// Daily schedule

// ListScheduleItems handles GET /admin/daily-schedule
func (h *AdminHandler) ListScheduleItems(c *gin.Context) {
	items, loading := h.services.Schedule.List(c.Request.Context())
	respondList(c, items, loading)
}

// CreateScheduleItem handles POST /admin/daily-schedule
func (h *AdminHandler) CreateScheduleItem(c *gin.Context) {
	var form models.ScheduleItemCreate
	if err := c.ShouldBindJSON(&form); err != nil {
		badBody(c)
		return
	}
	respond(c, h.log, h.services.Schedule.Create(c.Request.Context(), form), http.StatusCreated)
}

// UpdateScheduleItem handles PATCH /admin/daily-schedule/:id
func (h *AdminHandler) UpdateScheduleItem(c *gin.Context) {
	var in models.ScheduleItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c)
		return
	}
	respond(c, h.log, h.services.Schedule.Update(c.Request.Context(), c.Param("id"), in), http.StatusOK)
}

// DeleteScheduleItem handles DELETE /admin/daily-schedule/:id
func (h *AdminHandler) DeleteScheduleItem(c *gin.Context) {
	respond(c, h.log, h.services.Schedule.Delete(c.Request.Context(), c.Param("id"), confirmed(c)), http.StatusOK)
}
