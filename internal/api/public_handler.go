package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/preschool-cms-api/internal/models"
	"github.com/preschool-cms-api/internal/service"
	"github.com/rs/zerolog"
)

// latestPostsOnHome is how many posts the home page previews
const latestPostsOnHome = 3

// section is an anchor of the one-page marketing site
type section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

var homeSections = []section{
	{ID: "hero", Title: "Welcome"},
	{ID: "about", Title: "About Us"},
	{ID: "activities", Title: "Activities"},
	{ID: "gallery", Title: "Gallery"},
	{ID: "blog", Title: "Blog"},
	{ID: "contact", Title: "Contact"},
}

// PublicHandler serves the visitor-facing read projections and forms
type PublicHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewPublicHandler creates a new PublicHandler
func NewPublicHandler(services *service.Services, log zerolog.Logger) *PublicHandler {
	return &PublicHandler{
		services: services,
		log:      log.With().Str("handler", "public").Logger(),
	}
}

// Home handles GET /
func (h *PublicHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()

	gallery, galleryLoading := h.services.Gallery.Public(ctx)
	schedule, scheduleLoading := h.services.Schedule.Grouped(ctx)
	posts, postsLoading := h.services.Blog.Published(ctx)
	if len(posts) > latestPostsOnHome {
		posts = posts[:latestPostsOnHome]
	}

	c.JSON(http.StatusOK, gin.H{
		"sections":    homeSections,
		"gallery":     gallery,
		"schedule":    schedule,
		"latestPosts": posts,
		"loading":     galleryLoading || scheduleLoading || postsLoading,
	})
}

// ListBlog handles GET /blog
func (h *PublicHandler) ListBlog(c *gin.Context) {
	posts, loading := h.services.Blog.Published(c.Request.Context())
	respondList(c, posts, loading)
}

// GetBlogPost handles GET /blog/:id. Missing and unpublished posts redirect
// to the blog list.
func (h *PublicHandler) GetBlogPost(c *gin.Context) {
	res := h.services.Blog.GetPublished(c.Request.Context(), c.Param("id"))
	switch res.Kind {
	case service.KindOK:
		c.JSON(http.StatusOK, gin.H{"data": res.Record})
	case service.KindNotFound:
		c.Redirect(http.StatusFound, "/blog")
	default:
		respond(c, h.log, res, http.StatusOK)
	}
}

// Gallery handles GET /gallery
func (h *PublicHandler) Gallery(c *gin.Context) {
	items, loading := h.services.Gallery.Public(c.Request.Context())
	respondList(c, items, loading)
}

// Schedule handles GET /schedule
func (h *PublicHandler) Schedule(c *gin.Context) {
	days, loading := h.services.Schedule.Grouped(c.Request.Context())
	respondList(c, days, loading)
}

// SubmitContact handles POST /contact
func (h *PublicHandler) SubmitContact(c *gin.Context) {
	var form models.ContactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badBody(c)
		return
	}
	respond(c, h.log, h.services.Contact.Submit(c.Request.Context(), form), http.StatusCreated)
}

// SubmitEnrollment handles POST /enrollments
func (h *PublicHandler) SubmitEnrollment(c *gin.Context) {
	var form models.EnrollmentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badBody(c)
		return
	}
	respond(c, h.log, h.services.Enrollment.Submit(c.Request.Context(), form), http.StatusCreated)
}
