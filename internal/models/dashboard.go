package models

// DashboardStats are the per-tab counters shown on the admin dashboard
type DashboardStats struct {
	AdminEmail         string `json:"admin_email"`
	Enrollments        int    `json:"enrollments"`
	PendingEnrollments int    `json:"pending_enrollments"`
	BlogPosts          int    `json:"blog_posts"`
	PublishedPosts     int    `json:"published_posts"`
	ContactMessages    int    `json:"contact_messages"`
	GalleryItems       int    `json:"gallery_items"`
	ScheduleItems      int    `json:"schedule_items"`
	Loading            bool   `json:"loading"`
}
