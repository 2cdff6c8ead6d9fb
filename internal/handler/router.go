package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bioclass-api/internal/middleware"
	"github.com/noah-isme/bioclass-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth        *AuthHandler
	Courses     *CourseHandler
	Enrollments *EnrollmentHandler
	Finance     *FinanceHandler
	Expenses    *ExpenseHandler
	Profiles    *ProfileHandler
	CEP         *CEPHandler
	Checkout    *CheckoutHandler
	Dashboard   *DashboardHandler
}

// RegisterRoutes mounts the public, student and admin routes on r.
func RegisterRoutes(r gin.IRouter, h Handlers, tokens middleware.TokenValidator) {
	auth := r.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	r.GET("/courses", h.Courses.Catalog)
	r.GET("/courses/:id", middleware.OptionalJWT(tokens), h.Courses.Get)
	r.GET("/cep/:cep", h.CEP.Lookup)

	secured := r.Group("")
	secured.Use(middleware.JWT(tokens))
	secured.GET("/auth/me", h.Auth.Me)
	secured.POST("/auth/change-password", h.Auth.ChangePassword)
	secured.GET("/me/profile", h.Profiles.Me)
	secured.PUT("/me/profile", h.Profiles.Update)
	secured.GET("/me/enrollments", h.Enrollments.Mine)
	secured.POST("/enrollments", middleware.RequireRoles(models.RoleStudent, models.RoleAdmin), h.Enrollments.Enroll)
	secured.GET("/enrollments/:id", h.Enrollments.Get)
	secured.GET("/enrollments/:id/certificate", h.Enrollments.Certificate)
	secured.GET("/enrollments/:id/certificate/pdf", h.Enrollments.CertificatePDF)
	secured.POST("/checkout", h.Checkout.Start)

	admin := secured.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.GET("/dashboard", h.Dashboard.Admin)

	admin.GET("/courses", h.Courses.List)
	admin.POST("/courses", h.Courses.Create)
	admin.PUT("/courses/:id", h.Courses.Update)
	admin.DELETE("/courses/:id", h.Courses.Delete)
	admin.POST("/courses/:id/complete", h.Enrollments.CompleteCourse)

	admin.GET("/enrollments", h.Enrollments.List)
	admin.POST("/enrollments/:id/approve", h.Enrollments.Approve)
	admin.POST("/enrollments/:id/toggle", h.Enrollments.Toggle)

	admin.GET("/finance", h.Finance.Overview)
	admin.POST("/finance/transactions", h.Finance.CreateTransaction)
	admin.GET("/finance/report", h.Finance.Report)

	admin.GET("/expenses", h.Expenses.List)
	admin.POST("/expenses", h.Expenses.Create)
	admin.GET("/expenses/:id", h.Expenses.Get)
	admin.PUT("/expenses/:id", h.Expenses.Update)
	admin.DELETE("/expenses/:id", h.Expenses.Delete)

	admin.GET("/students", h.Profiles.Students)
	admin.GET("/students/export", h.Profiles.ExportStudents)
}
