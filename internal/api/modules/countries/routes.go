package countries_module

import (
	"github.com/gin-gonic/gin"
)

// Register routes for the countries module
func RegisterRoutes(g *gin.RouterGroup) {
	group := g.Group("/countries")

	group.POST("/refresh", RefreshCountries) // Fetch, reconcile and store both feeds
	group.GET("", ListCountries)             // List countries with optional filters and sort
	group.GET("/image", GetSummaryImage)     // Serve the latest summary image
	group.GET("/:name", GetCountry)          // Get a country by name
	group.DELETE("/:name", DeleteCountry)    // Delete a country by name

	g.GET("/status", GetStatus)
}
