package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/autoorder/internal/api/handlers"
	"github.com/andresuchdata/autoorder/internal/api/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Services holds what the router exposes. Nil members leave their routes
// unregistered.
type Services struct {
	Planning handlers.Planner
	Catalog  handlers.Catalog
	Importer handlers.Importer

	// DriveFolderID is the folder imported when no fileId or folderId is given.
	DriveFolderID string
	// OnImported runs after a Drive import wrote data.
	OnImported func(ctx context.Context)
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(allowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")
	if services == nil {
		return router
	}

	if services.Planning != nil {
		planningHandler := handlers.NewPlanningHandler(services.Planning)
		weeksGroup := apiGroup.Group("/weeks/:year/:week")
		{
			weeksGroup.POST("", planningHandler.CreateWeek)
			weeksGroup.GET("/plan", planningHandler.GetPlan)
			weeksGroup.POST("/snapshot", planningHandler.Snapshot)
			weeksGroup.POST("/export", planningHandler.Export)
		}

		ordersGroup := apiGroup.Group("/orders/:id")
		{
			ordersGroup.PUT("/stock/:productId", planningHandler.UpdateStock)
			ordersGroup.PUT("/quantities/:productId", planningHandler.UpdateQuantity)
		}

		apiGroup.GET("/exports", planningHandler.ListExports)
	}

	if services.Catalog != nil {
		catalogHandler := handlers.NewCatalogHandler(services.Catalog)
		apiGroup.GET("/products", catalogHandler.GetProducts)
		apiGroup.GET("/categories", catalogHandler.GetCategories)
	}

	if services.Importer != nil {
		importHandler := handlers.NewImportHandler(services.Importer, services.DriveFolderID, services.OnImported)
		apiGroup.POST("/imports/drive", importHandler.ImportDrive)
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	config := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	normalized, allowAll := normalizeAllowedOrigins(allowedOrigins)
	switch {
	case allowAll:
		config.AllowOrigins = nil
		config.AllowOriginFunc = func(origin string) bool { return true }
	case len(normalized) > 0:
		config.AllowOrigins = normalized
	}
	return config
}

// normalizeAllowedOrigins flattens comma-separated entries. A "*" entry
// allows every origin.
func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimRight(strings.TrimSpace(part), "/")
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
