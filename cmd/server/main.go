package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"gossipgraph/backend/internal/auth"
	"gossipgraph/backend/internal/config"
	"gossipgraph/backend/internal/database"
	"gossipgraph/backend/internal/feed"
	"gossipgraph/backend/internal/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Swagger imports
	_ "gossipgraph/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Gossip Graph API
// @version         1.0
// @description     Social graph service: typed relationship edges mediated by a request/accept handshake, with a polling change-feed.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	// Change-feed service shared by all handler goroutines; the waiter cap
	// bounds how many long polls may park concurrently.
	feed.Init(
		database.DB,
		time.Duration(config.AppConfig.FeedPollIntervalMS)*time.Millisecond,
		config.AppConfig.FeedMaxWaiters,
	)

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("", handler.SearchUsers) // Must be before /:id
			userRoutes.GET("/me", handler.GetMe)
			userRoutes.POST("/me/profile", handler.UpdateProfile)
			userRoutes.GET("/:id", handler.GetUserByID)
		}

		// Relationship handshake routes (protected)
		relationRoutes := apiV1.Group("/relations")
		relationRoutes.Use(auth.AuthMiddleware())
		{
			relationRoutes.GET("/types", handler.GetRelationTypes)
			relationRoutes.POST("/request", handler.SendRelationRequest)
			relationRoutes.POST("/update", handler.UpdateRelationRequest)
			relationRoutes.POST("/:id/accept", handler.AcceptRelationRequest)
			relationRoutes.POST("/:id/reject", handler.RejectRelationRequest)
			relationRoutes.POST("/remove", handler.RemoveRelation)
		}

		// Change-feed route (protected)
		graphRoutes := apiV1.Group("/graph")
		graphRoutes.Use(auth.AuthMiddleware())
		{
			graphRoutes.GET("/feed", handler.GetGraphFeed)
		}
	}

	fmt.Printf("Server is running on %s\n", config.AppConfig.ListenAddr)
	fmt.Println("Swagger UI is available at http://localhost:8080/swagger/index.html")
	log.Fatal(router.Run(config.AppConfig.ListenAddr))
}
