package http

import "github.com/gin-gonic/gin"

func RegisterListingRoutes(r *gin.Engine, handler *ListingHandler) {
	r.POST("/listings", handler.SubmitListing)
	r.DELETE("/vehicles/:registration", handler.DeleteListing)
	r.GET("/deadletters", handler.ListDeadLetters)
	r.GET("/notifications", handler.StreamNotifications)
}
