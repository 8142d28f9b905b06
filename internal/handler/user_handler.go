package handler

import (
	"net/http"
	"strconv"

	"gossipgraph/backend/internal/database"
	"gossipgraph/backend/internal/models"
	"gossipgraph/backend/internal/relation"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// UpdateProfileInput defines the body for profile updates. Absent fields are
// left untouched.
type UpdateProfileInput struct {
	DisplayName *string `json:"display_name" example:"Alice"`
	Signature   *string `json:"signature" example:"No gossip yet."`
}

// PublicUserResponse defines the structure for a user's public profile.
type PublicUserResponse struct {
	ID        uint   `json:"id" example:"1"`
	Username  string `json:"username" example:"alice"`
	Name      string `json:"name" example:"Alice"`
	Avatar    string `json:"avatar" example:"1.png"`
	Signature string `json:"signature" example:"No gossip yet."`

	// Active edge types between the viewer and this user, one per direction.
	// For undirected edges both fields carry the same type.
	RelationToMe *relation.Type `json:"relation_to_me,omitempty"`
	MeToRelation *relation.Type `json:"me_to_relation,omitempty"`
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// endregion

// region --- User Handlers ---

// SearchUsers godoc
// @Summary      Search for users
// @Description  Searches for users by username or display name with pagination.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  false  "Search query"
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(10)
// @Success      200   {object}  PaginatedResponse[PublicUserResponse]
// @Failure      401   {object}  ErrorResponse
// @Router       /users [get]
func SearchUsers(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	searchQuery := c.Query("q")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100 // Max limit
	}

	query := database.DB.Model(&models.User{}).Where("id <> ?", viewerID)
	if searchQuery != "" {
		pattern := "%" + searchQuery + "%"
		query = query.Where("username LIKE ? OR display_name LIKE ?", pattern, pattern)
	}

	result, err := Paginate[models.User](query.Order("id"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	userResponses := make([]PublicUserResponse, 0, len(result.Data))
	for _, user := range result.Data {
		userResponses = append(userResponses, buildPublicUserResponse(user, viewerID.(uint)))
	}

	c.JSON(http.StatusOK, PaginatedResponse[PublicUserResponse]{Data: userResponses, Meta: result.Meta})
}

// GetUserByID godoc
// @Summary      Get user by ID
// @Description  Retrieves the public profile for a specific user, including the viewer's relation to them.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  PublicUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func GetUserByID(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	targetUserID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var targetUser models.User
	if err := database.DB.First(&targetUser, uint(targetUserID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, buildPublicUserResponse(targetUser, viewerID.(uint)))
}

// GetMe godoc
// @Summary      Get current user's profile
// @Description  Retrieves the profile of the currently authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PublicUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func GetMe(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var user models.User
	if err := database.DB.First(&user, viewerID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, buildPublicUserResponse(user, viewerID.(uint)))
}

// UpdateProfile godoc
// @Summary      Update own profile
// @Description  Updates display name and/or signature. Any change bumps the profile timestamp the feed fingerprint observes.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UpdateProfileInput true "Fields to update"
// @Success      200  {object}  ActionResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me/profile [post]
func UpdateProfile(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	updates := map[string]interface{}{}
	if input.DisplayName != nil {
		if *input.DisplayName == "" || len(*input.DisplayName) > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Display name must be 1-100 characters"})
			return
		}
		updates["display_name"] = *input.DisplayName
	}
	if input.Signature != nil {
		if len(*input.Signature) > 160 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature is too long"})
			return
		}
		updates["signature"] = *input.Signature
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	res := database.DB.Model(&models.User{}).Where("id = ?", viewerID).Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, ActionResponse{Success: true})
}

// endregion

// region --- Helpers ---

func buildPublicUserResponse(targetUser models.User, viewerID uint) PublicUserResponse {
	resp := PublicUserResponse{
		ID:        targetUser.ID,
		Username:  targetUser.Username,
		Name:      targetUser.DisplayName,
		Avatar:    targetUser.Avatar,
		Signature: targetUser.Signature,
	}
	if targetUser.ID == viewerID {
		return resp
	}

	var edges []models.Relationship
	err := database.DB.
		Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)",
			viewerID, targetUser.ID, targetUser.ID, viewerID).
		Where("deleted_at IS NULL").
		Find(&edges).Error
	if err != nil {
		return resp
	}

	for i := range edges {
		e := edges[i]
		if !e.Type.Directed() {
			resp.MeToRelation = &e.Type
			resp.RelationToMe = &e.Type
			continue
		}
		if e.FromID == viewerID {
			resp.MeToRelation = &e.Type
		} else {
			resp.RelationToMe = &e.Type
		}
	}
	return resp
}

// endregion
