package handler

import (
	"errors"
	"net/http"
	"strconv"

	"gossipgraph/backend/internal/database"
	"gossipgraph/backend/internal/relation"
	"gossipgraph/backend/internal/relationship"

	"github.com/gin-gonic/gin"
)

// RelationActionInput defines the body for propose/update/remove actions.
type RelationActionInput struct {
	ToID uint   `json:"to_id" binding:"required" example:"2"`
	Type string `json:"type" example:"DATING"`
}

// ActionResponse is the structured result of every mutation endpoint.
// Business-rule conflicts are normal outcomes, not HTTP errors.
type ActionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty" example:"AlreadyRelated"`
}

// RelationTypesResponse lists the recognized relation types.
type RelationTypesResponse struct {
	Types    []relation.Type `json:"types"`
	Directed []relation.Type `json:"directed"`
}

// GetRelationTypes godoc
// @Summary      List relation types
// @Description  Returns the closed set of relation types and which of them are directed.
// @Tags         relations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  RelationTypesResponse
// @Router       /relations/types [get]
func GetRelationTypes(c *gin.Context) {
	directed := []relation.Type{}
	for _, t := range relation.All {
		if t.Directed() {
			directed = append(directed, t)
		}
	}
	c.JSON(http.StatusOK, RelationTypesResponse{Types: relation.All, Directed: directed})
}

// SendRelationRequest godoc
// @Summary      Propose a relationship
// @Description  Creates a pending request for a new edge to another user.
// @Tags         relations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body RelationActionInput true "Target and relation type"
// @Success      200  {object}  ActionResponse
// @Failure      400  {object}  ActionResponse "InvalidParameters"
// @Failure      401  {object}  ErrorResponse
// @Router       /relations/request [post]
func SendRelationRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var input RelationActionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ActionResponse{Success: false, Error: "InvalidParameters"})
		return
	}

	svc := relationship.NewService(database.DB)
	writeActionResult(c, svc.Propose(viewerID.(uint), input.ToID, relation.Type(input.Type)))
}

// UpdateRelationRequest godoc
// @Summary      Propose a relationship type change
// @Description  Creates a pending request to retype an existing edge. The change is only applied once the peer accepts.
// @Tags         relations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body RelationActionInput true "Target and new relation type"
// @Success      200  {object}  ActionResponse
// @Failure      400  {object}  ActionResponse "InvalidParameters"
// @Failure      401  {object}  ErrorResponse
// @Router       /relations/update [post]
func UpdateRelationRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var input RelationActionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ActionResponse{Success: false, Error: "InvalidParameters"})
		return
	}

	svc := relationship.NewService(database.DB)
	writeActionResult(c, svc.ProposeUpdate(viewerID.(uint), input.ToID, relation.Type(input.Type)))
}

// AcceptRelationRequest godoc
// @Summary      Accept a pending request
// @Description  Marks the request accepted and materializes its edge in one transaction.
// @Tags         relations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  ActionResponse
// @Failure      400  {object}  ActionResponse "InvalidParameters"
// @Failure      401  {object}  ErrorResponse
// @Router       /relations/{id}/accept [post]
func AcceptRelationRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ActionResponse{Success: false, Error: "InvalidParameters"})
		return
	}

	svc := relationship.NewService(database.DB)
	writeActionResult(c, svc.Accept(uint(requestID), viewerID.(uint)))
}

// RejectRelationRequest godoc
// @Summary      Reject a pending request
// @Description  Marks the request rejected. Rejection is terminal; a later proposal creates a new request.
// @Tags         relations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  ActionResponse
// @Failure      400  {object}  ActionResponse "InvalidParameters"
// @Failure      401  {object}  ErrorResponse
// @Router       /relations/{id}/reject [post]
func RejectRelationRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ActionResponse{Success: false, Error: "InvalidParameters"})
		return
	}

	svc := relationship.NewService(database.DB)
	writeActionResult(c, svc.Reject(uint(requestID), viewerID.(uint)))
}

// RemoveRelation godoc
// @Summary      Remove a relationship
// @Description  Tombstones the edge to another user. Unilateral; for a directed edge only the caller's outbound side is removed.
// @Tags         relations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body RelationActionInput true "Target user (type ignored)"
// @Success      200  {object}  ActionResponse
// @Failure      400  {object}  ActionResponse "InvalidParameters"
// @Failure      401  {object}  ErrorResponse
// @Router       /relations/remove [post]
func RemoveRelation(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var input RelationActionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ActionResponse{Success: false, Error: "InvalidParameters"})
		return
	}

	svc := relationship.NewService(database.DB)
	writeActionResult(c, svc.Remove(viewerID.(uint), input.ToID))
}

// writeActionResult maps workflow outcomes onto the wire contract: validation
// failures are 400, business-rule conflicts are 200 with a structured error
// code, anything else is a 500.
func writeActionResult(c *gin.Context, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, ActionResponse{Success: true})
	case errors.Is(err, relationship.ErrSelfRelation), errors.Is(err, relationship.ErrUnknownType):
		c.JSON(http.StatusBadRequest, ActionResponse{Success: false, Error: "InvalidParameters"})
	case errors.Is(err, relationship.ErrAlreadyRelated):
		c.JSON(http.StatusOK, ActionResponse{Success: false, Error: "AlreadyRelated"})
	case errors.Is(err, relationship.ErrRequestPending):
		c.JSON(http.StatusOK, ActionResponse{Success: false, Error: "RequestPending"})
	case errors.Is(err, relationship.ErrNoRelationship):
		c.JSON(http.StatusOK, ActionResponse{Success: false, Error: "NoRelationship"})
	case errors.Is(err, relationship.ErrNotFound):
		c.JSON(http.StatusOK, ActionResponse{Success: false, Error: "NotFound"})
	case errors.Is(err, relationship.ErrRelationshipConflict):
		c.JSON(http.StatusOK, ActionResponse{Success: false, Error: "RelationshipConflict"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
