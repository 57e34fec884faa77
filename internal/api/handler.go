package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/brokerflow/internal/domain/dto"
	"github.com/guttosm/brokerflow/internal/middleware"
	"github.com/guttosm/brokerflow/internal/service"
)

// Handler exposes pipeline runs and job progress over HTTP.
type Handler struct {
	svc service.JobService
}

// NewHandler constructs a Handler backed by svc.
func NewHandler(svc service.JobService) *Handler {
	return &Handler{svc: svc}
}

// StartRun handles POST /api/v1/pipelines/:name/runs.
//
// Query Parameters:
//   - limit (int, optional): process only the newest N input files.
//
// Responses:
//   - 202 Accepted: dto.RunAccepted with the new job id.
//   - 400 Bad Request: invalid limit.
//   - 404 Not Found: unknown pipeline name.
//   - 500 Internal Server Error: the job could not be recorded.
//
// StartRun godoc
// @Summary      Start a pipeline run
// @Tags         pipelines
// @Produce      json
// @Param        name   path      string  true   "Pipeline name" Enums(top_broker, segment, all)
// @Param        limit  query     int     false  "Newest N files only"
// @Success      202    {object}  dto.RunAccepted
// @Failure      400    {object}  dto.ErrorResponse
// @Failure      404    {object}  dto.ErrorResponse
// @Failure      500    {object}  dto.ErrorResponse
// @Router       /api/v1/pipelines/{name}/runs [post]
func (h *Handler) StartRun(c *gin.Context) {
	name := c.Param("name")

	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			middleware.AbortWithError(c, http.StatusBadRequest, "limit must be a non-negative integer", err)
			return
		}
		limit = n
	}

	id, err := h.svc.Start(c.Request.Context(), name, limit)
	switch {
	case errors.Is(err, service.ErrUnknownPipeline):
		middleware.AbortWithError(c, http.StatusNotFound, "unknown pipeline", err)
		return
	case err != nil:
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to start run", err)
		return
	}

	c.JSON(http.StatusAccepted, dto.RunAccepted{JobID: id, Pipeline: name, Status: "started"})
}

// GetJob handles GET /api/v1/jobs/:id.
//
// GetJob godoc
// @Summary      Job progress
// @Tags         jobs
// @Produce      json
// @Param        id   path      string  true  "Job id"
// @Success      200  {object}  dto.JobResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/v1/jobs/{id} [get]
func (h *Handler) GetJob(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to fetch job", err)
		return
	}
	if p == nil {
		middleware.AbortWithError(c, http.StatusNotFound, "job not found", nil)
		return
	}
	c.JSON(http.StatusOK, dto.NewJobResponse(*p))
}
