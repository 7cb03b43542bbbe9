package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/marminbh/location-svc/internal/location"
	"github.com/marminbh/location-svc/internal/models"
)

// SearchHandler serves bounding-box searches over HTTP.
type SearchHandler struct {
	orchestrator *location.Orchestrator
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(orchestrator *location.Orchestrator) *SearchHandler {
	return &SearchHandler{orchestrator: orchestrator}
}

type searchResponse struct {
	IndexName string               `json:"index_name"`
	Count     int                  `json:"count"`
	Results   []models.EntityPoint `json:"results"`
}

// Search handles GET /api/v1/locations/:kind/search with sw_lat, sw_lng,
// ne_lat, ne_lng query parameters.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	kind := models.EntityKind(c.Params("kind"))
	if !kind.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "kind must be user or vendor",
		})
	}

	bounds := models.Bounds{}
	var parseErr error
	parse := func(name string) float64 {
		v, err := strconv.ParseFloat(c.Query(name), 64)
		if err != nil && parseErr == nil {
			parseErr = errors.New("query parameter " + name + " must be a number")
		}
		return v
	}
	bounds.SouthWest.Lat = parse("sw_lat")
	bounds.SouthWest.Lng = parse("sw_lng")
	bounds.NorthEast.Lat = parse("ne_lat")
	bounds.NorthEast.Lng = parse("ne_lng")
	if parseErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": parseErr.Error(),
		})
	}

	results, err := h.orchestrator.SearchArea(c.Context(), kind.GeoIndex(), bounds)
	if err != nil {
		if models.IsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "search failed",
		})
	}

	return c.JSON(searchResponse{
		IndexName: kind.GeoIndex(),
		Count:     len(results),
		Results:   results,
	})
}
