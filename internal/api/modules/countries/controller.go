package countries_module

import (
	"errors"
	"net/http"

	"github.com/ethanbaker/countries/internal/refresh"
	"github.com/ethanbaker/countries/internal/render"
	"github.com/ethanbaker/countries/pkg/country"
	"github.com/ethanbaker/countries/pkg/sdk"
	"github.com/gin-gonic/gin"
)

const (
	messageUnavailable = "External data source unavailable"
	messageInternal    = "Internal server error"
	messageNotFound    = "Country not found"
	messageNoImage     = "Summary image not found"
)

// RefreshCountries handles POST requests to run a refresh cycle
func RefreshCountries(c *gin.Context) {
	result, err := countriesService.refresher.Refresh(c.Request.Context())
	if err != nil {
		var refreshErr *refresh.Error
		if errors.Is(err, refresh.ErrExternalSourceUnavailable) && errors.As(err, &refreshErr) {
			c.JSON(sdk.NewErrorResponse(http.StatusServiceUnavailable, messageUnavailable, sdk.SourceErrorDetail{
				Error:   messageUnavailable,
				Source:  refreshErr.Source,
				Details: refreshErr.Detail,
			}).AsGinResponse())
			return
		}

		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, messageInternal, nil).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Countries refreshed successfully", sdk.RefreshResponse{
		RunID:           result.RunID,
		TotalCountries:  result.TotalCountries,
		LastRefreshedAt: result.LastRefreshedAt,
	}).AsGinResponse())
}

// ListCountries handles GET requests to list countries
func ListCountries(c *gin.Context) {
	var query sdk.ListCountriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse query parameters", err.Error()).AsGinResponse())
		return
	}

	filter := country.Filter{Region: query.Region, CurrencyCode: query.Currency}
	records, err := countriesService.store.QueryAll(c.Request.Context(), filter, country.ParseSortOrder(query.Sort))
	if err != nil {
		countriesService.logger.Error("failed to list countries", "error", err)
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, messageInternal, nil).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Countries retrieved successfully", records).AsGinResponse())
}

// GetSummaryImage handles GET requests for the summary PNG
func GetSummaryImage(c *gin.Context) {
	data, err := countriesService.images.Load()
	if err != nil {
		if errors.Is(err, render.ErrNotGenerated) {
			c.JSON(sdk.NewFailResponse(http.StatusNotFound, messageNoImage).AsGinResponse())
			return
		}

		countriesService.logger.Error("failed to load summary image", "error", err)
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, messageInternal, nil).AsGinResponse())
		return
	}

	c.Data(http.StatusOK, "image/png", data)
}

// GetCountry handles GET requests for a single country
func GetCountry(c *gin.Context) {
	record, err := countriesService.store.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, country.ErrNotFound) {
			c.JSON(sdk.NewFailResponse(http.StatusNotFound, messageNotFound).AsGinResponse())
			return
		}

		countriesService.logger.Error("failed to get country", "error", err)
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, messageInternal, nil).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Country retrieved successfully", record).AsGinResponse())
}

// DeleteCountry handles DELETE requests for a single country
func DeleteCountry(c *gin.Context) {
	found, err := countriesService.Delete(c.Request.Context(), c.Param("name"))
	if err != nil {
		countriesService.logger.Error("failed to delete country", "error", err)
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, messageInternal, nil).AsGinResponse())
		return
	}

	if !found {
		c.JSON(sdk.NewFailResponse(http.StatusNotFound, messageNotFound).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccess("Country deleted successfully").AsGinResponse())
}

// GetStatus handles GET requests for the aggregate status
func GetStatus(c *gin.Context) {
	status, err := countriesService.store.GetStatus(c.Request.Context())
	if err != nil {
		countriesService.logger.Error("failed to get status", "error", err)
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, messageInternal, nil).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Status retrieved successfully", sdk.StatusResponse{
		TotalCountries:  status.TotalCountries,
		LastRefreshedAt: status.LastRefreshedAt,
	}).AsGinResponse())
}
