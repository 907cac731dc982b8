package health

import (
	"github.com/ethanbaker/countries/pkg/sdk"
	"github.com/gin-gonic/gin"
)

// Version is the reported service version
const Version = "1.0.0"

func getInfo(c *gin.Context) {
	c.JSON(sdk.NewSuccessResponse("Country Currency & Exchange API", sdk.ServiceInfo{
		Message: "Country Currency & Exchange API",
		Version: Version,
		Status:  "running",
	}).AsGinResponse())
}

func getStatus(c *gin.Context) {
	c.JSON(sdk.NewSuccess("OK").AsGinResponse())
}
