package docs

import "github.com/swaggo/swag"

// @title QuickBite API
// @version 1.0
// @description Food delivery backend: orders, real-time tracking, promotions
// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
var SwaggerInfo = &swag.Spec{
	Version:     "1.0",
	Host:        "localhost:8080",
	BasePath:    "/api/v1",
	Title:       "QuickBite API",
	Description: "Food delivery backend: orders, real-time tracking, promotions",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
