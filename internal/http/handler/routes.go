package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"ednaapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; business logic lives in the service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, backends BackendInfo, svc service.AnalysisService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db, backends))
	app.Get("/healthz", LivenessProbe())

	app.Post("/analyze", Analyze(svc))
	app.Get("/analyses", ListAnalyses(svc))
	app.Get("/analysis/:id", GetAnalysis(svc))
	app.Delete("/analysis/:id", DeleteAnalysis(svc))
	app.Get("/analysis/:id/download", DownloadUpload(svc))

	app.Post("/analysis/:id/comment", AddComment(svc))
	app.Post("/analysis/:id/propose", ProposeCorrection(svc))
	app.Patch("/analysis/:id/proposals/:pid", ReviewProposal(svc))
}
