package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	guidinggrpc "github.com/therealutkarshpriyadarshi/guiding/pkg/api/grpc"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/observability"
)

// Handler wraps the gRPC client and provides HTTP handlers over the
// guiding service.
type Handler struct {
	client guidinggrpc.GuidingClient
	logger *observability.Logger
}

// NewHandler creates a new REST API handler.
func NewHandler(client guidinggrpc.GuidingClient, logger *observability.Logger) *Handler {
	return &Handler{client: client, logger: logger}
}

// HealthCheck handles GET /v1/health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp, err := h.client.HealthCheck(r.Context(), &guidinggrpc.HealthCheckRequest{})
	if err != nil {
		writeError(w, fmt.Sprintf("health check failed: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, resp, http.StatusOK)
}

// GetStats handles GET /v1/stats and GET /v1/stats/{region}.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := &guidinggrpc.StatsRequest{}
	regionID := r.URL.Query().Get("region_id")
	if rest := strings.TrimPrefix(r.URL.Path, "/v1/stats/"); regionID == "" && rest != r.URL.Path {
		regionID = rest
	}
	if regionID != "" {
		req.RegionID = &regionID
	}

	resp, err := h.client.GetStats(r.Context(), req)
	if err != nil {
		writeError(w, fmt.Sprintf("failed to get stats: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, resp, http.StatusOK)
}

// Fit handles POST /v1/regions/fit.
func (h *Handler) Fit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req guidinggrpc.FitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	resp, err := h.client.Fit(r.Context(), &req)
	if err != nil {
		writeError(w, fmt.Sprintf("fit failed: %v", err), http.StatusInternalServerError)
		return
	}
	if !resp.Success {
		writeError(w, resp.Error, http.StatusInternalServerError)
		return
	}
	writeJSON(w, resp, http.StatusCreated)
}

// Update handles POST /v1/regions/update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req guidinggrpc.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	resp, err := h.client.Update(r.Context(), &req)
	if err != nil {
		writeError(w, fmt.Sprintf("update failed: %v", err), http.StatusInternalServerError)
		return
	}
	if !resp.Success {
		writeError(w, resp.Error, http.StatusInternalServerError)
		return
	}
	writeJSON(w, resp, http.StatusOK)
}

// Sample handles POST /v1/regions/sample.
func (h *Handler) Sample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req guidinggrpc.SampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	resp, err := h.client.Sample(r.Context(), &req)
	if err != nil {
		writeError(w, fmt.Sprintf("sample failed: %v", err), http.StatusInternalServerError)
		return
	}
	if !resp.Success {
		writeError(w, resp.Error, http.StatusInternalServerError)
		return
	}
	writeJSON(w, resp, http.StatusOK)
}

// PDF handles POST /v1/regions/pdf.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req guidinggrpc.PDFRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	resp, err := h.client.PDF(r.Context(), &req)
	if err != nil {
		writeError(w, fmt.Sprintf("pdf failed: %v", err), http.StatusInternalServerError)
		return
	}
	if !resp.Success {
		writeError(w, resp.Error, http.StatusInternalServerError)
		return
	}
	writeJSON(w, resp, http.StatusOK)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, fmt.Sprintf("failed to encode response: %v", err), http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  message,
		"status": statusCode,
	})
}

// ServeDocs serves the OpenAPI spec.
func ServeDocs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	content, err := os.ReadFile("docs/api/openapi.yaml")
	if err != nil {
		writeError(w, "openapi spec not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// ServeSwaggerUI serves the Swagger UI HTML page.
func ServeSwaggerUI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	html := `<!DOCTYPE html>
<html>
<head>
    <title>Guiding Service API Documentation</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: "/docs/openapi.yaml",
                dom_id: '#swagger-ui',
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIBundle.SwaggerUIStandalonePreset
                ],
                layout: "BaseLayout"
            });
        };
    </script>
</body>
</html>`

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// ParseIntQuery parses an integer query parameter.
func ParseIntQuery(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
