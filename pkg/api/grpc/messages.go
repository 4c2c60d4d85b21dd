package grpc

import "google.golang.org/protobuf/types/known/structpb"

// Vec3 is the wire representation of a unit-sphere or world-space
// direction/position; field.Region and vmf.Vec3 use a fixed-size array,
// but JSON request bodies arrive as a 3-element slice.
type Vec3 [3]float64

// SampleObservation is one recorded direction sample feeding a Fit or
// Update call, mirroring pkg/sample.Sample.
type SampleObservation struct {
	Direction Vec3    `json:"direction"`
	Weight    float64 `json:"weight"`
	PDF       float64 `json:"pdf"`
	Distance  float64 `json:"distance"`
}

// FitRequest asks the server to (re)train a region's mixture from
// scratch. Tags carries arbitrary per-call scene metadata (emitter id,
// frame number, pass name) that the server neither logs nor interprets;
// structpb.Struct keeps that payload schema-free.
type FitRequest struct {
	RegionID string              `json:"region_id"`
	Anchor   Vec3                `json:"anchor"`
	K        int                 `json:"k"`
	Samples  []SampleObservation `json:"samples"`
	Tags     *structpb.Struct    `json:"tags,omitempty"`
}

// FitResponse reports the outcome of a Fit call.
type FitResponse struct {
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	ComponentCount int    `json:"component_count"`
}

// UpdateRequest asks the server to incorporate new samples into an
// already-fitted region via the adaptive split-and-merge update path.
type UpdateRequest struct {
	RegionID string              `json:"region_id"`
	Samples  []SampleObservation `json:"samples"`
}

// UpdateResponse reports the outcome of an Update call.
type UpdateResponse struct {
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	ComponentCount int    `json:"component_count"`
}

// SampleRequest asks the server to draw a direction from the sampling
// distribution resolved for position against a region.
type SampleRequest struct {
	RegionID string  `json:"region_id"`
	Position Vec3    `json:"position"`
	U        float64 `json:"u"`
	U1       float64 `json:"u1"`
	U2       float64 `json:"u2"`
}

// SampleResponse carries the sampled direction and its density.
type SampleResponse struct {
	Success   bool    `json:"success"`
	Error     string  `json:"error,omitempty"`
	Direction Vec3    `json:"direction"`
	PDF       float64 `json:"pdf"`
}

// PDFRequest asks the server to evaluate the sampling distribution
// resolved for position against a region at a given direction.
type PDFRequest struct {
	RegionID string  `json:"region_id"`
	Position Vec3    `json:"position"`
	U        float64 `json:"u"`
	Omega    Vec3    `json:"omega"`
}

// PDFResponse carries the evaluated density.
type PDFResponse struct {
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
	PDF     float64 `json:"pdf"`
}

// StatsRequest optionally scopes GetStats to a single region.
type StatsRequest struct {
	RegionID *string `json:"region_id,omitempty"`
}

// RegionStats reports per-region fitting state.
type RegionStats struct {
	ComponentCount int `json:"component_count"`
	CandidateCount int `json:"candidate_count"`
}

// StatsResponse reports server-wide and per-region statistics.
type StatsResponse struct {
	UptimeSeconds float64                `json:"uptime_seconds"`
	RegionCount   int                    `json:"region_count"`
	RegionStats   map[string]RegionStats `json:"region_stats"`
}

// HealthCheckRequest is the empty health-check request.
type HealthCheckRequest struct{}

// HealthCheckResponse reports liveness.
type HealthCheckResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Details       map[string]string `json:"details"`
}
