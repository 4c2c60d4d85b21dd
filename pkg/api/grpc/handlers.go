package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/asm"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/query"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/sample"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/vmf"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toSamples(obs []SampleObservation) []sample.Sample {
	out := make([]sample.Sample, len(obs))
	for i, o := range obs {
		out[i] = sample.Sample{
			Direction: vmf.Vec3(o.Direction),
			Weight:    o.Weight,
			PDF:       o.PDF,
			Distance:  o.Distance,
		}
	}
	return out
}

// Fit implements the Fit RPC: trains a fresh mixture for a region from a
// batch of direction samples.
func (s *Server) Fit(ctx context.Context, req *FitRequest) (*FitResponse, error) {
	start := time.Now()
	if req.RegionID == "" {
		return &FitResponse{Error: "region_id is required"}, status.Error(codes.InvalidArgument, "region_id is required")
	}
	if len(req.Samples) == 0 {
		return &FitResponse{Error: "samples is required"}, status.Error(codes.InvalidArgument, "samples is required")
	}
	k := req.K
	if k <= 0 {
		k = 1
	}

	region := s.getOrCreateRegion(req.RegionID, req.Anchor)
	fitStats := &asm.FittingStatistics{}
	if err := region.Fit(k, toSamples(req.Samples), s.asmConfig, fitStats, s.tracer, req.RegionID); err != nil {
		s.metrics.RecordBatchError("fit", "asm")
		s.metrics.RecordBatch("fit", "error", time.Since(start))
		return &FitResponse{Error: err.Error()}, status.Error(codes.Internal, err.Error())
	}

	mix, _, _, err := region.Candidate(0.5)
	components := 0
	if err == nil && mix != nil {
		components = mix.K
	}
	s.metrics.UpdateComponentCount(req.RegionID, components)
	if fitStats.NumericDegeneracy {
		s.metrics.RecordNumericDegeneracy()
	}
	s.metrics.RecordInvalidSamples(int(fitStats.InvalidSamples))
	s.metrics.RecordBatch("fit", "ok", time.Since(start))
	s.tracer.TraceBatch(req.RegionID, "fit", map[string]interface{}{
		"samples": len(req.Samples), "components": components,
	})

	return &FitResponse{Success: true, ComponentCount: components}, nil
}

// Update implements the Update RPC: folds a batch of new samples into an
// already-fitted region's mixture via the online split/merge path.
func (s *Server) Update(ctx context.Context, req *UpdateRequest) (*UpdateResponse, error) {
	start := time.Now()
	if req.RegionID == "" {
		return &UpdateResponse{Error: "region_id is required"}, status.Error(codes.InvalidArgument, "region_id is required")
	}
	region, ok := s.getRegion(req.RegionID)
	if !ok {
		msg := fmt.Sprintf("region %q has not been fitted yet", req.RegionID)
		return &UpdateResponse{Error: msg}, status.Error(codes.FailedPrecondition, msg)
	}

	fitStats := &asm.FittingStatistics{}
	if err := region.Update(toSamples(req.Samples), s.asmConfig, fitStats, s.tracer, req.RegionID); err != nil {
		s.metrics.RecordBatchError("update", "asm")
		s.metrics.RecordBatch("update", "error", time.Since(start))
		return &UpdateResponse{Error: err.Error()}, status.Error(codes.Internal, err.Error())
	}

	mix, _, _, err := region.Candidate(0.5)
	components := 0
	if err == nil && mix != nil {
		components = mix.K
	}
	s.metrics.UpdateComponentCount(req.RegionID, components)
	s.metrics.RecordSplits(int(fitStats.NumSplits))
	s.metrics.RecordMerges(int(fitStats.NumMerges))
	if fitStats.CapacityExceeded > 0 {
		s.metrics.RecordSplitCapacityRefused()
	}
	s.metrics.RecordBatch("update", "ok", time.Since(start))
	s.tracer.TraceBatch(req.RegionID, "update", map[string]interface{}{
		"samples": len(req.Samples), "components": components,
	})

	return &UpdateResponse{Success: true, ComponentCount: components}, nil
}

// Sample implements the Sample RPC: draws one direction from the
// parallax-resolved sampling distribution at position.
func (s *Server) Sample(ctx context.Context, req *SampleRequest) (*SampleResponse, error) {
	start := time.Now()
	region, ok := s.getRegion(req.RegionID)
	if !ok {
		msg := fmt.Sprintf("region %q not found", req.RegionID)
		return &SampleResponse{Error: msg}, status.Error(codes.NotFound, msg)
	}

	var d query.Distribution
	u := req.U
	if !query.InitSurfaceSamplingDistribution(&d, region, vmf.Vec3(req.Position), &u) {
		msg := "sampling distribution is degenerate"
		return &SampleResponse{Error: msg}, status.Error(codes.FailedPrecondition, msg)
	}

	omega, pdf := d.SamplePDF(req.U1, req.U2)
	s.metrics.RecordQuerySample(time.Since(start))
	return &SampleResponse{Success: true, Direction: Vec3(omega), PDF: pdf}, nil
}

// PDF implements the PDF RPC: evaluates the parallax-resolved sampling
// distribution at position against a direction.
func (s *Server) PDF(ctx context.Context, req *PDFRequest) (*PDFResponse, error) {
	start := time.Now()
	region, ok := s.getRegion(req.RegionID)
	if !ok {
		msg := fmt.Sprintf("region %q not found", req.RegionID)
		return &PDFResponse{Error: msg}, status.Error(codes.NotFound, msg)
	}

	var d query.Distribution
	u := req.U
	if !query.InitSurfaceSamplingDistribution(&d, region, vmf.Vec3(req.Position), &u) {
		msg := "sampling distribution is degenerate"
		return &PDFResponse{Error: msg}, status.Error(codes.FailedPrecondition, msg)
	}

	pdf := d.PDF(vmf.Vec3(req.Omega))
	s.metrics.RecordQueryPDF(time.Since(start))
	return &PDFResponse{Success: true, PDF: pdf}, nil
}

// GetStats implements the GetStats RPC.
func (s *Server) GetStats(ctx context.Context, req *StatsRequest) (*StatsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := &StatsResponse{
		UptimeSeconds: s.Uptime().Seconds(),
		RegionCount:   len(s.regions),
		RegionStats:   make(map[string]RegionStats),
	}

	for id, r := range s.regions {
		if req.RegionID != nil && *req.RegionID != id {
			continue
		}
		mix, _, _, err := r.Candidate(0.5)
		components := 0
		if err == nil && mix != nil {
			components = mix.K
		}
		resp.RegionStats[id] = RegionStats{
			ComponentCount: components,
			CandidateCount: r.Count(),
		}
	}

	return resp, nil
}

// HealthCheck implements the HealthCheck RPC.
func (s *Server) HealthCheck(ctx context.Context, req *HealthCheckRequest) (*HealthCheckResponse, error) {
	healthStatus := "healthy"
	details := make(map[string]string)

	s.shutdownMu.Lock()
	isShutdown := s.isShutdown
	s.shutdownMu.Unlock()

	if isShutdown {
		healthStatus = "unhealthy"
		details["reason"] = "server is shutting down"
	}

	s.mu.RLock()
	details["regions"] = fmt.Sprintf("%d", len(s.regions))
	s.mu.RUnlock()

	return &HealthCheckResponse{
		Status:        healthStatus,
		Version:       "1.0.0",
		UptimeSeconds: int64(s.Uptime().Seconds()),
		Details:       details,
	}, nil
}
