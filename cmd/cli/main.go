package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	guidinggrpc "github.com/therealutkarshpriyadarshi/guiding/pkg/api/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const version = "1.0.0"

var (
	serverAddr string
	regionID   string
	timeout    time.Duration
)

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	flag.StringVar(&serverAddr, "server", "localhost:50061", "gRPC server address")
	flag.StringVar(&regionID, "region", "default", "region to use")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	command := os.Args[1]

	switch command {
	case "fit":
		handleFit(os.Args[2:])
	case "update":
		handleUpdate(os.Args[2:])
	case "sample":
		handleSample(os.Args[2:])
	case "pdf":
		handlePDF(os.Args[2:])
	case "stats":
		handleStats(os.Args[2:])
	case "health":
		handleHealth(os.Args[2:])
	case "version":
		fmt.Printf("guiding-cli version %s\n", version)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Printf("unknown command: %s\n", command)
		showUsage()
		os.Exit(1)
	}
}

func parseSamples(s string) []guidinggrpc.SampleObservation {
	var samples []guidinggrpc.SampleObservation
	if err := json.Unmarshal([]byte(s), &samples); err != nil {
		fmt.Printf("error parsing samples: %v\n", err)
		os.Exit(1)
	}
	return samples
}

func parseVec3(s string) guidinggrpc.Vec3 {
	var v guidinggrpc.Vec3
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		fmt.Printf("error parsing direction/position: %v\n", err)
		os.Exit(1)
	}
	return v
}

func handleFit(args []string) {
	fs := flag.NewFlagSet("fit", flag.ExitOnError)
	var (
		anchorStr  = fs.String("anchor", "[0,0,0]", "region anchor position as JSON [x,y,z]")
		k          = fs.Int("k", 4, "initial component count")
		samplesStr = fs.String("samples", "", "samples as a JSON array of {direction,weight,pdf,distance} (required)")
	)
	fs.StringVar(&serverAddr, "server", serverAddr, "gRPC server address")
	fs.StringVar(&regionID, "region", regionID, "region id")
	fs.Parse(args)

	if *samplesStr == "" {
		fmt.Println("error: -samples is required")
		fs.Usage()
		os.Exit(1)
	}

	client, conn := connectToServer()
	defer conn.Close()

	req := &guidinggrpc.FitRequest{
		RegionID: regionID,
		Anchor:   parseVec3(*anchorStr),
		K:        *k,
		Samples:  parseSamples(*samplesStr),
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := client.Fit(ctx, req)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	if !resp.Success {
		fmt.Printf("fit failed: %s\n", resp.Error)
		os.Exit(1)
	}
	fmt.Printf("fitted region %q with %d components\n", regionID, resp.ComponentCount)
}

func handleUpdate(args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	var (
		samplesStr = fs.String("samples", "", "samples as a JSON array of {direction,weight,pdf,distance} (required)")
	)
	fs.StringVar(&serverAddr, "server", serverAddr, "gRPC server address")
	fs.StringVar(&regionID, "region", regionID, "region id")
	fs.Parse(args)

	if *samplesStr == "" {
		fmt.Println("error: -samples is required")
		fs.Usage()
		os.Exit(1)
	}

	client, conn := connectToServer()
	defer conn.Close()

	req := &guidinggrpc.UpdateRequest{
		RegionID: regionID,
		Samples:  parseSamples(*samplesStr),
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := client.Update(ctx, req)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	if !resp.Success {
		fmt.Printf("update failed: %s\n", resp.Error)
		os.Exit(1)
	}
	fmt.Printf("updated region %q, now %d components\n", regionID, resp.ComponentCount)
}

func handleSample(args []string) {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	var (
		positionStr = fs.String("position", "[0,0,0]", "shading position as JSON [x,y,z]")
		u           = fs.Float64("u", 0.5, "candidate-selection random number in [0,1)")
		u1          = fs.Float64("u1", 0.5, "first sampling random number in [0,1)")
		u2          = fs.Float64("u2", 0.5, "second sampling random number in [0,1)")
	)
	fs.StringVar(&serverAddr, "server", serverAddr, "gRPC server address")
	fs.StringVar(&regionID, "region", regionID, "region id")
	fs.Parse(args)

	client, conn := connectToServer()
	defer conn.Close()

	req := &guidinggrpc.SampleRequest{
		RegionID: regionID,
		Position: parseVec3(*positionStr),
		U:        *u,
		U1:       *u1,
		U2:       *u2,
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := client.Sample(ctx, req)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	if !resp.Success {
		fmt.Printf("sample failed: %s\n", resp.Error)
		os.Exit(1)
	}
	fmt.Printf("direction: %v\n", resp.Direction)
	fmt.Printf("pdf:       %.6f\n", resp.PDF)
}

func handlePDF(args []string) {
	fs := flag.NewFlagSet("pdf", flag.ExitOnError)
	var (
		positionStr = fs.String("position", "[0,0,0]", "shading position as JSON [x,y,z]")
		omegaStr    = fs.String("omega", "", "direction to evaluate as JSON [x,y,z] (required)")
		u           = fs.Float64("u", 0.5, "candidate-selection random number in [0,1)")
	)
	fs.StringVar(&serverAddr, "server", serverAddr, "gRPC server address")
	fs.StringVar(&regionID, "region", regionID, "region id")
	fs.Parse(args)

	if *omegaStr == "" {
		fmt.Println("error: -omega is required")
		fs.Usage()
		os.Exit(1)
	}

	client, conn := connectToServer()
	defer conn.Close()

	req := &guidinggrpc.PDFRequest{
		RegionID: regionID,
		Position: parseVec3(*positionStr),
		U:        *u,
		Omega:    parseVec3(*omegaStr),
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := client.PDF(ctx, req)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	if !resp.Success {
		fmt.Printf("pdf failed: %s\n", resp.Error)
		os.Exit(1)
	}
	fmt.Printf("pdf: %.6f\n", resp.PDF)
}

func handleStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.StringVar(&serverAddr, "server", serverAddr, "gRPC server address")
	fs.Parse(args)

	client, conn := connectToServer()
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := client.GetStats(ctx, &guidinggrpc.StatsRequest{})
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Guiding Service Statistics ===")
	fmt.Printf("Uptime:       %.1fs\n", resp.UptimeSeconds)
	fmt.Printf("Region Count: %d\n", resp.RegionCount)
	fmt.Println("\nRegion Statistics:")
	for id, stats := range resp.RegionStats {
		fmt.Printf("  %s:\n", id)
		fmt.Printf("    Components: %d\n", stats.ComponentCount)
		fmt.Printf("    Candidates: %d\n", stats.CandidateCount)
	}
}

func handleHealth(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	fs.StringVar(&serverAddr, "server", serverAddr, "gRPC server address")
	fs.Parse(args)

	client, conn := connectToServer()
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := client.HealthCheck(ctx, &guidinggrpc.HealthCheckRequest{})
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Status:  %s\n", resp.Status)
	fmt.Printf("Version: %s\n", resp.Version)
	fmt.Printf("Uptime:  %d seconds\n", resp.UptimeSeconds)
	if len(resp.Details) > 0 {
		fmt.Println("Details:")
		for k, v := range resp.Details {
			fmt.Printf("  %s: %s\n", k, v)
		}
	}

	if resp.Status != "healthy" {
		os.Exit(1)
	}
}

func connectToServer() (guidinggrpc.GuidingClient, *grpc.ClientConn) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(ctx, serverAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		fmt.Printf("failed to connect to server at %s: %v\n", serverAddr, err)
		os.Exit(1)
	}

	return guidinggrpc.NewGuidingClient(conn), conn
}

func showUsage() {
	fmt.Println(`Guiding Service CLI - client for the adaptive split-and-merge gRPC server

Usage:
  guiding-cli <command> [options]

Commands:
  fit       Train a fresh mixture for a region from a sample batch
  update    Fold a new sample batch into an already-fitted region
  sample    Draw a direction from a region's sampling distribution
  pdf       Evaluate a region's sampling distribution at a direction
  stats     Get service statistics
  health    Check server health
  version   Show version
  help      Show this help message

Options (given after the command):
  -server ADDRESS   gRPC server address (default: localhost:50061)
  -region ID        Region id to operate on (default: default);
                    fit, update, sample and pdf only
Requests time out after 30s; the timeout is not settable from the command line.

Examples:

  # Fit a region from a batch of direction samples
  guiding-cli fit -region r0 -k 4 \
    -samples '[{"direction":[0,0,1],"weight":1,"pdf":1,"distance":1}]'

  # Fold in new samples
  guiding-cli update -region r0 \
    -samples '[{"direction":[0,1,0],"weight":1,"pdf":1,"distance":1}]'

  # Sample a direction from a shading point
  guiding-cli sample -region r0 -position '[1,0,0]' -u1 0.3 -u2 0.7

  # Evaluate the pdf at a direction
  guiding-cli pdf -region r0 -position '[1,0,0]' -omega '[0,0,1]'

  # Get service statistics
  guiding-cli stats

  # Check server health
  guiding-cli health`)
}
