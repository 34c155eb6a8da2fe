// Command preview_client calls a running server's PreviewService.
//
//	preview_client -f draft.json
//	preview_client -catalog spring -date 2026-06-01
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/light-bringer/dynprice-service/internal/transport/grpc/preview"
)

func main() {
	addr := flag.String("addr", "localhost:9090", "gRPC server address")
	file := flag.String("f", "", "JSON preview document to simulate")
	catalog := flag.String("catalog", "", "Catalog of the run to fetch")
	date := flag.String("date", "", "Run date (YYYY-MM-DD) of the run to fetch")
	timezone := flag.String("timezone", "", "Run timezone; server default when empty")
	flag.Parse()

	if (*file == "") == (*catalog == "") {
		log.Fatal("Error: pass either -f or -catalog with -date")
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	health, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: preview.ServiceName})
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}
	log.Printf("%s is %s", preview.ServiceName, health.GetStatus())

	client := preview.NewClient(conn)

	var resp *structpb.Struct
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *file, err)
		}
		req := &structpb.Struct{}
		if err := protojson.Unmarshal(data, req); err != nil {
			log.Fatalf("Failed to parse %s: %v", *file, err)
		}
		resp, err = client.Simulate(ctx, req)
		if err != nil {
			log.Fatalf("Simulate failed: %v", err)
		}
	} else {
		req, err := structpb.NewStruct(map[string]any{
			"catalog_id": *catalog,
			"run_date":   *date,
			"timezone":   *timezone,
		})
		if err != nil {
			log.Fatalf("Failed to build request: %v", err)
		}
		resp, err = client.GetRun(ctx, req)
		if err != nil {
			log.Fatalf("GetRun failed: %v", err)
		}
	}

	out, err := protojson.MarshalOptions{Multiline: true}.Marshal(resp)
	if err != nil {
		log.Fatalf("Failed to render response: %v", err)
	}
	fmt.Println(string(out))
}
