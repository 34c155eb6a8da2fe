package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/civil"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/get_run"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/preview_rules"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/ruledoc"
	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
	"github.com/light-bringer/dynprice-service/internal/transport/view"
)

// Handler implements PreviewServiceServer.
// It's a thin coordinator that delegates to queries.
type Handler struct {
	preview         *preview_rules.Query
	getRun          *get_run.Query
	clock           clock.Clock
	defaultTimezone string
}

var _ PreviewServiceServer = (*Handler)(nil)

// NewHandler creates a new gRPC preview handler.
func NewHandler(preview *preview_rules.Query, getRun *get_run.Query, clk clock.Clock, defaultTimezone string) *Handler {
	return &Handler{
		preview:         preview,
		getRun:          getRun,
		clock:           clk,
		defaultTimezone: defaultTimezone,
	}
}

// Simulate evaluates a draft rule set against one product.
func (h *Handler) Simulate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "preview document is required")
	}

	var doc ruledoc.PreviewDocument
	if err := decodeStruct(in, &doc); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid preview document: %v", err)
	}
	req, err := preview_rules.RequestFromDocument(doc, h.clock.Now())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid preview document: %v", err)
	}

	return encodeStruct(view.FromResult(h.preview.Execute(ctx, req)))
}

type getRunRequest struct {
	CatalogID string `json:"catalog_id"`
	RunDate   string `json:"run_date"`
	Timezone  string `json:"timezone,omitempty"`
}

// GetRun returns the run log record of one catalog day.
func (h *Handler) GetRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	var req getRunRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := validateGetRunRequest(&req); err != nil {
		return nil, err
	}
	runDate, err := civil.ParseDate(req.RunDate)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "run_date must be YYYY-MM-DD")
	}
	if req.Timezone == "" {
		req.Timezone = h.defaultTimezone
	}

	rec, err := h.getRun.Execute(ctx, &get_run.Request{
		CatalogID: req.CatalogID,
		RunDate:   runDate,
		Timezone:  req.Timezone,
	})
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}
	return encodeStruct(view.FromRecord(rec))
}

func validateGetRunRequest(req *getRunRequest) error {
	if req.CatalogID == "" {
		return status.Error(codes.InvalidArgument, "catalog_id is required")
	}
	if req.RunDate == "" {
		return status.Error(codes.InvalidArgument, "run_date is required")
	}
	return nil
}

// decodeStruct reads a Struct into a JSON-tagged Go value, rejecting unknown fields.
func decodeStruct(in *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func encodeStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to encode response: %v", err))
	}
	return out, nil
}
