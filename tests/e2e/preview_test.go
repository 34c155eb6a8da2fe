package e2e

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/light-bringer/dynprice-service/internal/transport/grpc/preview"
	"github.com/light-bringer/dynprice-service/internal/transport/view"
)

const previewJSON = `{
  "product": {"id": "draft-jacket", "category": "outerwear", "price": "100.00"},
  "metrics": {"units_available": 300},
  "rule_set": {
    "id": "draft",
    "catalog_id": "spring",
    "rules": [
      {"id": "deep", "condition": {"type": "units_available", "operator": "greater_or_equal", "value": "200"},
       "action": {"type": "decrease", "value_type": "percentage", "value": "30"},
       "rounding": {"type": "nearest", "unit": "0.05"}}
    ]
  }
}`

func TestPreview_HTTP(t *testing.T) {
	svc := setupTest(t)

	status, body := svc.do(t, http.MethodPost, "/api/v1/preview", previewJSON)
	require.Equal(t, http.StatusOK, status, string(body))

	var res view.Result
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "70.00", res.AfterPrice.Exact())
	assert.Equal(t, []string{"deep"}, res.AppliedRuleIDs)

	// preview never touches the catalog or the run log
	_, ok := svc.Opts.Memory.Product("draft-jacket")
	assert.False(t, ok)
	assert.Empty(t, svc.Opts.Memory.Events())
}

func TestPreview_GRPC(t *testing.T) {
	svc := setupTest(t)

	srv, _ := preview.NewServer(svc.Opts.PreviewHandler, nil)
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := preview.NewClient(conn)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(previewJSON), &doc))
	req, err := structpb.NewStruct(doc)
	require.NoError(t, err)

	resp, err := client.Simulate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "70.00", resp.GetFields()["after_price"].GetStringValue())

	bad, err := structpb.NewStruct(map[string]any{"product": map[string]any{"id": "x"}, "unknown": true})
	require.NoError(t, err)
	_, err = client.Simulate(context.Background(), bad)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
