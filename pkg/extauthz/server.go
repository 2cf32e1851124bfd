package extauthz

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	envoy_core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	envoy_auth "github.com/envoyproxy/go-control-plane/envoy/service/auth/v3"
	envoy_type "github.com/envoyproxy/go-control-plane/envoy/type/v3"
	"google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/getmockd/sunsetd/pkg/agent"
	"github.com/getmockd/sunsetd/pkg/deprecation"
	"github.com/getmockd/sunsetd/pkg/logging"
)

const reqHeaderRequestID = "x-request-id"

// Server implements the Envoy external authorization service on top of an
// agent. Requests that are not blocked or redirected are always allowed;
// the deprecation headers travel back to the client in
// OkHttpResponse.ResponseHeadersToAdd.
type Server struct {
	envoy_auth.UnimplementedAuthorizationServer

	agent  *agent.Agent
	logger *slog.Logger
	health *health.Server
}

// NewServer creates a Server for a.
func NewServer(a *agent.Agent, logger *slog.Logger) *Server {
	return &Server{
		agent:  a,
		logger: logging.OrNop(logger),
		health: health.NewServer(),
	}
}

// Register adds the authorization and health services to g.
func (s *Server) Register(g *grpc.Server) {
	envoy_auth.RegisterAuthorizationServer(g, s)
	healthpb.RegisterHealthServer(g, s.health)
}

// Drain reports NOT_SERVING on the health service.
func (s *Server) Drain() {
	s.health.Shutdown()
}

// Check satisfies the Envoy External Authorization gRPC service.
func (s *Server) Check(ctx context.Context, checkReq *envoy_auth.CheckRequest) (*envoy_auth.CheckResponse, error) {
	req := checkReq.GetAttributes().GetRequest().GetHttp()
	if req == nil || req.GetPath() == "" {
		// Fail open: a malformed check must not take traffic down.
		s.logger.WarnContext(ctx, "check request without HTTP attributes")
		return getOKCheckResponse(nil), nil
	}

	path, query := deprecation.SplitTarget(req.GetPath())
	if query == "" {
		query = req.GetQuery()
	}

	requestID := req.GetHeaders()[reqHeaderRequestID]
	if requestID == "" {
		requestID = req.GetId()
	}

	d := s.agent.Handle(ctx, agent.Request{
		Method:    req.GetMethod(),
		Path:      path,
		Query:     query,
		RequestID: requestID,
	})
	resp := checkResponse(d)
	resp.DynamicMetadata = decisionMetadata(d)
	return resp, nil
}

// checkResponse translates a decision into the ext_authz answer.
func checkResponse(d deprecation.Decision) *envoy_auth.CheckResponse {
	headers := headerOptions(d.Headers)

	switch a := d.Action.(type) {
	case deprecation.Redirect:
		headers = append(headers, headerOption("Location", d.RedirectTarget))
		return getDeniedCheckResponse(a.Code, headers, "", a.String())
	case deprecation.Block:
		headers = append(headers, headerOption("Content-Type", d.ContentType))
		return getDeniedCheckResponse(a.Code, headers, d.ResponseBody, a.String())
	case deprecation.Custom:
		headers = append(headers, headerOption("Content-Type", d.ContentType))
		return getDeniedCheckResponse(a.Code, headers, d.ResponseBody, a.String())
	default:
		return getOKCheckResponse(headers)
	}
}

// decisionMetadata is emitted as dynamic metadata under the
// envoy.filters.http.ext_authz namespace, where access logs can read it.
func decisionMetadata(d deprecation.Decision) *structpb.Struct {
	if !d.Matched() || d.Action == nil {
		return nil
	}
	fields := map[string]*structpb.Value{
		"endpoint_id": structpb.NewStringValue(d.EndpointID),
		"status":      structpb.NewStringValue(d.Status.String()),
		"action":      structpb.NewStringValue(string(d.Action.Kind())),
	}
	if d.DaysUntilSunset != nil {
		fields["days_until_sunset"] = structpb.NewNumberValue(float64(*d.DaysUntilSunset))
	}
	return &structpb.Struct{Fields: fields}
}

func headerOptions(h deprecation.Headers) []*envoy_core.HeaderValueOption {
	if len(h) == 0 {
		return nil
	}
	out := make([]*envoy_core.HeaderValueOption, 0, len(h)+1)
	for _, hdr := range h {
		out = append(out, headerOption(hdr.Name, hdr.Value))
	}
	return out
}

func headerOption(key, value string) *envoy_core.HeaderValueOption {
	return &envoy_core.HeaderValueOption{
		Header: &envoy_core.HeaderValue{
			Key:   key,
			Value: value,
		},
		AppendAction: envoy_core.HeaderValueOption_OVERWRITE_IF_EXISTS_OR_ADD,
	}
}

// getDeniedCheckResponse answers the client directly with httpCode.
func getDeniedCheckResponse(httpCode int, headers []*envoy_core.HeaderValueOption, body, reason string) *envoy_auth.CheckResponse {
	return &envoy_auth.CheckResponse{
		Status: &status.Status{
			Code:    int32(codes.PermissionDenied),
			Message: fmt.Sprintf("%s: %s", reason, http.StatusText(httpCode)),
		},
		HttpResponse: &envoy_auth.CheckResponse_DeniedResponse{
			DeniedResponse: &envoy_auth.DeniedHttpResponse{
				Status: &envoy_type.HttpStatus{
					Code: envoy_type.StatusCode(httpCode),
				},
				Headers: headers,
				Body:    body,
			},
		},
	}
}

// getOKCheckResponse lets the request through and adds headers to the
// client response.
func getOKCheckResponse(responseHeaders []*envoy_core.HeaderValueOption) *envoy_auth.CheckResponse {
	return &envoy_auth.CheckResponse{
		Status: &status.Status{
			Code:    int32(codes.OK),
			Message: "ok",
		},
		HttpResponse: &envoy_auth.CheckResponse_OkResponse{
			OkResponse: &envoy_auth.OkHttpResponse{
				ResponseHeadersToAdd: responseHeaders,
			},
		},
	}
}
